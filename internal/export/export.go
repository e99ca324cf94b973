// Package export hands completed verification records to external sinks:
// a verifications JSON file for audit, and a training-data CSV for model
// retraining.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
)

// verificationRow is the exported JSON form of one verdict, joined with the
// item it judged.
type verificationRow struct {
	Image                string  `json:"image"`
	ROIID                int     `json:"roi_id"`
	PredictedType        string  `json:"predicted_type"`
	PredictedOrientation string  `json:"predicted_orientation"`
	Confidence           float64 `json:"confidence"`
	IsCorrect            bool    `json:"is_correct"`
	VerifiedType         string  `json:"verified_type,omitempty"`
	VerifiedOrientation  string  `json:"verified_orientation,omitempty"`
	Note                 string  `json:"note,omitempty"`
	Operator             string  `json:"operator"`
	Timestamp            string  `json:"timestamp"`
}

// JSONExporter writes the session's records as a verifications JSON file.
type JSONExporter struct {
	items map[string]model.ReviewItem
	path  string
}

// NewJSONExporter creates an exporter writing to path. The item list is used
// to join each record back to its image and ROI.
func NewJSONExporter(path string, items []model.ReviewItem) *JSONExporter {
	return &JSONExporter{path: path, items: indexItems(items)}
}

// Export writes all records. An empty record set writes nothing; there is no
// point shipping an empty training file.
func (e *JSONExporter) Export(_ context.Context, records []model.VerificationRecord, summary model.SessionSummary) error {
	if len(records) == 0 {
		slog.Info("No verifications to export")
		return nil
	}

	rows := make([]verificationRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, e.row(record))
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode verifications: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write verifications: %w", err)
	}

	slog.Info("Exported verifications",
		"path", e.path,
		"records", len(records),
		"accuracy", fmt.Sprintf("%.1f%%", summary.Accuracy()*100))
	return nil
}

func (e *JSONExporter) row(record model.VerificationRecord) verificationRow {
	item := e.items[record.ItemID]
	return verificationRow{
		Image:                item.Source.Image,
		ROIID:                item.Source.ROIID,
		PredictedType:        string(item.Type),
		PredictedOrientation: string(item.Orientation),
		Confidence:           item.Confidence,
		IsCorrect:            record.IsCorrect,
		VerifiedType:         string(record.CorrectedType),
		VerifiedOrientation:  string(record.CorrectedOrientation),
		Note:                 record.Note,
		Operator:             record.Operator,
		Timestamp:            record.VerifiedAt.UTC().Format(time.RFC3339),
	}
}

// CSVExporter writes the session's records as a training-data CSV. Flagged
// detector failures are left out: they describe bad detections, not bad
// labels, and must not become training samples.
type CSVExporter struct {
	items map[string]model.ReviewItem
	path  string
}

// NewCSVExporter creates an exporter writing to path.
func NewCSVExporter(path string, items []model.ReviewItem) *CSVExporter {
	return &CSVExporter{path: path, items: indexItems(items)}
}

// Export writes one training row per label verdict.
func (e *CSVExporter) Export(_ context.Context, records []model.VerificationRecord, _ model.SessionSummary) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("failed to create training file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	header := []string{
		"image", "roi_id", "predicted_orientation", "predicted_type", "confidence",
		"verified_orientation", "verified_type", "is_correct", "label",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	written := 0
	for _, record := range records {
		if record.Note != "" {
			continue
		}
		item := e.items[record.ItemID]

		// The training label is 1 for table, 0 for tilted, matching the
		// upstream model's encoding.
		label := "0"
		if record.CorrectedOrientation == model.OrientationTable {
			label = "1"
		}

		row := []string{
			item.Source.Image,
			strconv.Itoa(item.Source.ROIID),
			string(item.Orientation),
			string(item.Type),
			strconv.FormatFloat(item.Confidence, 'f', 4, 64),
			string(record.CorrectedOrientation),
			string(record.CorrectedType),
			strconv.FormatBool(record.IsCorrect),
			label,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		written++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush training file: %w", err)
	}

	slog.Info("Exported training data", "path", e.path, "rows", written)
	return nil
}

func indexItems(items []model.ReviewItem) map[string]model.ReviewItem {
	index := make(map[string]model.ReviewItem, len(items))
	for _, item := range items {
		index[item.ID] = item
	}
	return index
}

// Compile-time interface checks.
var (
	_ service.Exporter = (*JSONExporter)(nil)
	_ service.Exporter = (*CSVExporter)(nil)
)
