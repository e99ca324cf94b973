package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gemlens/facet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []model.ReviewItem {
	return []model.ReviewItem{
		{
			ID:          "tray.jpg#1",
			Orientation: model.OrientationTable,
			Type:        model.TypeRound,
			Confidence:  0.95,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 1},
		},
		{
			ID:          "tray.jpg#2",
			Orientation: model.OrientationTilted,
			Type:        model.TypeRound,
			Confidence:  0.62,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 2},
		},
	}
}

func testRecords() []model.VerificationRecord {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	return []model.VerificationRecord{
		{
			ItemID:               "tray.jpg#1",
			Operator:             "op@example.com",
			IsCorrect:            true,
			CorrectedOrientation: model.OrientationTable,
			CorrectedType:        model.TypeRound,
			VerifiedAt:           at,
		},
		{
			ItemID:     "tray.jpg#2",
			Operator:   "op@example.com",
			IsCorrect:  false,
			Note:       "two stones in one roi",
			VerifiedAt: at.Add(time.Minute),
		},
	}
}

func TestJSONExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "verifications.json")
	exporter := NewJSONExporter(path, testItems())

	summary := model.SessionSummary{TotalItems: 2, Correct: 1, Flagged: 1}
	require.NoError(t, exporter.Export(context.Background(), testRecords(), summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "tray.jpg", rows[0]["image"])
	assert.Equal(t, float64(1), rows[0]["roi_id"])
	assert.Equal(t, "table", rows[0]["predicted_orientation"])
	assert.Equal(t, true, rows[0]["is_correct"])
	assert.Equal(t, "2025-06-01T09:30:00Z", rows[0]["timestamp"])

	assert.Equal(t, "two stones in one roi", rows[1]["note"])
	assert.Equal(t, false, rows[1]["is_correct"])
}

func TestJSONExportSkipsEmptyRecordSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verifications.json")
	exporter := NewJSONExporter(path, testItems())

	require.NoError(t, exporter.Export(context.Background(), nil, model.SessionSummary{}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file should be written for an empty session")
}

func TestCSVExportExcludesFlaggedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training_data.csv")
	exporter := NewCSVExporter(path, testItems())

	require.NoError(t, exporter.Export(context.Background(), testRecords(), model.SessionSummary{}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	// Header plus the single label verdict; the flagged record is excluded.
	require.Len(t, rows, 2)
	assert.Equal(t, "image", rows[0][0])
	assert.Equal(t, "tray.jpg", rows[1][0])
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "table", rows[1][5])
	assert.Equal(t, "1", rows[1][8], "table orientation encodes as label 1")
}
