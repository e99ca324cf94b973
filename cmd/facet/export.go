package main

import (
	"fmt"
	"log/slog"

	"github.com/gemlens/facet/internal/config"
	"github.com/gemlens/facet/internal/export"
	"github.com/gemlens/facet/internal/model"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		batchID  string
		operator string
		jsonPath string
		csvPath  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored verifications as JSON or training-data CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if jsonPath == "" && csvPath == "" {
				return fmt.Errorf("nothing to do: pass --json and/or --csv")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close storage", "error", closeErr)
				}
			}()

			batch, err := resolveBatch(ctx, store, batchID)
			if err != nil {
				return err
			}
			if operator == "" {
				operator = config.Operator()
			}

			items, err := store.GetBatchItems(ctx, batch.ID)
			if err != nil {
				return err
			}
			records, err := store.GetVerifications(ctx, batch.ID, operator)
			if err != nil {
				return err
			}
			summary := summarize(items, records)

			if jsonPath != "" {
				exporter := export.NewJSONExporter(config.ExpandPath(jsonPath), items)
				if err := exporter.Export(ctx, records, summary); err != nil {
					return err
				}
			}
			if csvPath != "" {
				exporter := export.NewCSVExporter(config.ExpandPath(csvPath), items)
				if err := exporter.Export(ctx, records, summary); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "batch ID to export (default: most recent)")
	cmd.Flags().StringVar(&operator, "operator", "", "operator whose verdicts to export")
	cmd.Flags().StringVar(&jsonPath, "json", "", "verification JSON output path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "training-data CSV output path")
	return cmd
}

// summarize rebuilds a session summary from stored records for reporting
// outside a live session.
func summarize(items []model.ReviewItem, records []model.VerificationRecord) model.SessionSummary {
	summary := model.SessionSummary{
		TotalItems: len(items),
		Reviewed:   len(records),
	}
	for _, r := range records {
		switch {
		case r.Note != "":
			summary.Flagged++
		case r.IsCorrect:
			summary.Correct++
		default:
			summary.Incorrect++
		}
	}
	return summary
}
