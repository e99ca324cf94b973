package main

import (
	"fmt"
	"log/slog"

	"github.com/gemlens/facet/internal/cli"
	"github.com/gemlens/facet/internal/config"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var (
		batchID  string
		operator string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show verification progress for stored batches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close storage", "error", closeErr)
				}
			}()

			if operator == "" {
				operator = config.Operator()
			}

			if all {
				batches, err := store.ListBatches(ctx)
				if err != nil {
					return err
				}
				if len(batches) == 0 {
					fmt.Println(cli.FormatInfo("No batches imported yet."))
					return nil
				}
				for _, batch := range batches {
					verified, err := store.VerifiedItemIDs(ctx, batch.ID, operator)
					if err != nil {
						return err
					}
					fmt.Printf("  %s  %-24s  %3d/%3d verified  %s\n",
						batch.ID, batch.Name, len(verified), batch.ItemCount,
						batch.CreatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			}

			batch, err := resolveBatch(ctx, store, batchID)
			if err != nil {
				return err
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

			content := fmt.Sprintf("Batch: %s\nOperator: %s\n\n", batch.Name, operator) +
				fmt.Sprintf("  • Items: %d\n", summary.TotalItems) +
				fmt.Sprintf("  • Verified: %d\n", summary.Reviewed) +
				fmt.Sprintf("  • Correct: %d\n", summary.Correct) +
				fmt.Sprintf("  • Corrected: %d\n", summary.Incorrect) +
				fmt.Sprintf("  • Flagged: %d\n", summary.Flagged) +
				fmt.Sprintf("  • Accuracy: %.1f%%\n", summary.Accuracy()*100)

			fmt.Println(cli.RenderBox(cli.GemIcon+" Verification Report", content))
			return nil
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "batch ID to report on (default: most recent)")
	cmd.Flags().StringVar(&operator, "operator", "", "operator whose verdicts to report")
	cmd.Flags().BoolVar(&all, "all", false, "one-line summary for every batch")
	return cmd
}
