package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gemlens/facet/internal/cli"
	"github.com/gemlens/facet/internal/service"
	"github.com/gemlens/facet/internal/source"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var batchName string

	cmd := &cobra.Command{
		Use:   "import <result.json|dir>",
		Short: "Import precomputed classification results",
		Long: `Import classification result JSON (a single file or a directory of
per-image results) into a local batch without going through the remote
service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src := source.NewFileSource(args[0])
			items, err := src.Items(ctx)
			if err != nil {
				return err
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

			if batchName == "" {
				batchName = filepath.Base(args[0])
			}

			batch := &service.Batch{
				ID:        uuid.New().String(),
				Name:      batchName,
				ItemCount: len(items),
				CreatedAt: time.Now(),
			}
			if err := store.SaveBatch(ctx, batch, items); err != nil {
				return fmt.Errorf("failed to save batch: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d detections into batch %s (%s)",
				len(items), batch.Name, batch.ID)))
			fmt.Println(cli.FormatInfo("Review them with: facet verify"))
			return nil
		},
	}

	cmd.Flags().StringVar(&batchName, "name", "", "batch name (default: source file name)")
	return cmd
}
