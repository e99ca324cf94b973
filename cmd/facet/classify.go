package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gemlens/facet/internal/cli"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var (
		batchName    string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "classify <image|dir>...",
		Short: "Submit images to the classification service and import the results",
		Long: `Submit one or more tray images (or a directory of images) to the remote
classification service, wait for the jobs to finish, and store the detected
stones as a batch ready for 'facet verify'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			images, err := collectImages(args)
			if err != nil {
				return err
			}

			client, err := initClassifier()
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

			var (
				items  []model.ReviewItem
				jobIDs []string
			)
			for _, image := range images {
				job, err := client.SubmitImage(ctx, image)
				if err != nil {
					return fmt.Errorf("failed to submit %s: %w", filepath.Base(image), err)
				}
				slog.Info("Submitted classification job", "image", filepath.Base(image), "job", job.ID)

				result, err := client.WaitForJob(ctx, job.ID, pollInterval)
				if err != nil {
					return fmt.Errorf("job %s failed: %w", job.ID, err)
				}

				resultItems, err := result.ReviewItems()
				if err != nil {
					return fmt.Errorf("job %s: %w", job.ID, err)
				}

				items = append(items, resultItems...)
				jobIDs = append(jobIDs, job.ID)
			}

			if len(items) == 0 {
				fmt.Println(cli.FormatWarning("No stones detected in the submitted images."))
				return nil
			}

			if batchName == "" {
				batchName = fmt.Sprintf("classify-%s", time.Now().Format("2006-01-02-1504"))
			}

			batch := &service.Batch{
				ID:        uuid.New().String(),
				Name:      batchName,
				JobID:     strings.Join(jobIDs, ","),
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

	cmd.Flags().StringVar(&batchName, "name", "", "batch name (default: classify-<timestamp>)")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "job polling interval")
	return cmd
}

// collectImages expands directory arguments into their image files, keeping a
// stable sorted order.
func collectImages(args []string) ([]string, error) {
	var images []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			images = append(images, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isImageFile(entry.Name()) {
				continue
			}
			images = append(images, filepath.Join(arg, entry.Name()))
		}
	}
	sort.Strings(images)

	if len(images) == 0 {
		return nil, fmt.Errorf("no image files found in %s", strings.Join(args, ", "))
	}
	return images, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff":
		return true
	}
	return false
}
