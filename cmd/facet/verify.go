package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gemlens/facet/internal/classify"
	"github.com/gemlens/facet/internal/cli"
	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/config"
	"github.com/gemlens/facet/internal/export"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
	"github.com/gemlens/facet/internal/session"
	"github.com/gemlens/facet/internal/source"
	"github.com/gemlens/facet/internal/tui"
	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var (
		batchID    string
		operator   string
		exportPath string
		csvPath    string
		useTUI     bool
		localOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Review a batch of detections one stone at a time",
		Long: `Walk through every unverified detection in a batch, confirming or
correcting the predicted labels. Verdicts are committed to local storage
immediately and pushed to the classification service when one is configured;
quitting mid-batch loses nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			interruptHandler := cli.NewInterruptHandler(os.Stdout)
			ctx = interruptHandler.HandleInterrupts(ctx)

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

			// The remote sink is optional: without a configured service URL
			// every verdict stays local and queued.
			var client *classify.Client
			if !localOnly {
				if cfg := config.LoadClassifierConfig(); cfg.URL != "" {
					client, err = classify.NewClient(cfg.URL, cfg.APIKey)
					if err != nil {
						return err
					}
				}
			}

			items, err := source.NewBatchSource(store, batch.ID, batch.Name).Items(ctx)
			if err != nil {
				return err
			}

			verified, err := verifiedIDs(ctx, store, client, batch.ID, operator)
			if err != nil {
				return err
			}

			if client != nil {
				flushQueuedVerdicts(ctx, store, client, batch.ID, operator)
			}

			sess := session.Resume(items, operator, verified)
			onRecord := makeRecorder(store, client, batch.ID)

			slog.Info("Starting verification",
				"batch", batch.Name,
				"operator", operator,
				"items", len(items),
				"already_verified", len(verified))

			if useTUI {
				err = tui.Run(ctx, sess, tui.RecordFunc(onRecord))
			} else {
				prompter := cli.NewReviewPrompter(os.Stdin, os.Stdout)
				err = prompter.Run(ctx, sess, cli.RecordFunc(onRecord))
			}
			if err != nil {
				if interruptHandler.WasInterrupted() || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			return exportResults(ctx, store, batch.ID, operator, items, sess, exportPath, csvPath)
		},
	}

	cmd.Flags().StringVar(&batchID, "batch", "", "batch ID to review (default: most recent)")
	cmd.Flags().StringVar(&operator, "operator", "", "operator identity recorded with verdicts")
	cmd.Flags().StringVar(&exportPath, "export", "", "write verification JSON here on completion")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write training-data CSV here on completion")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use the full-screen interface")
	cmd.Flags().BoolVar(&localOnly, "local-only", false, "do not push verdicts to the classification service")
	return cmd
}

// verifiedIDs merges the locally recorded verdicts with the service's view of
// what this operator has already verified, so a session resumes correctly on
// any machine.
func verifiedIDs(ctx context.Context, store service.Storage, client *classify.Client, batchID, operator string) (map[string]bool, error) {
	verified, err := store.VerifiedItemIDs(ctx, batchID, operator)
	if err != nil {
		return nil, err
	}

	if client != nil {
		remote, err := client.VerifiedItemIDs(ctx, operator)
		if err != nil {
			slog.Warn("Could not fetch remote verification state, resuming from local state only", "error", err)
			return verified, nil
		}
		for id := range remote {
			verified[id] = true
		}
	}
	return verified, nil
}

// makeRecorder builds the per-verdict commit path: local storage first, then
// the remote service. A remote failure leaves the verdict queued locally and
// surfaces ErrSubmissionFailed so the UI can offer retry or ignore.
func makeRecorder(store service.Storage, client *classify.Client, batchID string) func(context.Context, model.VerificationRecord) error {
	return func(ctx context.Context, record model.VerificationRecord) error {
		if err := store.SaveVerification(ctx, batchID, &record); err != nil {
			return fmt.Errorf("failed to save verdict locally: %w", err)
		}
		if client == nil {
			return nil
		}

		err := common.WithRetry(ctx, func() error {
			return client.SubmitVerdict(ctx, record)
		}, service.RetryOptions{MaxAttempts: 3})
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrSubmissionFailed, err)
		}

		return store.MarkVerificationSubmitted(ctx, batchID, record.ItemID, record.Operator)
	}
}

// flushQueuedVerdicts pushes verdicts from earlier sessions that never reached
// the service. Best effort: failures stay queued.
func flushQueuedVerdicts(ctx context.Context, store service.Storage, client *classify.Client, batchID, operator string) {
	queued, err := store.UnsubmittedVerifications(ctx, batchID, operator)
	if err != nil {
		slog.Warn("Could not load queued verdicts", "error", err)
		return
	}
	if len(queued) == 0 {
		return
	}

	slog.Info("Submitting queued verdicts from earlier sessions", "count", len(queued))
	for _, record := range queued {
		if err := client.SubmitVerdict(ctx, record); err != nil {
			slog.Warn("Queued verdict still unsubmitted", "item", record.ItemID, "error", err)
			continue
		}
		if err := store.MarkVerificationSubmitted(ctx, batchID, record.ItemID, record.Operator); err != nil {
			slog.Warn("Failed to mark verdict submitted", "item", record.ItemID, "error", err)
		}
	}
}

func exportResults(ctx context.Context, store service.Storage, batchID, operator string, items []model.ReviewItem, sess *session.Session, jsonPath, csvPath string) error {
	if jsonPath == "" && csvPath == "" {
		return nil
	}

	// Export the batch's full verification history, not just this session's
	// records, so resumed sessions produce complete files.
	records, err := store.GetVerifications(ctx, batchID, operator)
	if err != nil {
		return fmt.Errorf("failed to load verifications for export: %w", err)
	}
	summary := sess.Summary()

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
}
