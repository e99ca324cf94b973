package main

import (
	"context"
	"fmt"

	"github.com/gemlens/facet/internal/classify"
	"github.com/gemlens/facet/internal/config"
	"github.com/gemlens/facet/internal/service"
	"github.com/gemlens/facet/internal/storage"
)

// initStorage opens the local database and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initClassifier builds the remote classification client from config.
func initClassifier() (*classify.Client, error) {
	cfg := config.LoadClassifierConfig()
	return classify.NewClient(cfg.URL, cfg.APIKey)
}

// resolveBatch picks the batch to operate on: an explicit ID, or the most
// recently imported one.
func resolveBatch(ctx context.Context, store service.Storage, batchID string) (*service.Batch, error) {
	if batchID != "" {
		return store.GetBatch(ctx, batchID)
	}

	batch, err := store.LatestBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("no batch found, run 'facet import' or 'facet classify' first: %w", err)
	}
	return batch, nil
}
