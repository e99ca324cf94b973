package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
)

// SaveBatch stores a batch and its ordered review items atomically.
func (s *SQLiteStorage) SaveBatch(ctx context.Context, batch *service.Batch, items []model.ReviewItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBatch(batch); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}
	batch.ItemCount = len(items)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, name, job_id, created_at) VALUES (?, ?, ?, ?)
	`, batch.ID, batch.Name, batch.JobID, batch.CreatedAt); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO review_items (
				id, batch_id, position, image, roi_id,
				predicted_orientation, predicted_type, confidence,
				bbox_x, bbox_y, bbox_w, bbox_h
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			item.ID, batch.ID, i, item.Source.Image, item.Source.ROIID,
			string(item.Orientation), string(item.Type), item.Confidence,
			item.Source.BoundingBox[0], item.Source.BoundingBox[1],
			item.Source.BoundingBox[2], item.Source.BoundingBox[3],
		); err != nil {
			return fmt.Errorf("failed to save review item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// GetBatch returns the batch with the given ID.
func (s *SQLiteStorage) GetBatch(ctx context.Context, id string) (*service.Batch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	return s.scanBatch(s.db.QueryRowContext(ctx, `
		SELECT b.id, b.name, COALESCE(b.job_id, ''), b.created_at,
		       (SELECT COUNT(*) FROM review_items ri WHERE ri.batch_id = b.id)
		FROM batches b WHERE b.id = ?
	`, id))
}

// LatestBatch returns the most recently created batch.
func (s *SQLiteStorage) LatestBatch(ctx context.Context) (*service.Batch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.scanBatch(s.db.QueryRowContext(ctx, `
		SELECT b.id, b.name, COALESCE(b.job_id, ''), b.created_at,
		       (SELECT COUNT(*) FROM review_items ri WHERE ri.batch_id = b.id)
		FROM batches b ORDER BY b.created_at DESC, b.id DESC LIMIT 1
	`))
}

func (s *SQLiteStorage) scanBatch(row *sql.Row) (*service.Batch, error) {
	var batch service.Batch
	err := row.Scan(&batch.ID, &batch.Name, &batch.JobID, &batch.CreatedAt, &batch.ItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}
	return &batch, nil
}

// ListBatches returns all batches, newest first.
func (s *SQLiteStorage) ListBatches(ctx context.Context) ([]service.Batch, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, COALESCE(b.job_id, ''), b.created_at,
		       (SELECT COUNT(*) FROM review_items ri WHERE ri.batch_id = b.id)
		FROM batches b ORDER BY b.created_at DESC, b.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []service.Batch
	for rows.Next() {
		var batch service.Batch
		if err := rows.Scan(&batch.ID, &batch.Name, &batch.JobID, &batch.CreatedAt, &batch.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// GetBatchItems returns the batch's review items in their original order.
func (s *SQLiteStorage) GetBatchItems(ctx context.Context, batchID string) ([]model.ReviewItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, image, roi_id, predicted_orientation, predicted_type, confidence,
		       bbox_x, bbox_y, bbox_w, bbox_h
		FROM review_items WHERE batch_id = ? ORDER BY position
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.ReviewItem
	for rows.Next() {
		var item model.ReviewItem
		var orientation, diamondType string
		if err := rows.Scan(
			&item.ID, &item.Source.Image, &item.Source.ROIID,
			&orientation, &diamondType, &item.Confidence,
			&item.Source.BoundingBox[0], &item.Source.BoundingBox[1],
			&item.Source.BoundingBox[2], &item.Source.BoundingBox[3],
		); err != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", err)
		}
		item.Orientation = model.Orientation(orientation)
		item.Type = model.DiamondType(diamondType)
		items = append(items, item)
	}
	return items, rows.Err()
}
