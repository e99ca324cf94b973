package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gemlens/facet/internal/model"
)

// SaveVerification stores one verdict. A verdict is keyed by batch, item and
// operator so independent operators can verify the same item; re-saving the
// same key replaces the earlier verdict.
func (s *SQLiteStorage) SaveVerification(ctx context.Context, batchID string, record *model.VerificationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return err
	}
	if err := validateVerification(record); err != nil {
		return err
	}

	if record.VerifiedAt.IsZero() {
		record.VerifiedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verifications (
			batch_id, item_id, operator, is_correct,
			verified_orientation, verified_type, note, verified_at, submitted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(batch_id, item_id, operator) DO UPDATE SET
			is_correct = excluded.is_correct,
			verified_orientation = excluded.verified_orientation,
			verified_type = excluded.verified_type,
			note = excluded.note,
			verified_at = excluded.verified_at,
			submitted = 0
	`,
		batchID, record.ItemID, record.Operator, record.IsCorrect,
		string(record.CorrectedOrientation), string(record.CorrectedType),
		record.Note, record.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	return nil
}

// GetVerifications returns an operator's verdicts for a batch in review order.
func (s *SQLiteStorage) GetVerifications(ctx context.Context, batchID, operator string) ([]model.VerificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return nil, err
	}
	if err := validateString(operator, "operator"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.item_id, v.operator, v.is_correct,
		       COALESCE(v.verified_orientation, ''), COALESCE(v.verified_type, ''),
		       COALESCE(v.note, ''), v.verified_at
		FROM verifications v
		JOIN review_items ri ON ri.batch_id = v.batch_id AND ri.id = v.item_id
		WHERE v.batch_id = ? AND v.operator = ?
		ORDER BY ri.position
	`, batchID, operator)
	if err != nil {
		return nil, fmt.Errorf("failed to load verifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.VerificationRecord
	for rows.Next() {
		var record model.VerificationRecord
		var orientation, diamondType string
		if err := rows.Scan(
			&record.ItemID, &record.Operator, &record.IsCorrect,
			&orientation, &diamondType, &record.Note, &record.VerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		record.CorrectedOrientation = model.Orientation(orientation)
		record.CorrectedType = model.DiamondType(diamondType)
		records = append(records, record)
	}
	return records, rows.Err()
}

// VerifiedItemIDs returns the set of item IDs the operator has already
// verified in the batch. Used to compute the resume cursor.
func (s *SQLiteStorage) VerifiedItemIDs(ctx context.Context, batchID, operator string) (map[string]bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchID, "batchID"); err != nil {
		return nil, err
	}
	if err := validateString(operator, "operator"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id FROM verifications WHERE batch_id = ? AND operator = ?
	`, batchID, operator)
	if err != nil {
		return nil, fmt.Errorf("failed to load verified item ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	verified := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		verified[id] = true
	}
	return verified, rows.Err()
}

// MarkVerificationSubmitted flags a verdict as acknowledged by the remote sink.
func (s *SQLiteStorage) MarkVerificationSubmitted(ctx context.Context, batchID, itemID, operator string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE verifications SET submitted = 1
		WHERE batch_id = ? AND item_id = ? AND operator = ?
	`, batchID, itemID, operator)
	if err != nil {
		return fmt.Errorf("failed to mark verification submitted: %w", err)
	}
	return nil
}

// UnsubmittedVerifications returns the operator's verdicts the remote sink
// has not yet acknowledged, in review order. This is the reconciliation queue
// behind the retry-on-failure flow.
func (s *SQLiteStorage) UnsubmittedVerifications(ctx context.Context, batchID, operator string) ([]model.VerificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.item_id, v.operator, v.is_correct,
		       COALESCE(v.verified_orientation, ''), COALESCE(v.verified_type, ''),
		       COALESCE(v.note, ''), v.verified_at
		FROM verifications v
		JOIN review_items ri ON ri.batch_id = v.batch_id AND ri.id = v.item_id
		WHERE v.batch_id = ? AND v.operator = ? AND v.submitted = 0
		ORDER BY ri.position
	`, batchID, operator)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsubmitted verifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.VerificationRecord
	for rows.Next() {
		var record model.VerificationRecord
		var orientation, diamondType string
		if err := rows.Scan(
			&record.ItemID, &record.Operator, &record.IsCorrect,
			&orientation, &diamondType, &record.Note, &record.VerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		record.CorrectedOrientation = model.Orientation(orientation)
		record.CorrectedType = model.DiamondType(diamondType)
		records = append(records, record)
	}
	return records, rows.Err()
}
