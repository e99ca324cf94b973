package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS batches (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					job_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS review_items (
					id TEXT NOT NULL,
					batch_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					image TEXT NOT NULL,
					roi_id INTEGER NOT NULL,
					predicted_orientation TEXT NOT NULL,
					predicted_type TEXT NOT NULL,
					confidence REAL NOT NULL,
					bbox_x INTEGER NOT NULL DEFAULT 0,
					bbox_y INTEGER NOT NULL DEFAULT 0,
					bbox_w INTEGER NOT NULL DEFAULT 0,
					bbox_h INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (batch_id, id),
					FOREIGN KEY (batch_id) REFERENCES batches(id)
				)`,
				`CREATE INDEX idx_review_items_order ON review_items(batch_id, position)`,

				`CREATE TABLE IF NOT EXISTS verifications (
					batch_id TEXT NOT NULL,
					item_id TEXT NOT NULL,
					operator TEXT NOT NULL,
					is_correct INTEGER NOT NULL,
					verified_orientation TEXT,
					verified_type TEXT,
					note TEXT,
					verified_at DATETIME NOT NULL,
					PRIMARY KEY (batch_id, item_id, operator)
				)`,
				`CREATE INDEX idx_verifications_operator ON verifications(batch_id, operator)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track submission state for remote verdict sink",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE verifications ADD COLUMN submitted INTEGER NOT NULL DEFAULT 0`)
			return err
		},
	},
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Debug("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
