// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/gemlens/facet/internal/model"
)

// Batch is one imported classification run: a named, ordered set of review
// items sharing a common origin (an upload or a remote job).
type Batch struct {
	CreatedAt time.Time
	ID        string
	Name      string
	JobID     string
	ItemCount int
}

// ItemSource produces the ordered review items for one session. The order
// must be stable for the duration of the session; no reordering mid-review.
type ItemSource interface {
	// Name identifies the source in logs and exports.
	Name() string
	// Items returns the full ordered item list for the session.
	Items(ctx context.Context) ([]model.ReviewItem, error)
}

// VerdictSink receives each verification record as it is committed. A sink
// may be remote (classification service) or local (storage); failures must be
// surfaced, never swallowed.
type VerdictSink interface {
	SubmitVerdict(ctx context.Context, record model.VerificationRecord) error
}

// ResumeSource reports which item IDs the given operator has already
// verified, used only to compute the initial session cursor.
type ResumeSource interface {
	VerifiedItemIDs(ctx context.Context, operator string) (map[string]bool, error)
}

// Exporter hands the completed session's records and summary to an external
// destination (file download, training-data CSV).
type Exporter interface {
	Export(ctx context.Context, records []model.VerificationRecord, summary model.SessionSummary) error
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Batch operations
	SaveBatch(ctx context.Context, batch *Batch, items []model.ReviewItem) error
	GetBatch(ctx context.Context, id string) (*Batch, error)
	ListBatches(ctx context.Context) ([]Batch, error)
	GetBatchItems(ctx context.Context, batchID string) ([]model.ReviewItem, error)
	LatestBatch(ctx context.Context) (*Batch, error)

	// Verification operations
	SaveVerification(ctx context.Context, batchID string, record *model.VerificationRecord) error
	GetVerifications(ctx context.Context, batchID, operator string) ([]model.VerificationRecord, error)
	VerifiedItemIDs(ctx context.Context, batchID, operator string) (map[string]bool, error)
	MarkVerificationSubmitted(ctx context.Context, batchID, itemID, operator string) error
	UnsubmittedVerifications(ctx context.Context, batchID, operator string) ([]model.VerificationRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
