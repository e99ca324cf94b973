package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/service"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrInvalidBatch        = errors.New("invalid batch")
	ErrInvalidVerification = errors.New("invalid verification")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateBatch(batch *service.Batch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch", ErrNilParameter)
	}
	if strings.TrimSpace(batch.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBatch)
	}
	if strings.TrimSpace(batch.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBatch)
	}
	return nil
}

func validateVerification(record *model.VerificationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.ItemID) == "" {
		return fmt.Errorf("%w: missing item id", ErrInvalidVerification)
	}
	if strings.TrimSpace(record.Operator) == "" {
		return fmt.Errorf("%w: missing operator", ErrInvalidVerification)
	}
	if record.CorrectedOrientation != "" && !record.CorrectedOrientation.Valid() {
		return fmt.Errorf("%w: orientation %q", ErrInvalidVerification, record.CorrectedOrientation)
	}
	if record.CorrectedType != "" && !record.CorrectedType.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidVerification, record.CorrectedType)
	}
	return nil
}
