// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Session contract errors. ErrInvalidState means a mutating operation was
	// issued against a completed session; that is a caller bug, not an
	// operator-visible condition.
	ErrEndOfSession      = errors.New("end of session")
	ErrInvalidState      = errors.New("session already complete")
	ErrMissingCorrection = errors.New("correction required for non-binary label")

	// Remote service errors.
	ErrItemSourceUnavailable = errors.New("item source unavailable")
	ErrSubmissionFailed      = errors.New("verdict submission failed")
	ErrJobNotReady           = errors.New("job not finished")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrSubmissionFailed) ||
		errors.Is(err, ErrJobNotReady) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
