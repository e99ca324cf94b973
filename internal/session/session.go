// Package session implements the forward-only verification session: an
// ordered list of review items, a cursor, and exactly-once verdict recording.
package session

import (
	"fmt"
	"time"

	"github.com/gemlens/facet/internal/common"
	"github.com/gemlens/facet/internal/model"
)

// State describes where a session is in its lifecycle.
type State int

// Session states. Complete is terminal: no operation leaves it, and a new
// session must be constructed to review again.
const (
	StateActive State = iota
	StateComplete
)

// Correction carries the operator-supplied replacement labels for a rejected
// prediction. Zero values mean "not supplied": an unsupplied orientation
// defaults to the flip of the prediction (the orientation set is binary), an
// unsupplied type keeps the prediction unless TypeRejected is set, in which
// case a replacement is mandatory.
type Correction struct {
	Orientation  model.Orientation
	Type         model.DiamondType
	TypeRejected bool
}

// Session owns an ordered sequence of review items and a cursor. All methods
// must be called from a single goroutine; a session is exclusively owned by
// the review loop that created it.
type Session struct {
	startedAt time.Time
	operator  string
	items     []model.ReviewItem
	records   []model.VerificationRecord
	cursor    int
	skipped   int
	quit      bool
}

// New creates a session over items with the cursor at the start.
func New(items []model.ReviewItem, operator string) *Session {
	return &Session{
		items:     items,
		operator:  operator,
		records:   make([]model.VerificationRecord, 0, len(items)),
		startedAt: time.Now(),
	}
}

// Resume creates a session whose cursor starts at the first item the operator
// has not already verified. If every item is verified the session begins in
// the Complete state with no records; those verdicts live externally.
func Resume(items []model.ReviewItem, operator string, verified map[string]bool) *Session {
	s := New(items, operator)
	for s.cursor < len(s.items) && verified[s.items[s.cursor].ID] {
		s.cursor++
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	if s.quit || s.cursor >= len(s.items) {
		return StateComplete
	}
	return StateActive
}

// Current returns the item under the cursor, or ErrEndOfSession once the
// session is complete. No side effects.
func (s *Session) Current() (model.ReviewItem, error) {
	if s.State() == StateComplete {
		return model.ReviewItem{}, common.ErrEndOfSession
	}
	return s.items[s.cursor], nil
}

// Progress returns the cursor position and total item count for display.
func (s *Session) Progress() (reviewed, total int) {
	return s.cursor, len(s.items)
}

// RecordCorrect confirms the current item's predicted labels and advances.
func (s *Session) RecordCorrect() (model.VerificationRecord, error) {
	item, err := s.mutableCurrent()
	if err != nil {
		return model.VerificationRecord{}, err
	}

	record := model.VerificationRecord{
		ItemID:               item.ID,
		Operator:             s.operator,
		IsCorrect:            true,
		CorrectedOrientation: item.Orientation,
		CorrectedType:        item.Type,
		VerifiedAt:           time.Now(),
	}
	s.append(record)
	return record, nil
}

// RecordIncorrect rejects the current item's prediction and advances. A nil
// correction takes the one-keystroke path: the orientation flips to the other
// binary value and the predicted type is kept. Rejecting the type without a
// replacement fails with ErrMissingCorrection because the type set is not
// binary and cannot be defaulted.
func (s *Session) RecordIncorrect(c *Correction) (model.VerificationRecord, error) {
	item, err := s.mutableCurrent()
	if err != nil {
		return model.VerificationRecord{}, err
	}

	orientation := item.Orientation.Flipped()
	diamondType := item.Type

	if c != nil {
		if c.Orientation != "" {
			if !c.Orientation.Valid() {
				return model.VerificationRecord{}, fmt.Errorf("invalid corrected orientation %q", c.Orientation)
			}
			orientation = c.Orientation
		}
		switch {
		case c.Type != "":
			if !c.Type.Valid() {
				return model.VerificationRecord{}, fmt.Errorf("invalid corrected type %q", c.Type)
			}
			diamondType = c.Type
		case c.TypeRejected:
			return model.VerificationRecord{}, common.ErrMissingCorrection
		}
	}

	record := model.VerificationRecord{
		ItemID:               item.ID,
		Operator:             s.operator,
		IsCorrect:            false,
		CorrectedOrientation: orientation,
		CorrectedType:        diamondType,
		VerifiedAt:           time.Now(),
	}
	s.append(record)
	return record, nil
}

// RecordSkip advances past the current item without producing a record.
// Skipped items are permanently excluded from the exported record set; skip
// means "uncertain, do not use for training", not "correct".
func (s *Session) RecordSkip() error {
	if _, err := s.mutableCurrent(); err != nil {
		return err
	}
	s.skipped++
	s.cursor++
	return nil
}

// RecordFailureNote flags the current item as an upstream detector failure
// and advances. The record carries the note and no corrected labels.
func (s *Session) RecordFailureNote(note string) (model.VerificationRecord, error) {
	item, err := s.mutableCurrent()
	if err != nil {
		return model.VerificationRecord{}, err
	}

	record := model.VerificationRecord{
		ItemID:     item.ID,
		Operator:   s.operator,
		IsCorrect:  false,
		Note:       note,
		VerifiedAt: time.Now(),
	}
	s.append(record)
	return record, nil
}

// Quit forces the session into the Complete state, keeping every verdict
// recorded so far and fabricating nothing for unreviewed items.
func (s *Session) Quit() {
	s.quit = true
}

// Records returns the verdicts recorded so far, in review order.
func (s *Session) Records() []model.VerificationRecord {
	out := make([]model.VerificationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Items returns the session's full item list.
func (s *Session) Items() []model.ReviewItem {
	out := make([]model.ReviewItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemByID returns the session item with the given ID, if present.
func (s *Session) ItemByID(id string) (model.ReviewItem, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return model.ReviewItem{}, false
}

// Summary aggregates the session's verdicts for reporting and export.
func (s *Session) Summary() model.SessionSummary {
	summary := model.SessionSummary{
		TotalItems: len(s.items),
		Reviewed:   len(s.records) + s.skipped,
		Skipped:    s.skipped,
		Duration:   time.Since(s.startedAt),
	}
	for _, r := range s.records {
		switch {
		case r.Note != "":
			summary.Flagged++
		case r.IsCorrect:
			summary.Correct++
		default:
			summary.Incorrect++
		}
	}
	return summary
}

// mutableCurrent guards every mutating operation: issuing one against a
// completed session violates the caller contract.
func (s *Session) mutableCurrent() (model.ReviewItem, error) {
	if s.State() == StateComplete {
		return model.ReviewItem{}, common.ErrInvalidState
	}
	return s.items[s.cursor], nil
}

func (s *Session) append(record model.VerificationRecord) {
	s.records = append(s.records, record)
	s.cursor++
}
