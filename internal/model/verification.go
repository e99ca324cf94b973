package model

import "time"

// VerificationRecord is the operator's verdict for one ReviewItem. Created
// exactly once per reviewed item (skips produce no record) and never mutated
// afterwards.
type VerificationRecord struct {
	VerifiedAt           time.Time   `json:"timestamp"`
	ItemID               string      `json:"item_id"`
	Operator             string      `json:"operator"`
	Note                 string      `json:"note,omitempty"`
	CorrectedOrientation Orientation `json:"verified_orientation,omitempty"`
	CorrectedType        DiamondType `json:"verified_type,omitempty"`
	IsCorrect            bool        `json:"is_correct"`
}

// SessionSummary aggregates the verdicts of one verification session.
type SessionSummary struct {
	TotalItems int
	Reviewed   int
	Correct    int
	Incorrect  int
	Skipped    int
	Flagged    int
	Duration   time.Duration
}

// Accuracy returns correct/recorded as a fraction in [0,1]. Skipped items do
// not count toward the denominator; flagged detector failures do.
func (s SessionSummary) Accuracy() float64 {
	recorded := s.Correct + s.Incorrect + s.Flagged
	if recorded == 0 {
		return 0
	}
	return float64(s.Correct) / float64(recorded)
}
