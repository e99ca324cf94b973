package tui

import "github.com/gemlens/facet/internal/model"

// Commit lifecycle messages.
type recordCommittedMsg struct {
	record model.VerificationRecord
}

type submitFailedMsg struct {
	err    error
	record model.VerificationRecord
}
