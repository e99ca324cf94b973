package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []model.ReviewItem {
	return []model.ReviewItem{
		{
			ID:          "tray.jpg#1",
			Orientation: model.OrientationTable,
			Type:        model.TypeRound,
			Confidence:  0.9,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 1},
		},
		{
			ID:          "tray.jpg#2",
			Orientation: model.OrientationTilted,
			Type:        model.TypeEmerald,
			Confidence:  0.5,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 2},
		},
	}
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// step applies a message and resolves any produced command synchronously.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)
	if cmd != nil {
		if result := cmd(); result != nil {
			switch result.(type) {
			case recordCommittedMsg, submitFailedMsg:
				return step(t, next, result)
			}
		}
	}
	return next
}

func TestAcceptAdvancesAndCommits(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	var committed []model.VerificationRecord
	m := newModel(context.Background(), s, func(_ context.Context, r model.VerificationRecord) error {
		committed = append(committed, r)
		return nil
	})

	m = step(t, m, keyPress('y'))

	require.Len(t, committed, 1)
	assert.True(t, committed[0].IsCorrect)
	assert.Equal(t, stateReviewing, m.state)

	m = step(t, m, keyPress('y'))
	require.Len(t, committed, 2)
	assert.Equal(t, stateDone, m.state)
}

func TestRejectFlowPicksCorrection(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")
	m := newModel(context.Background(), s, nil)

	m = step(t, m, keyPress('n'))
	require.Equal(t, statePickOrientation, m.state)
	// Cursor defaults to the flipped orientation.
	assert.Equal(t, model.OrientationTilted, orientationChoices[m.choiceIdx])

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, statePickType, m.state)
	assert.Equal(t, model.TypeRound, typeChoices[m.choiceIdx])

	m = step(t, m, keyPress('j')) // round -> emerald
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateDone, m.state)
	records := s.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].IsCorrect)
	assert.Equal(t, model.OrientationTilted, records[0].CorrectedOrientation)
	assert.Equal(t, model.TypeEmerald, records[0].CorrectedType)
}

func TestRejectCancelReturnsToReview(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	m := newModel(context.Background(), s, nil)

	m = step(t, m, keyPress('n'))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, stateReviewing, m.state)
	assert.Empty(t, s.Records())
}

func TestFlagRequiresNote(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")
	m := newModel(context.Background(), s, nil)

	m = step(t, m, keyPress('f'))
	require.Equal(t, stateNoting, m.state)

	// Empty note is refused.
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stateNoting, m.state)

	for _, r := range "blurry" {
		m = step(t, m, keyPress(r))
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, stateDone, m.state)
	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "blurry", records[0].Note)
}

func TestSkipProducesNoRecord(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	m := newModel(context.Background(), s, nil)

	m = step(t, m, keyPress('s'))

	assert.Equal(t, stateReviewing, m.state)
	assert.Empty(t, s.Records())
	assert.Equal(t, 1, s.Summary().Skipped)
}

func TestQuitEndsSessionEarly(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	m := newModel(context.Background(), s, nil)

	m = step(t, m, keyPress('q'))

	assert.Equal(t, stateDone, m.state)
	assert.Equal(t, session.StateComplete, s.State())
}

func TestSubmitFailureOffersRetry(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	attempts := 0
	m := newModel(context.Background(), s, func(_ context.Context, _ model.VerificationRecord) error {
		attempts++
		if attempts == 1 {
			return errors.New("remote unavailable")
		}
		return nil
	})

	m = step(t, m, keyPress('y'))
	require.Equal(t, stateSubmitRetry, m.state)

	m = step(t, m, keyPress('r'))
	assert.Equal(t, 2, attempts)
	assert.Equal(t, stateDone, m.state)
}

func TestSubmitFailureIgnoreAdvances(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	m := newModel(context.Background(), s, func(_ context.Context, _ model.VerificationRecord) error {
		return errors.New("remote unavailable")
	})

	m = step(t, m, keyPress('y'))
	require.Equal(t, stateSubmitRetry, m.state)

	m = step(t, m, keyPress('i'))
	assert.Equal(t, stateReviewing, m.state)
	assert.Len(t, s.Records(), 1)
}

func TestViewRendersItemAndSummary(t *testing.T) {
	s := session.New(testItems(), "op@example.com")
	m := newModel(context.Background(), s, nil)

	view := m.View()
	assert.Contains(t, view, "tray.jpg")
	assert.Contains(t, view, "ROUND")

	m = step(t, m, keyPress('q'))
	view = m.View()
	assert.Contains(t, view, "Verification Complete")
}
