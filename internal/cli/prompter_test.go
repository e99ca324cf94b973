package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gemlens/facet/internal/common"
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
			Confidence:  0.92,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 1},
		},
		{
			ID:          "tray.jpg#2",
			Orientation: model.OrientationTilted,
			Type:        model.TypeEmerald,
			Confidence:  0.55,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 2},
		},
		{
			ID:          "tray.jpg#3",
			Orientation: model.OrientationTable,
			Type:        model.TypeOther,
			Confidence:  0.80,
			Source:      model.SourceRef{Image: "tray.jpg", ROIID: 3},
		},
	}
}

func runPrompter(t *testing.T, s *session.Session, input string, onRecord RecordFunc) *bytes.Buffer {
	t.Helper()
	output := &bytes.Buffer{}
	prompter := NewReviewPrompter(strings.NewReader(input), output)
	require.NoError(t, prompter.Run(context.Background(), s, onRecord))
	return output
}

func TestRunConfirmsAllItems(t *testing.T) {
	s := session.New(testItems(), "op@example.com")

	var committed []model.VerificationRecord
	output := runPrompter(t, s, "y\ny\ny\n", func(_ context.Context, r model.VerificationRecord) error {
		committed = append(committed, r)
		return nil
	})

	require.Len(t, committed, 3)
	assert.Equal(t, session.StateComplete, s.State())

	summary := s.Summary()
	assert.Equal(t, 3, summary.Correct)
	assert.Equal(t, 0, summary.Incorrect)
	assert.Contains(t, output.String(), "Verification Complete")
}

func TestRunRejectionDefaultsFlipOrientation(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	// "n" then two empty lines: accept both correction defaults.
	var committed []model.VerificationRecord
	runPrompter(t, s, "n\n\n\n", func(_ context.Context, r model.VerificationRecord) error {
		committed = append(committed, r)
		return nil
	})

	require.Len(t, committed, 1)
	assert.False(t, committed[0].IsCorrect)
	assert.Equal(t, model.OrientationTilted, committed[0].CorrectedOrientation)
	assert.Equal(t, model.TypeRound, committed[0].CorrectedType)
}

func TestRunRejectionWithExplicitCorrection(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	var committed []model.VerificationRecord
	runPrompter(t, s, "n\ntable\nemerald\n", func(_ context.Context, r model.VerificationRecord) error {
		committed = append(committed, r)
		return nil
	})

	require.Len(t, committed, 1)
	assert.Equal(t, model.OrientationTable, committed[0].CorrectedOrientation)
	assert.Equal(t, model.TypeEmerald, committed[0].CorrectedType)
}

func TestRunRepromptsOnInvalidCorrection(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	output := runPrompter(t, s, "n\nsideways\ntilted\nround\n", nil)

	assert.Contains(t, output.String(), "Please enter 'table' or 'tilted'")
	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, model.OrientationTilted, records[0].CorrectedOrientation)
}

func TestRunFlagRequiresNote(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	output := runPrompter(t, s, "f\n\nTwo stones in one ROI\n", nil)

	assert.Contains(t, output.String(), "Note cannot be empty")
	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Two stones in one ROI", records[0].Note)
	assert.False(t, records[0].IsCorrect)
}

func TestRunSkipProducesNoRecord(t *testing.T) {
	s := session.New(testItems()[:2], "op@example.com")

	called := 0
	runPrompter(t, s, "s\ny\n", func(_ context.Context, _ model.VerificationRecord) error {
		called++
		return nil
	})

	assert.Equal(t, 1, called)
	summary := s.Summary()
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Correct)
}

func TestRunQuitStopsEarly(t *testing.T) {
	s := session.New(testItems(), "op@example.com")

	runPrompter(t, s, "y\nq\n", nil)

	assert.Equal(t, session.StateComplete, s.State())
	assert.Len(t, s.Records(), 1)
}

func TestRunIgnoresInvalidChoice(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	output := runPrompter(t, s, "x\ny\n", nil)

	assert.Contains(t, output.String(), "Invalid choice")
	assert.Len(t, s.Records(), 1)
}

func TestCommitRetryThenSuccess(t *testing.T) {
	s := session.New(testItems()[:1], "op@example.com")

	attempts := 0
	output := runPrompter(t, s, "y\nr\n", func(_ context.Context, _ model.VerificationRecord) error {
		attempts++
		if attempts == 1 {
			return common.ErrSubmissionFailed
		}
		return nil
	})

	assert.Equal(t, 2, attempts)
	assert.Contains(t, output.String(), "Submission failed")
}

func TestCommitIgnoreKeepsGoing(t *testing.T) {
	s := session.New(testItems()[:2], "op@example.com")

	attempts := 0
	runPrompter(t, s, "y\ni\ny\ni\n", func(_ context.Context, _ model.VerificationRecord) error {
		attempts++
		return errors.New("remote unavailable")
	})

	assert.Equal(t, 2, attempts)
	assert.Equal(t, session.StateComplete, s.State())
	assert.Len(t, s.Records(), 2)
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := session.New(testItems(), "op@example.com")
	prompter := NewReviewPrompter(strings.NewReader("y\n"), &bytes.Buffer{})

	err := prompter.Run(ctx, s, nil)
	require.Error(t, err)
}
