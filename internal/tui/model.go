// Package tui implements the full-screen review interface built on bubbletea.
// It drives the same verification session as the line-oriented prompter, one
// keystroke per verdict, with inline pickers for corrections.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gemlens/facet/internal/model"
	"github.com/gemlens/facet/internal/session"
)

// RecordFunc commits one verdict to the configured sinks.
type RecordFunc func(ctx context.Context, record model.VerificationRecord) error

// screenState is the active interaction mode of the review screen.
type screenState int

const (
	stateReviewing screenState = iota
	statePickOrientation
	statePickType
	stateNoting
	stateCommitting
	stateSubmitRetry
	stateDone
)

var orientationChoices = []model.Orientation{model.OrientationTable, model.OrientationTilted}

var typeChoices = []model.DiamondType{model.TypeRound, model.TypeEmerald, model.TypeOther}

// Model holds the review screen state.
type Model struct {
	ctx           context.Context
	session       *session.Session
	onRecord      RecordFunc
	pendingRecord *model.VerificationRecord
	lastErr       error
	keymap        KeyMap
	help          help.Model
	noteInput     textinput.Model
	correction    session.Correction
	choiceIdx     int
	width         int
	height        int
	state         screenState
	showHelp      bool
}

func newModel(ctx context.Context, s *session.Session, onRecord RecordFunc) Model {
	noteInput := textinput.New()
	noteInput.Placeholder = "what went wrong?"
	noteInput.CharLimit = 200

	m := Model{
		ctx:       ctx,
		session:   s,
		onRecord:  onRecord,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		noteInput: noteInput,
	}
	if s.State() == session.StateComplete {
		m.state = stateDone
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.session.Quit()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case recordCommittedMsg:
		m.pendingRecord = nil
		m.lastErr = nil
		return m.advance(), nil

	case submitFailedMsg:
		m.lastErr = msg.err
		m.state = stateSubmitRetry
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateReviewing:
		return m.handleReviewKey(msg)
	case statePickOrientation, statePickType:
		return m.handlePickerKey(msg)
	case stateNoting:
		return m.handleNoteKey(msg)
	case stateSubmitRetry:
		return m.handleRetryKey(msg)
	case stateCommitting:
		return m, nil
	case stateDone:
		if key.Matches(msg, m.keymap.Quit) || key.Matches(msg, m.keymap.Confirm) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keymap.Quit):
		m.session.Quit()
		m.state = stateDone
		return m, nil

	case key.Matches(msg, m.keymap.Accept):
		record, err := m.session.RecordCorrect()
		if err != nil {
			m.lastErr = err
			return m, nil
		}
		return m.commit(record)

	case key.Matches(msg, m.keymap.Reject):
		item, err := m.session.Current()
		if err != nil {
			m.lastErr = err
			return m, nil
		}
		m.correction = session.Correction{}
		m.choiceIdx = indexOfOrientation(item.Orientation.Flipped())
		m.state = statePickOrientation
		return m, nil

	case key.Matches(msg, m.keymap.Flag):
		m.noteInput.SetValue("")
		m.state = stateNoting
		return m, m.noteInput.Focus()

	case key.Matches(msg, m.keymap.Skip):
		if err := m.session.RecordSkip(); err != nil {
			m.lastErr = err
			return m, nil
		}
		return m.advance(), nil
	}

	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(orientationChoices)
	if m.state == statePickType {
		count = len(typeChoices)
	}

	switch msg.String() {
	case "up", "k", "left", "h":
		m.choiceIdx = (m.choiceIdx + count - 1) % count
		return m, nil
	case "down", "j", "right", "l", "tab":
		m.choiceIdx = (m.choiceIdx + 1) % count
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.state = stateReviewing
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		if m.state == statePickOrientation {
			m.correction.Orientation = orientationChoices[m.choiceIdx]
			item, err := m.session.Current()
			if err != nil {
				m.lastErr = err
				m.state = stateReviewing
				return m, nil
			}
			m.choiceIdx = indexOfType(item.Type)
			m.state = statePickType
			return m, nil
		}

		m.correction.Type = typeChoices[m.choiceIdx]
		record, err := m.session.RecordIncorrect(&m.correction)
		if err != nil {
			m.lastErr = err
			m.state = stateReviewing
			return m, nil
		}
		return m.commit(record)
	}

	return m, nil
}

func (m Model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.noteInput.Blur()
		m.state = stateReviewing
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		note := m.noteInput.Value()
		if note == "" {
			return m, nil
		}
		m.noteInput.Blur()
		record, err := m.session.RecordFailureNote(note)
		if err != nil {
			m.lastErr = err
			m.state = stateReviewing
			return m, nil
		}
		return m.commit(record)
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m Model) handleRetryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.pendingRecord != nil {
			m.state = stateCommitting
			return m, m.commitCmd(*m.pendingRecord)
		}
		return m.advance(), nil
	case "i":
		// Verdict stays queued locally for a later jobs sync.
		m.pendingRecord = nil
		m.lastErr = nil
		return m.advance(), nil
	}
	return m, nil
}

// commit hands the record to onRecord asynchronously; the screen blocks until
// the commit resolves so a failure can be surfaced before the next item.
func (m Model) commit(record model.VerificationRecord) (tea.Model, tea.Cmd) {
	if m.onRecord == nil {
		return m.advance(), nil
	}
	m.pendingRecord = &record
	m.state = stateCommitting
	return m, m.commitCmd(record)
}

func (m Model) commitCmd(record model.VerificationRecord) tea.Cmd {
	return func() tea.Msg {
		if err := m.onRecord(m.ctx, record); err != nil {
			return submitFailedMsg{record: record, err: err}
		}
		return recordCommittedMsg{record: record}
	}
}

func (m Model) advance() Model {
	if m.session.State() == session.StateComplete {
		m.state = stateDone
	} else {
		m.state = stateReviewing
	}
	return m
}

func indexOfOrientation(o model.Orientation) int {
	for i, c := range orientationChoices {
		if c == o {
			return i
		}
	}
	return 0
}

func indexOfType(t model.DiamondType) int {
	for i, c := range typeChoices {
		if c == t {
			return i
		}
	}
	return 0
}
