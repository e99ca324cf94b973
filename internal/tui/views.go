package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gemlens/facet/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7FDBFF"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1D3"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// View renders the review screen.
func (m Model) View() string {
	var b strings.Builder

	if m.state == stateDone {
		b.WriteString(m.summaryView())
		b.WriteString(subtleStyle.Render("\nPress q or Enter to exit."))
		return b.String()
	}

	item, err := m.session.Current()
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	b.WriteString(m.itemCard(item))
	b.WriteString("\n")

	switch m.state {
	case statePickOrientation:
		b.WriteString(m.pickerView("Correct orientation:", orientationNames(), m.choiceIdx))
	case statePickType:
		b.WriteString(m.pickerView("Correct diamond type:", typeNames(), m.choiceIdx))
	case stateNoting:
		b.WriteString(labelStyle.Render("Failure note:") + "\n")
		b.WriteString(m.noteInput.View() + "\n")
		b.WriteString(subtleStyle.Render("Enter to save, Esc to cancel"))
	case stateCommitting:
		b.WriteString(subtleStyle.Render("Submitting verdict..."))
	case stateSubmitRetry:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Submission failed: %v", m.lastErr)) + "\n")
		b.WriteString(labelStyle.Render("[r]etry / [i]gnore (verdict stays queued locally)"))
	default:
		if m.lastErr != nil {
			b.WriteString(errorStyle.Render(m.lastErr.Error()) + "\n")
		}
		if m.showHelp {
			b.WriteString(m.help.FullHelpView(m.keymap.FullHelp()))
		} else {
			b.WriteString(m.help.ShortHelpView(m.keymap.ShortHelp()))
		}
	}

	return b.String()
}

func (m Model) itemCard(item model.ReviewItem) string {
	reviewed, total := m.session.Progress()

	header := titleStyle.Render(fmt.Sprintf("💎 ROI #%d — %s", item.Source.ROIID, item.Source.Image))
	progress := subtleStyle.Render(fmt.Sprintf("item %d of %d", reviewed+1, total))

	lines := []string{
		header + "  " + progress,
		"",
		labelStyle.Render("Type:        ") + strings.ToUpper(string(item.Type)),
		labelStyle.Render("Orientation: ") + strings.ToUpper(string(item.Orientation)),
		labelStyle.Render("Confidence:  ") + fmt.Sprintf("%.1f%%", item.Confidence*100),
	}

	if box := item.Source.BoundingBox; box != [4]int{} {
		lines = append(lines, labelStyle.Render("Region:      ")+
			fmt.Sprintf("x=%d y=%d %dx%d", box[0], box[1], box[2], box[3]))
	}

	if item.Confidence < 0.6 {
		lines = append(lines, "", warningStyle.Render("⚠ Low confidence prediction"))
	}

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) pickerView(title string, choices []string, selected int) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(title) + "\n")
	for i, choice := range choices {
		cursor := "  "
		rendered := choice
		if i == selected {
			cursor = "> "
			rendered = selectedStyle.Render(choice)
		}
		b.WriteString(cursor + rendered + "\n")
	}
	b.WriteString(subtleStyle.Render("Enter to confirm, Esc to cancel"))
	return b.String()
}

func (m Model) summaryView() string {
	summary := m.session.Summary()

	content := strings.Join([]string{
		titleStyle.Render("💎 Verification Complete"),
		"",
		fmt.Sprintf("Items:     %d", summary.TotalItems),
		fmt.Sprintf("Correct:   %d", summary.Correct),
		fmt.Sprintf("Corrected: %d", summary.Incorrect),
		fmt.Sprintf("Flagged:   %d", summary.Flagged),
		fmt.Sprintf("Skipped:   %d", summary.Skipped),
		fmt.Sprintf("Accuracy:  %.1f%%", summary.Accuracy()*100),
		fmt.Sprintf("Duration:  %s", summary.Duration.Round(time.Second)),
	}, "\n")

	return cardStyle.Render(content)
}

func orientationNames() []string {
	names := make([]string, len(orientationChoices))
	for i, o := range orientationChoices {
		names[i] = string(o)
	}
	return names
}

func typeNames() []string {
	names := make([]string, len(typeChoices))
	for i, t := range typeChoices {
		names[i] = string(t)
	}
	return names
}
