package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gemlens/facet/internal/session"
)

// Run drives the session through the full-screen interface until completion,
// quit, or context cancellation. onRecord may be nil for dry runs.
func Run(ctx context.Context, s *session.Session, onRecord RecordFunc) error {
	if s == nil {
		return fmt.Errorf("session is required")
	}

	// Restore the terminal even if bubbletea bails out mid-render.
	cleanupTerminal := func() {
		_, _ = os.Stdout.Write([]byte("\033[?1049l")) // Exit alternate screen
		_, _ = os.Stdout.Write([]byte("\033[?25h"))   // Show cursor
		_, _ = os.Stdout.Write([]byte("\033[m"))      // Reset colors
	}
	defer cleanupTerminal()

	program := tea.NewProgram(
		newModel(ctx, s, onRecord),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("review interface failed: %w", err)
	}
	return nil
}
