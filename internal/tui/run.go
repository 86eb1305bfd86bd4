package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/runway/internal/variance"
)

// Run opens the editor in the alternate screen and blocks until the user
// quits or ctx is canceled. Unsaved edits are dropped with the sandbox.
func Run(ctx context.Context, sandbox *variance.Sandbox, opts ...Option) error {
	m, err := New(ctx, sandbox, opts...)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("sandbox editor failed: %w", err)
	}

	if fm, ok := final.(Model); ok && fm.sandbox.HasChanges() {
		slog.Info("discarded unsaved sandbox edits",
			"dataset", fm.baseID,
			"changes", len(fm.sandbox.Changes()))
	}
	return nil
}
