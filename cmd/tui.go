package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/storysounds/internal/shared"
	"github.com/desertthunder/storysounds/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/storysounds-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.pipeline()
	if err != nil {
		return err
	}

	var history ui.History
	if err := r.openStore(); err != nil {
		r.logger.Warn("history unavailable", "error", err)
	} else {
		history = r.runs
	}

	p := tea.NewProgram(ui.NewModel(ctx, engine, history), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
