package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/shared"
	"github.com/desertthunder/farewatch/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing tracked routes.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.flights == nil {
		return fmt.Errorf("%w: flight service not initialized", shared.ErrServiceUnavailable)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/farewatch-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	requests := repositories.NewTrackingRequestRepository(db)
	prices := repositories.NewPricePointRepository(db)
	engine := r.newEngine(db, r.newCache())

	model := ui.NewModel(ctx, requests, prices, engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
