package main

import (
	"context"

	"github.com/desertthunder/farewatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Check runs a single monitoring sweep with progress output.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.newEngine(db, r.newCache())

	if cmd.Bool("expire") {
		expired, err := engine.ExpireDue(ctx)
		if err != nil {
			return err
		}
		r.writePlain("Expired %d requests\n", expired)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.SweepStart:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.CheckRequest:
				r.writePlain("   %s\n", update.Message)
			case tasks.CheckDone, tasks.CheckFailed:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	stats, err := engine.CheckAll(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sweep Complete")
	r.writePlain("Checked: %d\n", stats.Checked)
	r.writePlain("Price changes: %d\n", stats.PriceChanges)
	r.writePlain("Notifications: %d\n", stats.Notifications)
	if stats.Errors > 0 {
		r.writePlain("Errors: %d\n", stats.Errors)
	}
	return nil
}
