package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/formatter"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/shared"
	"github.com/desertthunder/farewatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TrackAdd creates a new tracking request from command flags.
func (r *Runner) TrackAdd(ctx context.Context, cmd *cli.Command) error {
	departure, err := time.Parse("2006-01-02", cmd.String("departure"))
	if err != nil {
		return fmt.Errorf("%w: departure must be YYYY-MM-DD", shared.ErrInvalidArgument)
	}

	var returnDate *time.Time
	if ret := cmd.String("return"); ret != "" {
		parsed, err := time.Parse("2006-01-02", ret)
		if err != nil {
			return fmt.Errorf("%w: return must be YYYY-MM-DD", shared.ErrInvalidArgument)
		}
		returnDate = &parsed
	}

	req := models.NewTrackingRequest(cmd.String("origin"), cmd.String("destination"), departure, returnDate, cmd.Int64("chat"))
	if threshold := cmd.Float("threshold"); threshold > 0 {
		req.SetThreshold(threshold)
	}
	if currency := cmd.String("currency"); currency != "" {
		req.SetCurrency(currency)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackingRequestRepository(db)
	if err := repo.Create(req); err != nil {
		if errors.Is(err, shared.ErrDuplicateRequest) {
			return fmt.Errorf("route %s is already being tracked for chat %d", req.Route(), req.TelegramChatID())
		}
		return err
	}

	r.logger.Info("tracking request created", "id", req.ID(), "route", req.Route())
	r.writePlain("✓ Now tracking %s departing %s\n", req.Route(), req.DepartureDate().Format("2006-01-02"))
	r.writePlain("  ID: %s\n", req.ID())
	r.writePlain("  Threshold: %.1f%%\n", req.Threshold())
	r.writePlain("  Expires: %s\n", req.ExpiresAt().Format("2006-01-02 15:04"))
	return nil
}

// TrackList lists tracking requests, optionally filtered by chat or status.
func (r *Runner) TrackList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if chat := cmd.Int64("chat"); chat != 0 {
		criteria["telegram_chat_id"] = chat
	}
	if cmd.Bool("active") {
		criteria["active"] = true
	}

	repo := repositories.NewTrackingRequestRepository(db)
	requests, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		r.writePlain("No tracking requests found.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Tracking Requests (%d)", len(requests)))
	for _, req := range requests {
		status := "active"
		if !req.Active() {
			status = "paused"
		}
		price := "no price yet"
		if current := req.CurrentPrice(); current != nil {
			price = shared.FormatPrice(*current, req.Currency())
		}
		r.writePlain("%s  %s  %s  %s  [%s]\n",
			req.ID(), req.Route(), req.DepartureDate().Format("2006-01-02"), price, status)
	}
	return nil
}

// TrackShow prints the details of a single tracking request.
func (r *Runner) TrackShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackingRequestRepository(db)
	req, err := repo.Get(cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := formatter.ToMetadataJSON(req)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}

	r.writePlainHeader(req.Route())
	r.writePlain("ID: %s\n", req.ID())
	r.writePlain("Departure: %s\n", req.DepartureDate().Format("2006-01-02"))
	if ret := req.ReturnDate(); ret != nil {
		r.writePlain("Return: %s\n", ret.Format("2006-01-02"))
	}
	r.writePlain("Chat: %d\n", req.TelegramChatID())
	if baseline := req.BaselinePrice(); baseline != nil {
		r.writePlain("Baseline: %s\n", shared.FormatPrice(*baseline, req.Currency()))
	}
	if current := req.CurrentPrice(); current != nil {
		r.writePlain("Current: %s\n", shared.FormatPrice(*current, req.Currency()))
	}
	r.writePlain("Threshold: %.1f%%\n", req.Threshold())
	r.writePlain("Active: %t\n", req.Active())
	r.writePlain("Expires: %s\n", req.ExpiresAt().Format("2006-01-02 15:04"))
	return nil
}

// TrackSetActive pauses or resumes a tracking request.
func (r *Runner) TrackSetActive(active bool) func(context.Context, *cli.Command) error {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := r.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		repo := repositories.NewTrackingRequestRepository(db)
		req, err := repo.Get(cmd.String("id"))
		if err != nil {
			return err
		}

		if active && req.Expired(time.Now()) {
			return fmt.Errorf("cannot resume %s: request expired %s", req.ID(), req.ExpiresAt().Format("2006-01-02"))
		}

		req.SetActive(active)
		if err := repo.Update(req); err != nil {
			return err
		}

		verb := "paused"
		if active {
			verb = "resumed"
		}
		r.writePlain("✓ Tracking %s for %s\n", verb, req.Route())
		return nil
	}
}

// TrackDelete soft-deletes a tracking request.
func (r *Runner) TrackDelete(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackingRequestRepository(db)
	if err := repo.Delete(cmd.String("id")); err != nil {
		return err
	}

	r.writePlain("✓ Tracking request deleted\n")
	return nil
}

// TrackPrices prints the recorded price history for a request.
func (r *Runner) TrackPrices(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	requests := repositories.NewTrackingRequestRepository(db)
	req, err := requests.Get(cmd.String("id"))
	if err != nil {
		return err
	}

	prices := repositories.NewPricePointRepository(db)
	points, total, err := prices.ListByRequest(req.ID(), cmd.Int("page"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Price History for %s (%d checks)", req.Route(), total))
	for _, point := range points {
		r.writePlain("%s  %s\n", point.CheckedAt().Format("2006-01-02 15:04"), shared.FormatPrice(point.Price(), point.Currency()))
	}
	return nil
}

// TrackExport writes a request's price history to CSV, Markdown, or plain text.
// With --all, every tracking request is exported concurrently into one directory.
func (r *Runner) TrackExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.trackExportAll(ctx, cmd)
	}
	if cmd.String("id") == "" {
		return fmt.Errorf("%w: --id or --all is required", shared.ErrInvalidFlag)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	requests := repositories.NewTrackingRequestRepository(db)
	req, err := requests.Get(cmd.String("id"))
	if err != nil {
		return err
	}

	prices := repositories.NewPricePointRepository(db)
	points, err := prices.List(map[string]any{"tracking_request_id": req.ID()})
	if err != nil {
		return err
	}

	export := &formatter.PriceHistoryExport{Request: req, Points: points}
	output := cmd.String("output")

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", result.PricesFile)
		r.writePlain("✓ Exported %s\n", result.MetadataFile)
	case "markdown", "md":
		file, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", file)
	case "text", "txt":
		file, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", file)
	default:
		return fmt.Errorf("%w: unknown format %q (want csv, markdown, or text)", shared.ErrInvalidFlag, format)
	}

	return nil
}

// trackExportAll runs a concurrent export of every tracking request.
func (r *Runner) trackExportAll(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.newEngine(db, r.newCache())
	result, err := engine.BulkExport(ctx, nil, nil, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d of %d requests to %s\n", result.SuccessfulExports, result.TotalRequests, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.Route, res.Error)
		}
	}
	r.writePlain("  Manifest: %s\n", result.ManifestPath)
	return nil
}
