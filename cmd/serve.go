package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/server"
	"github.com/desertthunder/farewatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API and the background monitor scheduler.
//
// Shuts down gracefully on SIGINT/SIGTERM, draining in-flight requests
// and waiting for running sweeps to finish.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	requests := repositories.NewTrackingRequestRepository(db)
	prices := repositories.NewPricePointRepository(db)
	cache := r.newCache()
	engine := r.newEngine(db, cache)
	metrics := server.NewMetrics()

	router := server.NewBasicRouter()
	router.Use(
		server.Recover(r.logger),
		server.RequestLogger(r.logger),
		metrics.Middleware(),
		server.CORS(r.config.Server.CORSOrigins),
		server.NewRateLimiter(r.config.Server.RateLimit).Middleware(),
	)

	router.Handler(server.NewTrackingHandler(requests, prices, r.logger, r.config.Monitor.MaxRequestsPerUser))
	router.Handler(server.NewFlightsHandler(r.flights, cache, r.logger))
	router.Handler(server.NewHealthHandler(db, requests, r.flights, r.notifier, r.logger))
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	scheduler := tasks.NewScheduler(r.logger)
	if err := r.registerJobs(scheduler, engine, requests, metrics); err != nil {
		return err
	}

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr, "flights", r.flights.Name(), "notifier", r.notifier.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("server shutdown failed", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		r.logger.Error("scheduler shutdown failed", "error", err)
	}

	r.logger.Info("shutdown complete")
	return nil
}

// registerJobs wires the periodic monitoring work into the scheduler.
func (r *Runner) registerJobs(scheduler *tasks.Scheduler, engine *tasks.MonitorEngine, requests *repositories.TrackingRequestRepository, metrics *server.Metrics) error {
	interval := time.Duration(r.config.Monitor.CheckInterval) * time.Minute
	jitter := time.Duration(r.config.Monitor.Jitter) * time.Second

	jobs := []*tasks.Job{
		{
			Name:     "price-sweep",
			Interval: interval,
			Jitter:   jitter,
			Timeout:  interval,
			Fn: func(ctx context.Context) error {
				stats, err := engine.CheckAll(ctx, nil)
				if err != nil {
					return err
				}
				metrics.SweepsTotal.Inc()
				metrics.ChecksTotal.Add(float64(stats.Checked))
				metrics.CheckErrorsTotal.Add(float64(stats.Errors))
				metrics.NotificationsTotal.WithLabelValues("sweep").Add(float64(stats.Notifications))
				if active, err := requests.ListActive(time.Now()); err == nil {
					metrics.ActiveRequests.Set(float64(len(active)))
				}
				return nil
			},
		},
		{
			Name:       "expire-due",
			Interval:   time.Hour,
			RunOnStart: true,
			Fn: func(ctx context.Context) error {
				expired, err := engine.ExpireDue(ctx)
				if err != nil {
					return err
				}
				metrics.NotificationsTotal.WithLabelValues("expiry").Add(float64(expired))
				return nil
			},
		},
		{
			Name:     "expiry-warnings",
			Interval: 24 * time.Hour,
			Fn: func(ctx context.Context) error {
				warned, err := engine.WarnExpiring(ctx)
				if err != nil {
					return err
				}
				metrics.NotificationsTotal.WithLabelValues("warning").Add(float64(warned))
				return nil
			},
		},
		{
			Name:     "cleanup",
			Interval: 24 * time.Hour,
			Fn: func(ctx context.Context) error {
				_, err := engine.CleanupOld(ctx)
				return err
			},
		},
	}

	for _, job := range jobs {
		if err := scheduler.Add(job); err != nil {
			return fmt.Errorf("failed to register job %q: %w", job.Name, err)
		}
	}

	return nil
}
