// package tasks implements price monitoring operations over tracking requests.
//
// The core abstraction is MonitorEngine, which orchestrates price sweeps, expiry handling, and cleanup.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
)

const (
	// expiryWarningWindow is how far ahead of expiry users are warned.
	expiryWarningWindow = 48 * time.Hour

	// cleanupAge is how long inactive requests are kept before hard deletion.
	cleanupAge = 30 * 24 * time.Hour
)

// SweepStats summarizes a full monitoring sweep.
type SweepStats struct {
	Checked       int // Requests checked
	PriceChanges  int // Requests whose price moved past the threshold
	Notifications int // Notifications delivered
	Errors        int // Requests that failed to check
}

// CheckResult contains the outcome of checking a single request.
type CheckResult struct {
	Request   *models.TrackingRequest
	Quote     *services.PriceQuote
	ChangePct float64 // Percent change against the previous price (0 on first check)
	Notified  bool    // Whether a notification was sent
	Baseline  bool    // Whether this check established the baseline
}

// Monitor defines operations for sweeping tracking requests.
type Monitor interface {
	// CheckAll sweeps every active, unexpired request. Per-request failures are
	// counted and do not abort the sweep.
	CheckAll(ctx context.Context, progress chan<- ProgressUpdate) (*SweepStats, error)

	// CheckOne fetches the current price for a single request, records history,
	// and notifies when the change exceeds the request's threshold.
	CheckOne(ctx context.Context, req *models.TrackingRequest) (*CheckResult, error)

	// ExpireDue deactivates requests past their expiry and notifies their owners.
	ExpireDue(ctx context.Context) (int, error)

	// WarnExpiring notifies owners of requests expiring within the warning window.
	WarnExpiring(ctx context.Context) (int, error)

	// CleanupOld hard-deletes inactive requests older than the retention period.
	CleanupOld(ctx context.Context) (int64, error)
}

// MonitorEngine implements Monitor over the repositories and external services.
type MonitorEngine struct {
	requests      *repositories.TrackingRequestRepository
	prices        *repositories.PricePointRepository
	notifications *repositories.NotificationRepository
	flights       services.FlightService
	notifier      services.Notifier
	cache         *services.SearchCache
	logger        *log.Logger

	// dailyQuota caps sent notifications per chat per day. Zero disables the cap.
	dailyQuota int
}

// MonitorOpts contains dependencies for creating a MonitorEngine.
type MonitorOpts struct {
	Requests      *repositories.TrackingRequestRepository
	Prices        *repositories.PricePointRepository
	Notifications *repositories.NotificationRepository
	Flights       services.FlightService
	Notifier      services.Notifier
	Cache         *services.SearchCache
	Logger        *log.Logger
	DailyQuota    int
}

// NewMonitorEngine creates a new MonitorEngine with the provided dependencies.
func NewMonitorEngine(opts MonitorOpts) *MonitorEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Cache == nil {
		opts.Cache = services.NewSearchCache(0)
	}

	return &MonitorEngine{
		requests:      opts.Requests,
		prices:        opts.Prices,
		notifications: opts.Notifications,
		flights:       opts.Flights,
		notifier:      opts.Notifier,
		cache:         opts.Cache,
		logger:        opts.Logger,
		dailyQuota:    opts.DailyQuota,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MonitorEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// CheckAll sweeps every active, unexpired request.
func (e *MonitorEngine) CheckAll(ctx context.Context, progress chan<- ProgressUpdate) (*SweepStats, error) {
	if e.flights == nil {
		return nil, fmt.Errorf("%w: flight service not initialized", shared.ErrServiceUnavailable)
	}

	active, err := e.requests.ListActive(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active requests: %w", err)
	}

	stats := &SweepStats{}
	total := len(active)
	e.sendProgress(progress, sweepStartedUpdate(total))

	for i, req := range active {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		e.sendProgress(progress, checkingRequestUpdate(i+1, total, req))

		result, err := e.CheckOne(ctx, req)
		stats.Checked++
		if err != nil {
			stats.Errors++
			e.logger.Error("price check failed", "request", req.ID(), "route", req.Route(), "error", err)
			e.sendProgress(progress, checkFailedUpdate(i+1, total, req, err))
			continue
		}

		if result.ChangePct != 0 && !result.Baseline {
			stats.PriceChanges++
		}
		if result.Notified {
			stats.Notifications++
		}

		e.sendProgress(progress, checkCompletedUpdate(i+1, total, result))
	}

	e.logger.Info("sweep finished",
		"checked", stats.Checked,
		"changes", stats.PriceChanges,
		"notifications", stats.Notifications,
		"errors", stats.Errors,
	)

	return stats, nil
}

// CheckOne fetches the current price for a request, records it, and notifies on
// significant movement. The first observed price becomes the baseline.
func (e *MonitorEngine) CheckOne(ctx context.Context, req *models.TrackingRequest) (*CheckResult, error) {
	params := services.SearchParams{
		Origin:      req.Origin(),
		Destination: req.Destination(),
		Departure:   req.DepartureDate(),
		Return:      req.ReturnDate(),
		Currency:    req.Currency(),
	}

	quote, err := e.fetchQuote(ctx, params)
	if err != nil {
		e.recordError(ctx, req)
		return nil, fmt.Errorf("%w: %v", shared.ErrPriceNotAvailable, err)
	}

	point := models.NewPricePoint(req.ID(), quote.Price, quote.Currency)
	point.SetBookingURL(quote.BookingURL)
	point.SetCheckedAt(quote.CheckedAt)
	if data, err := shared.MarshalJSON(quote, false); err == nil {
		point.SetSourceData(string(data))
	}
	if err := e.prices.Create(point); err != nil {
		return nil, fmt.Errorf("failed to record price: %w", err)
	}

	result := &CheckResult{Request: req, Quote: quote}

	previous := req.CurrentPrice()
	if req.BaselinePrice() == nil {
		// First observation establishes the baseline and announces tracking
		result.Baseline = true
		req.SetBaselinePrice(&quote.Price)

		msg := services.TrackingStartedMessage(req.Origin(), req.Destination(), req.DepartureDate(), quote.Price, quote.Currency)
		result.Notified = e.deliver(ctx, req, models.NewNotification(req.ID(), models.NotificationTrackingStarted, msg))
	} else if previous != nil && *previous > 0 {
		changePct := (quote.Price - *previous) / *previous * 100
		result.ChangePct = changePct

		if abs(changePct) >= req.Threshold() {
			msg := services.PriceChangeMessage(req.Origin(), req.Destination(), *previous, quote.Price, changePct, quote.Currency, quote.BookingURL)
			n := models.NewNotification(req.ID(), models.NotificationPriceChange, msg)
			n.SetPrices(previous, &quote.Price)
			result.Notified = e.deliver(ctx, req, n)
		}
	}

	req.SetCurrentPrice(&quote.Price)
	if err := e.requests.Update(req); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	return result, nil
}

// ExpireDue deactivates expired requests and notifies their owners.
func (e *MonitorEngine) ExpireDue(ctx context.Context) (int, error) {
	expired, err := e.requests.ExpireDue(time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire requests: %w", err)
	}

	for _, req := range expired {
		msg := services.TrackingExpiredMessage(req.Origin(), req.Destination(), req.DepartureDate())
		e.deliver(ctx, req, models.NewNotification(req.ID(), models.NotificationTrackingExpired, msg))
	}

	if len(expired) > 0 {
		e.logger.Info("expired tracking requests", "count", len(expired))
	}

	return len(expired), nil
}

// WarnExpiring notifies owners of requests expiring within the warning window.
// Each request is warned at most once.
func (e *MonitorEngine) WarnExpiring(ctx context.Context) (int, error) {
	now := time.Now()
	expiring, err := e.requests.ListExpiring(now, now.Add(expiryWarningWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring requests: %w", err)
	}

	warned := 0
	for _, req := range expiring {
		already, err := e.notifications.List(map[string]any{
			"tracking_request_id": req.ID(),
			"kind":                string(models.NotificationExpiryWarning),
		})
		if err != nil {
			e.logger.Error("failed to check warning history", "request", req.ID(), "error", err)
			continue
		}
		if len(already) > 0 {
			continue
		}

		msg := services.ExpiryWarningMessage(req.Origin(), req.Destination(), req.ExpiresAt())
		if e.deliver(ctx, req, models.NewNotification(req.ID(), models.NotificationExpiryWarning, msg)) {
			warned++
		}
	}

	return warned, nil
}

// CleanupOld hard-deletes inactive requests past the retention period.
func (e *MonitorEngine) CleanupOld(ctx context.Context) (int64, error) {
	deleted, err := e.requests.DeleteInactiveBefore(time.Now().Add(-cleanupAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up requests: %w", err)
	}

	if deleted > 0 {
		e.logger.Info("cleaned up inactive requests", "count", deleted)
	}

	return deleted, nil
}

// fetchQuote returns the current lowest fare, preferring cached search results.
func (e *MonitorEngine) fetchQuote(ctx context.Context, params services.SearchParams) (*services.PriceQuote, error) {
	if offers, ok := e.cache.Get(params); ok {
		return lowestCached(offers, e.flights.Name())
	}

	offers, err := e.flights.SearchFlights(ctx, params)
	if err != nil {
		return nil, err
	}
	e.cache.Put(params, offers)

	return lowestCached(offers, e.flights.Name())
}

// deliver sends a notification, honoring the daily quota, and logs the attempt.
// Returns true when the message was delivered.
func (e *MonitorEngine) deliver(ctx context.Context, req *models.TrackingRequest, n *models.Notification) bool {
	if e.notifier == nil {
		return false
	}

	if e.dailyQuota > 0 {
		sent, err := e.notifications.CountSentSince(req.TelegramChatID(), time.Now().Add(-24*time.Hour))
		if err == nil && sent >= e.dailyQuota {
			n.MarkFailed(shared.ErrNotificationQuota)
			if err := e.notifications.Create(n); err != nil {
				e.logger.Error("failed to log notification", "request", req.ID(), "error", err)
			}
			e.logger.Warn("notification quota reached", "chat", req.TelegramChatID())
			return false
		}
	}

	messageID, sendErr := e.notifier.Send(ctx, req.TelegramChatID(), n.Message())
	if sendErr != nil {
		n.MarkFailed(sendErr)
		e.logger.Error("notification failed", "request", req.ID(), "error", sendErr)
	} else {
		n.MarkSent(messageID)
	}

	if err := e.notifications.Create(n); err != nil {
		e.logger.Error("failed to log notification", "request", req.ID(), "error", err)
	}

	return sendErr == nil
}

// recordError logs a failed check to the notification audit trail without
// messaging the user. Repeated fetch failures stay visible in the log table.
func (e *MonitorEngine) recordError(ctx context.Context, req *models.TrackingRequest) {
	n := models.NewNotification(req.ID(), models.NotificationError, services.ErrorMessage(req.Origin(), req.Destination()))
	n.MarkFailed(shared.ErrPriceNotAvailable)
	if err := e.notifications.Create(n); err != nil {
		e.logger.Error("failed to log check error", "request", req.ID(), "error", err)
	}
}

func lowestCached(offers []services.FlightOffer, source string) (*services.PriceQuote, error) {
	if len(offers) == 0 {
		return nil, shared.ErrNoOffers
	}

	best := offers[0]
	for _, offer := range offers[1:] {
		if offer.Price < best.Price {
			best = offer
		}
	}

	return &services.PriceQuote{
		Price:      best.Price,
		Currency:   best.Currency,
		Carrier:    best.Carrier,
		BookingURL: best.BookingURL,
		Source:     source,
		CheckedAt:  time.Now(),
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
