package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/repositories"
	"github.com/desertthunder/farewatch/internal/services"
	"github.com/desertthunder/farewatch/internal/shared"
	itesting "github.com/desertthunder/farewatch/internal/testing"
)

// recordingNotifier captures sent messages.
type recordingNotifier struct {
	messages []string
	chats    []int64
	err      error
}

func (r *recordingNotifier) Name() string                      { return "recording" }
func (r *recordingNotifier) Healthy(ctx context.Context) error { return nil }

func (r *recordingNotifier) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.messages = append(r.messages, text)
	r.chats = append(r.chats, chatID)
	return int64(len(r.messages)), nil
}

type fixture struct {
	db            *sql.DB
	engine        *MonitorEngine
	requests      *repositories.TrackingRequestRepository
	prices        *repositories.PricePointRepository
	notifications *repositories.NotificationRepository
	flights       *itesting.StubFlightService
	notifier      *recordingNotifier
}

func setupEngine(t *testing.T, prices []float64) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	f := &fixture{
		db:            db,
		requests:      repositories.NewTrackingRequestRepository(db),
		prices:        repositories.NewPricePointRepository(db),
		notifications: repositories.NewNotificationRepository(db),
		flights:       &itesting.StubFlightService{Prices: prices},
		notifier:      &recordingNotifier{},
	}

	f.engine = NewMonitorEngine(MonitorOpts{
		Requests:      f.requests,
		Prices:        f.prices,
		Notifications: f.notifications,
		Flights:       f.flights,
		Notifier:      f.notifier,
		Cache:         services.NewSearchCache(time.Nanosecond),
	})

	return f
}

func createRequest(t *testing.T, f *fixture) *models.TrackingRequest {
	t.Helper()
	req := models.NewTrackingRequest("JFK", "LAX", time.Now().AddDate(0, 1, 0), nil, 123456789)
	if err := f.requests.Create(req); err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return req
}

func TestMonitorEngineCheckOne(t *testing.T) {
	t.Run("first check sets baseline and announces tracking", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		req := createRequest(t, f)

		result, err := f.engine.CheckOne(context.Background(), req)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}

		if !result.Baseline {
			t.Error("expected first check to establish baseline")
		}
		if !result.Notified {
			t.Error("expected tracking started notification")
		}
		if len(f.notifier.messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(f.notifier.messages))
		}

		stored, err := f.requests.Get(req.ID())
		if err != nil {
			t.Fatalf("failed to reload request: %v", err)
		}
		if stored.BaselinePrice() == nil || *stored.BaselinePrice() != 300 {
			t.Error("baseline price not persisted")
		}
		if stored.CurrentPrice() == nil || *stored.CurrentPrice() != 300 {
			t.Error("current price not persisted")
		}

		_, total, err := f.prices.ListByRequest(req.ID(), 1, 10)
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if total != 1 {
			t.Errorf("expected 1 history row, got %d", total)
		}
	})

	t.Run("change below threshold stays quiet", func(t *testing.T) {
		f := setupEngine(t, []float64{300, 294})
		req := createRequest(t, f)

		if _, err := f.engine.CheckOne(context.Background(), req); err != nil {
			t.Fatalf("first check failed: %v", err)
		}

		result, err := f.engine.CheckOne(context.Background(), req)
		if err != nil {
			t.Fatalf("second check failed: %v", err)
		}

		// 300 -> 294 is a 2% drop against the default 5% threshold
		if result.Notified {
			t.Error("expected no notification below threshold")
		}
		if len(f.notifier.messages) != 1 {
			t.Errorf("expected only the tracking started message, got %d", len(f.notifier.messages))
		}
	})

	t.Run("drop past threshold notifies", func(t *testing.T) {
		f := setupEngine(t, []float64{300, 250})
		req := createRequest(t, f)

		if _, err := f.engine.CheckOne(context.Background(), req); err != nil {
			t.Fatalf("first check failed: %v", err)
		}

		result, err := f.engine.CheckOne(context.Background(), req)
		if err != nil {
			t.Fatalf("second check failed: %v", err)
		}

		if !result.Notified {
			t.Error("expected price drop notification")
		}
		if result.ChangePct > -16 || result.ChangePct < -17 {
			t.Errorf("expected roughly -16.7%% change, got %.1f", result.ChangePct)
		}

		logged, err := f.notifications.List(map[string]any{"kind": string(models.NotificationPriceChange)})
		if err != nil {
			t.Fatalf("failed to list notifications: %v", err)
		}
		if len(logged) != 1 {
			t.Fatalf("expected 1 logged price change, got %d", len(logged))
		}
		if logged[0].Status() != models.StatusSent {
			t.Errorf("expected status sent, got %s", logged[0].Status())
		}
	})

	t.Run("increase past threshold notifies too", func(t *testing.T) {
		f := setupEngine(t, []float64{300, 330})
		req := createRequest(t, f)

		if _, err := f.engine.CheckOne(context.Background(), req); err != nil {
			t.Fatalf("first check failed: %v", err)
		}
		result, err := f.engine.CheckOne(context.Background(), req)
		if err != nil {
			t.Fatalf("second check failed: %v", err)
		}
		if !result.Notified {
			t.Error("expected price increase notification")
		}
	})

	t.Run("fetch failure records audit entry", func(t *testing.T) {
		f := setupEngine(t, nil)
		f.flights.Err = errors.New("upstream down")
		req := createRequest(t, f)

		if _, err := f.engine.CheckOne(context.Background(), req); err == nil {
			t.Fatal("expected error for failed fetch")
		}

		logged, err := f.notifications.List(map[string]any{"kind": string(models.NotificationError)})
		if err != nil {
			t.Fatalf("failed to list notifications: %v", err)
		}
		if len(logged) != 1 {
			t.Errorf("expected 1 error audit entry, got %d", len(logged))
		}
	})

	t.Run("failed delivery is logged as failed", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		f.notifier.err = errors.New("telegram down")
		req := createRequest(t, f)

		result, err := f.engine.CheckOne(context.Background(), req)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if result.Notified {
			t.Error("expected delivery failure")
		}

		logged, err := f.notifications.List(map[string]any{"status": string(models.StatusFailed)})
		if err != nil {
			t.Fatalf("failed to list notifications: %v", err)
		}
		if len(logged) != 1 {
			t.Errorf("expected 1 failed notification, got %d", len(logged))
		}
	})
}

func TestMonitorEngineCheckAll(t *testing.T) {
	t.Run("collects stats across requests", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		createRequest(t, f)

		second := models.NewTrackingRequest("SFO", "SEA", time.Now().AddDate(0, 2, 0), nil, 999)
		if err := f.requests.Create(second); err != nil {
			t.Fatalf("failed to create second request: %v", err)
		}

		stats, err := f.engine.CheckAll(context.Background(), nil)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		if stats.Checked != 2 {
			t.Errorf("expected 2 checked, got %d", stats.Checked)
		}
		if stats.Notifications != 2 {
			t.Errorf("expected 2 tracking started notifications, got %d", stats.Notifications)
		}
		if stats.Errors != 0 {
			t.Errorf("expected no errors, got %d", stats.Errors)
		}
	})

	t.Run("per-request failure does not abort sweep", func(t *testing.T) {
		f := setupEngine(t, nil)
		f.flights.Err = errors.New("upstream down")
		createRequest(t, f)

		stats, err := f.engine.CheckAll(context.Background(), nil)
		if err != nil {
			t.Fatalf("sweep returned error: %v", err)
		}
		if stats.Errors != 1 {
			t.Errorf("expected 1 error, got %d", stats.Errors)
		}
	})

	t.Run("reports progress updates", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		createRequest(t, f)

		progress := make(chan ProgressUpdate, 16)
		if _, err := f.engine.CheckAll(context.Background(), progress); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) < 3 {
			t.Fatalf("expected at least 3 updates, got %d", len(phases))
		}
		if phases[0] != SweepStart {
			t.Errorf("expected sweep_start first, got %s", phases[0])
		}
	})
}

func TestMonitorEngineLifecycle(t *testing.T) {
	t.Run("ExpireDue notifies and deactivates", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		req := createRequest(t, f)

		req.SetExpiresAt(time.Now().Add(-time.Hour))
		if err := f.requests.Update(req); err != nil {
			t.Fatalf("failed to backdate expiry: %v", err)
		}

		count, err := f.engine.ExpireDue(context.Background())
		if err != nil {
			t.Fatalf("expire pass failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 expired request, got %d", count)
		}
		if len(f.notifier.messages) != 1 {
			t.Errorf("expected expiry notification, got %d messages", len(f.notifier.messages))
		}
	})

	t.Run("WarnExpiring warns once", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		req := createRequest(t, f)

		req.SetExpiresAt(time.Now().Add(24 * time.Hour))
		if err := f.requests.Update(req); err != nil {
			t.Fatalf("failed to move expiry: %v", err)
		}

		warned, err := f.engine.WarnExpiring(context.Background())
		if err != nil {
			t.Fatalf("warning pass failed: %v", err)
		}
		if warned != 1 {
			t.Errorf("expected 1 warning, got %d", warned)
		}

		again, err := f.engine.WarnExpiring(context.Background())
		if err != nil {
			t.Fatalf("second warning pass failed: %v", err)
		}
		if again != 0 {
			t.Errorf("expected no repeat warning, got %d", again)
		}
	})

	t.Run("quota blocks delivery", func(t *testing.T) {
		f := setupEngine(t, []float64{300})
		f.engine.dailyQuota = 1
		req := createRequest(t, f)

		// First check consumes the quota with the tracking started message
		if _, err := f.engine.CheckOne(context.Background(), req); err != nil {
			t.Fatalf("check failed: %v", err)
		}

		req.SetExpiresAt(time.Now().Add(-time.Hour))
		if err := f.requests.Update(req); err != nil {
			t.Fatalf("failed to backdate expiry: %v", err)
		}
		if _, err := f.engine.ExpireDue(context.Background()); err != nil {
			t.Fatalf("expire pass failed: %v", err)
		}

		if len(f.notifier.messages) != 1 {
			t.Errorf("expected quota to block second delivery, got %d messages", len(f.notifier.messages))
		}

		blocked, err := f.notifications.List(map[string]any{"status": string(models.StatusFailed)})
		if err != nil {
			t.Fatalf("failed to list notifications: %v", err)
		}
		if len(blocked) != 1 {
			t.Errorf("expected 1 quota-blocked entry, got %d", len(blocked))
		}
	})
}
