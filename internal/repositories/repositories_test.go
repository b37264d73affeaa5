package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testRequest(t *testing.T) *models.TrackingRequest {
	t.Helper()
	departure := time.Now().AddDate(0, 1, 0)
	return models.NewTrackingRequest("JFK", "LAX", departure, nil, 123456789)
}

func mustCreateRequest(t *testing.T, db *sql.DB) *models.TrackingRequest {
	t.Helper()
	repo := NewTrackingRequestRepository(db)
	req := testRequest(t)
	if err := repo.Create(req); err != nil {
		t.Fatalf("failed to create tracking request: %v", err)
	}
	return req
}

func TestTrackingRequestRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)

		if req.ID() == "" {
			t.Error("request ID should be set after creation")
		}
		if req.Sequence() == 0 {
			t.Error("request sequence should be set after creation")
		}
	})

	t.Run("Create rejects duplicate active request", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		first := testRequest(t)
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create first request: %v", err)
		}

		dup := models.NewTrackingRequest(first.Origin(), first.Destination(), first.DepartureDate(), nil, first.TelegramChatID())
		err := repo.Create(dup)
		if !errors.Is(err, shared.ErrDuplicateRequest) {
			t.Errorf("expected ErrDuplicateRequest, got: %v", err)
		}
	})

	t.Run("Create allows duplicate route after deactivation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		first := testRequest(t)
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create first request: %v", err)
		}

		first.SetActive(false)
		if err := repo.Update(first); err != nil {
			t.Fatalf("failed to deactivate request: %v", err)
		}

		second := models.NewTrackingRequest(first.Origin(), first.Destination(), first.DepartureDate(), nil, first.TelegramChatID())
		if err := repo.Create(second); err != nil {
			t.Errorf("expected new request after deactivation, got: %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		retrieved, err := repo.Get(req.ID())
		if err != nil {
			t.Fatalf("failed to get request: %v", err)
		}

		if retrieved.ID() != req.ID() {
			t.Errorf("expected ID %s, got %s", req.ID(), retrieved.ID())
		}
		if retrieved.Route() != "JFK-LAX" {
			t.Errorf("expected route JFK-LAX, got %s", retrieved.Route())
		}
		if retrieved.TelegramChatID() != req.TelegramChatID() {
			t.Errorf("expected chat id %d, got %d", req.TelegramChatID(), retrieved.TelegramChatID())
		}
	})

	t.Run("Get missing returns ErrRequestNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		_, err := repo.Get("nonexistent")
		if !errors.Is(err, shared.ErrRequestNotFound) {
			t.Errorf("expected ErrRequestNotFound, got: %v", err)
		}
	})

	t.Run("Update persists prices", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		baseline, current := 300.0, 280.0
		req.SetBaselinePrice(&baseline)
		req.SetCurrentPrice(&current)
		if err := repo.Update(req); err != nil {
			t.Fatalf("failed to update request: %v", err)
		}

		retrieved, err := repo.Get(req.ID())
		if err != nil {
			t.Fatalf("failed to get request: %v", err)
		}
		if retrieved.BaselinePrice() == nil || *retrieved.BaselinePrice() != baseline {
			t.Error("baseline price not persisted")
		}
		if retrieved.CurrentPrice() == nil || *retrieved.CurrentPrice() != current {
			t.Error("current price not persisted")
		}
	})

	t.Run("Delete soft-deletes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		if err := repo.Delete(req.ID()); err != nil {
			t.Fatalf("failed to delete request: %v", err)
		}

		if _, err := repo.Get(req.ID()); err == nil {
			t.Error("expected error when getting deleted request")
		}
	})

	t.Run("List filters by chat id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		if err := repo.Create(testRequest(t)); err != nil {
			t.Fatalf("failed to create request: %v", err)
		}

		other := models.NewTrackingRequest("SFO", "SEA", time.Now().AddDate(0, 2, 0), nil, 999)
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create second request: %v", err)
		}

		results, err := repo.List(map[string]any{"telegram_chat_id": int64(999)})
		if err != nil {
			t.Fatalf("failed to list requests: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 request, got %d", len(results))
		}
		if results[0].Route() != "SFO-SEA" {
			t.Errorf("expected route SFO-SEA, got %s", results[0].Route())
		}
	})

	t.Run("ListActive excludes inactive and expired", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		active := mustCreateRequest(t, db)

		paused := models.NewTrackingRequest("SFO", "SEA", time.Now().AddDate(0, 2, 0), nil, 999)
		if err := repo.Create(paused); err != nil {
			t.Fatalf("failed to create paused request: %v", err)
		}
		paused.SetActive(false)
		if err := repo.Update(paused); err != nil {
			t.Fatalf("failed to pause request: %v", err)
		}

		results, err := repo.ListActive(time.Now())
		if err != nil {
			t.Fatalf("failed to list active requests: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 active request, got %d", len(results))
		}
		if results[0].ID() != active.ID() {
			t.Errorf("expected active request %s, got %s", active.ID(), results[0].ID())
		}
	})

	t.Run("ExpireDue deactivates and returns expired requests", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		// Push expiry into the past
		req.SetExpiresAt(time.Now().Add(-time.Hour))
		if err := repo.Update(req); err != nil {
			t.Fatalf("failed to backdate expiry: %v", err)
		}

		expired, err := repo.ExpireDue(time.Now())
		if err != nil {
			t.Fatalf("failed to expire requests: %v", err)
		}
		if len(expired) != 1 {
			t.Fatalf("expected 1 expired request, got %d", len(expired))
		}

		retrieved, err := repo.Get(req.ID())
		if err != nil {
			t.Fatalf("failed to get request: %v", err)
		}
		if retrieved.Active() {
			t.Error("expired request should be inactive")
		}

		// Second pass finds nothing
		again, err := repo.ExpireDue(time.Now())
		if err != nil {
			t.Fatalf("second expire pass failed: %v", err)
		}
		if len(again) != 0 {
			t.Errorf("expected no requests on second pass, got %d", len(again))
		}
	})

	t.Run("DeleteInactiveBefore removes stale rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		req.SetActive(false)
		if err := repo.Update(req); err != nil {
			t.Fatalf("failed to deactivate request: %v", err)
		}

		deleted, err := repo.DeleteInactiveBefore(time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to delete inactive requests: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 deleted request, got %d", deleted)
		}
	})

	t.Run("CountActive", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)

		count, err := repo.CountActive(req.TelegramChatID())
		if err != nil {
			t.Fatalf("failed to count active requests: %v", err)
		}
		if count != 1 {
			t.Errorf("expected count 1, got %d", count)
		}
	})
}

func TestPricePointRepository(t *testing.T) {
	t.Run("Create and Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewPricePointRepository(db)

		first := models.NewPricePoint(req.ID(), 300.00, "USD")
		first.SetCheckedAt(time.Now().Add(-time.Hour))
		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create price point: %v", err)
		}

		second := models.NewPricePoint(req.ID(), 280.00, "USD")
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second price point: %v", err)
		}

		latest, err := repo.Latest(req.ID())
		if err != nil {
			t.Fatalf("failed to get latest price: %v", err)
		}
		if latest == nil {
			t.Fatal("expected a latest price point")
		}
		if latest.Price() != 280.00 {
			t.Errorf("expected latest price 280.00, got %.2f", latest.Price())
		}
	})

	t.Run("Latest with no history returns nil", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewPricePointRepository(db)

		latest, err := repo.Latest(req.ID())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if latest != nil {
			t.Error("expected nil for empty history")
		}
	})

	t.Run("Create rejects unknown request", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPricePointRepository(db)
		point := models.NewPricePoint("missing-request", 100, "USD")
		if err := repo.Create(point); err == nil {
			t.Error("expected foreign key error for unknown request")
		}
	})

	t.Run("ListByRequest paginates newest first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewPricePointRepository(db)

		for i := 0; i < 5; i++ {
			point := models.NewPricePoint(req.ID(), 300.00+float64(i), "USD")
			point.SetCheckedAt(time.Now().Add(time.Duration(-5+i) * time.Minute))
			if err := repo.Create(point); err != nil {
				t.Fatalf("failed to create price point %d: %v", i, err)
			}
		}

		page, total, err := repo.ListByRequest(req.ID(), 1, 2)
		if err != nil {
			t.Fatalf("failed to list price points: %v", err)
		}
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
		if len(page) != 2 {
			t.Fatalf("expected 2 price points, got %d", len(page))
		}
		if page[0].Price() != 304.00 {
			t.Errorf("expected newest price 304.00 first, got %.2f", page[0].Price())
		}

		lastPage, _, err := repo.ListByRequest(req.ID(), 3, 2)
		if err != nil {
			t.Fatalf("failed to list last page: %v", err)
		}
		if len(lastPage) != 1 {
			t.Errorf("expected 1 price point on last page, got %d", len(lastPage))
		}
	})

	t.Run("Cascade delete with request", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		reqRepo := NewTrackingRequestRepository(db)
		req := mustCreateRequest(t, db)
		repo := NewPricePointRepository(db)

		point := models.NewPricePoint(req.ID(), 300, "USD")
		if err := repo.Create(point); err != nil {
			t.Fatalf("failed to create price point: %v", err)
		}

		req.SetActive(false)
		if err := reqRepo.Update(req); err != nil {
			t.Fatalf("failed to deactivate request: %v", err)
		}
		if _, err := reqRepo.DeleteInactiveBefore(time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("failed to hard delete request: %v", err)
		}

		_, total, err := repo.ListByRequest(req.ID(), 1, 10)
		if err != nil {
			t.Fatalf("failed to list price points: %v", err)
		}
		if total != 0 {
			t.Errorf("expected history to cascade, got %d rows", total)
		}
	})
}

func TestNotificationRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewNotificationRepository(db)

		n := models.NewNotification(req.ID(), models.NotificationTrackingStarted, "Tracking started for JFK-LAX")
		if err := repo.Create(n); err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}

		retrieved, err := repo.Get(n.ID())
		if err != nil {
			t.Fatalf("failed to get notification: %v", err)
		}
		if retrieved.Kind() != models.NotificationTrackingStarted {
			t.Errorf("expected kind tracking_started, got %s", retrieved.Kind())
		}
		if retrieved.Status() != models.StatusPending {
			t.Errorf("expected status pending, got %s", retrieved.Status())
		}
	})

	t.Run("Update delivery state", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewNotificationRepository(db)

		n := models.NewNotification(req.ID(), models.NotificationTrackingStarted, "started")
		if err := repo.Create(n); err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}

		n.MarkSent(4242)
		if err := repo.Update(n); err != nil {
			t.Fatalf("failed to update notification: %v", err)
		}

		retrieved, err := repo.Get(n.ID())
		if err != nil {
			t.Fatalf("failed to get notification: %v", err)
		}
		if retrieved.Status() != models.StatusSent {
			t.Errorf("expected status sent, got %s", retrieved.Status())
		}
		if retrieved.TelegramMessageID() == nil || *retrieved.TelegramMessageID() != 4242 {
			t.Error("expected telegram message id 4242")
		}
	})

	t.Run("List filters by kind", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewNotificationRepository(db)

		started := models.NewNotification(req.ID(), models.NotificationTrackingStarted, "started")
		if err := repo.Create(started); err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}

		oldPrice, newPrice := 300.0, 250.0
		change := models.NewNotification(req.ID(), models.NotificationPriceChange, "price dropped")
		change.SetPrices(&oldPrice, &newPrice)
		if err := repo.Create(change); err != nil {
			t.Fatalf("failed to create price change notification: %v", err)
		}

		results, err := repo.List(map[string]any{"kind": string(models.NotificationPriceChange)})
		if err != nil {
			t.Fatalf("failed to list notifications: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(results))
		}
		if results[0].NewPrice() == nil || *results[0].NewPrice() != 250.0 {
			t.Error("expected new price 250.0")
		}
	})

	t.Run("CountSentSince enforces quota window", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		req := mustCreateRequest(t, db)
		repo := NewNotificationRepository(db)

		sent := models.NewNotification(req.ID(), models.NotificationTrackingStarted, "started")
		if err := repo.Create(sent); err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}
		sent.MarkSent(1)
		if err := repo.Update(sent); err != nil {
			t.Fatalf("failed to mark sent: %v", err)
		}

		pending := models.NewNotification(req.ID(), models.NotificationError, "check failed")
		if err := repo.Create(pending); err != nil {
			t.Fatalf("failed to create pending notification: %v", err)
		}

		count, err := repo.CountSentSince(req.TelegramChatID(), time.Now().Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to count notifications: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 sent notification, got %d", count)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "tracking_requests")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "tracking_requests")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence to increment from %d, got %d", first, second)
	}
}
