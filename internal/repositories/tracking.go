package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// TrackingRequestRepository implements models.Repository[*models.TrackingRequest].
//
// Handles CRUD for tracking requests with soft delete support, duplicate
// detection among active requests, and expiry bookkeeping for the monitor.
type TrackingRequestRepository struct {
	db *sql.DB
}

// NewTrackingRequestRepository creates a new TrackingRequestRepository with the given database connection
func NewTrackingRequestRepository(db *sql.DB) *TrackingRequestRepository {
	return &TrackingRequestRepository{db: db}
}

const trackingColumns = `id, sequence, origin, destination, departure_date, return_date,
		telegram_chat_id, baseline_price, current_price, threshold, currency,
		active, expires_at, created_at, updated_at, deleted_at`

// Create inserts a new [models.TrackingRequest] into the database with generated ID and sequence.
//
// Rejects requests duplicating an active request for the same route, dates, and chat.
func (r *TrackingRequestRepository) Create(req *models.TrackingRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	existing, err := r.FindDuplicate(req)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: route %s already tracked for chat %d", shared.ErrDuplicateRequest, req.Route(), req.TelegramChatID())
	}

	sequence, err := NextSequence(r.db, "tracking_requests")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	req.SetID(id)
	req.SetSequence(sequence)

	query := `
		INSERT INTO tracking_requests (id, sequence, origin, destination, departure_date, return_date,
			telegram_chat_id, baseline_price, current_price, threshold, currency, active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		req.Origin(),
		req.Destination(),
		req.DepartureDate(),
		nullableTime(req.ReturnDate()),
		req.TelegramChatID(),
		nullableFloat(req.BaselinePrice()),
		nullableFloat(req.CurrentPrice()),
		req.Threshold(),
		req.Currency(),
		req.Active(),
		req.ExpiresAt(),
		req.CreatedAt(),
		req.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking request: %w", err)
	}

	return nil
}

// Get retrieves a tracking request by ID, excluding soft-deleted rows
func (r *TrackingRequestRepository) Get(id string) (*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE id = ? AND deleted_at IS NULL
	`, trackingColumns)

	req, err := r.scanOne(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrRequestNotFound, id)
	}
	return req, err
}

// FindDuplicate looks for an active request with the same route, dates, and chat id.
// Returns nil when no duplicate exists.
func (r *TrackingRequestRepository) FindDuplicate(req *models.TrackingRequest) (*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE origin = ? AND destination = ? AND departure_date = ?
			AND telegram_chat_id = ? AND active = 1 AND deleted_at IS NULL
	`, trackingColumns)

	args := []any{req.Origin(), req.Destination(), req.DepartureDate(), req.TelegramChatID()}
	if req.ReturnDate() != nil {
		query += " AND return_date = ?"
		args = append(args, *req.ReturnDate())
	} else {
		query += " AND return_date IS NULL"
	}

	match, err := r.scanOne(r.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return match, nil
}

// Update modifies an existing tracking request in the database
func (r *TrackingRequestRepository) Update(req *models.TrackingRequest) error {
	now := time.Now()
	req.SetUpdatedAt(now)

	query := `
		UPDATE tracking_requests
		SET baseline_price = ?, current_price = ?, threshold = ?, currency = ?, active = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullableFloat(req.BaselinePrice()),
		nullableFloat(req.CurrentPrice()),
		req.Threshold(),
		req.Currency(),
		req.Active(),
		req.ExpiresAt(),
		now,
		req.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update tracking request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRequestNotFound, req.ID())
	}

	return nil
}

// Delete soft-deletes a tracking request by ID
func (r *TrackingRequestRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracking_requests
		SET deleted_at = ?, active = 0
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete tracking request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRequestNotFound, id)
	}

	return nil
}

// List retrieves all tracking requests matching the given criteria, excluding soft-deleted rows.
//
// Supported criteria: "telegram_chat_id" (int64), "active" (bool), "limit" and "offset" (int).
func (r *TrackingRequestRepository) List(criteria map[string]any) ([]*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE deleted_at IS NULL
	`, trackingColumns)

	args := []any{}

	if chatID, ok := criteria["telegram_chat_id"].(int64); ok && chatID != 0 {
		query += " AND telegram_chat_id = ?"
		args = append(args, chatID)
	}

	if active, ok := criteria["active"].(bool); ok {
		query += " AND active = ?"
		args = append(args, active)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset, ok := criteria["offset"].(int); ok && offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracking requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.TrackingRequest
	for rows.Next() {
		req, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return requests, nil
}

// ListActive retrieves all active, unexpired tracking requests for the monitor.
func (r *TrackingRequestRepository) ListActive(now time.Time) ([]*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE active = 1 AND expires_at > ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`, trackingColumns)

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.TrackingRequest
	for rows.Next() {
		req, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return requests, nil
}

// ListExpiring retrieves active requests whose expiry falls inside the window.
func (r *TrackingRequestRepository) ListExpiring(from, to time.Time) ([]*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE active = 1 AND expires_at > ? AND expires_at <= ? AND deleted_at IS NULL
		ORDER BY expires_at ASC
	`, trackingColumns)

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.TrackingRequest
	for rows.Next() {
		req, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return requests, nil
}

// ExpireDue marks active requests whose expiry has passed as inactive
// and returns the expired requests for notification.
func (r *TrackingRequestRepository) ExpireDue(now time.Time) ([]*models.TrackingRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tracking_requests
		WHERE active = 1 AND expires_at <= ? AND deleted_at IS NULL
	`, trackingColumns)

	rows, err := r.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired requests: %w", err)
	}
	defer rows.Close()

	var expired []*models.TrackingRequest
	for rows.Next() {
		req, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(expired) == 0 {
		return nil, nil
	}

	update := `
		UPDATE tracking_requests
		SET active = 0, updated_at = ?
		WHERE active = 1 AND expires_at <= ? AND deleted_at IS NULL
	`
	if _, err := r.db.Exec(update, now, now); err != nil {
		return nil, fmt.Errorf("failed to deactivate expired requests: %w", err)
	}

	for _, req := range expired {
		req.SetActive(false)
	}

	return expired, nil
}

// DeleteInactiveBefore hard-deletes inactive requests last updated before the cutoff.
// Price history and notifications cascade via foreign keys.
func (r *TrackingRequestRepository) DeleteInactiveBefore(cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM tracking_requests
		WHERE active = 0 AND updated_at < ?
	`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive requests: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// CountActive returns the number of active requests for a chat.
func (r *TrackingRequestRepository) CountActive(chatID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM tracking_requests
		WHERE telegram_chat_id = ? AND active = 1 AND deleted_at IS NULL
	`
	if err := r.db.QueryRow(query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active requests: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest scans a row into a [models.TrackingRequest]
func scanRequest(row rowScanner) (*models.TrackingRequest, error) {
	var (
		id            string
		sequence      int
		origin        string
		destination   string
		departureDate time.Time
		returnDate    sql.NullTime
		chatID        int64
		baselinePrice sql.NullFloat64
		currentPrice  sql.NullFloat64
		threshold     float64
		currency      string
		active        bool
		expiresAt     time.Time
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &origin, &destination, &departureDate, &returnDate,
		&chatID, &baselinePrice, &currentPrice, &threshold, &currency,
		&active, &expiresAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	var ret *time.Time
	if returnDate.Valid {
		ret = &returnDate.Time
	}

	req := models.NewTrackingRequest(origin, destination, departureDate, ret, chatID)
	req.SetID(id)
	req.SetSequence(sequence)
	req.SetThreshold(threshold)
	req.SetCurrency(currency)
	req.SetActive(active)
	req.SetExpiresAt(expiresAt)
	req.SetCreatedAt(createdAt)
	req.SetUpdatedAt(updatedAt)

	if baselinePrice.Valid {
		req.SetBaselinePrice(&baselinePrice.Float64)
	}
	if currentPrice.Valid {
		req.SetCurrentPrice(&currentPrice.Float64)
	}
	if deletedAt.Valid {
		req.SetDeletedAt(&deletedAt.Time)
	}

	return req, nil
}

// scanOne scans a single [sql.Row] into a [models.TrackingRequest]
func (r *TrackingRequestRepository) scanOne(row *sql.Row) (*models.TrackingRequest, error) {
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tracking request: %w", err)
	}
	return req, nil
}

// scanRow scans a row from [sql.Rows] into a [models.TrackingRequest]
func (r *TrackingRequestRepository) scanRow(rows *sql.Rows) (*models.TrackingRequest, error) {
	req, err := scanRequest(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tracking request: %w", err)
	}
	return req, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
