package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// PricePointRepository implements models.Repository[*models.PricePoint].
//
// Price points are append-only; Update and Delete exist to satisfy the
// repository interface but history rows are never modified after insertion.
type PricePointRepository struct {
	db *sql.DB
}

// NewPricePointRepository creates a new PricePointRepository with the given database connection
func NewPricePointRepository(db *sql.DB) *PricePointRepository {
	return &PricePointRepository{db: db}
}

const priceColumns = `id, sequence, tracking_request_id, price, currency, source_data, booking_url, checked_at, created_at, updated_at`

// Create inserts a new [models.PricePoint] into the database with generated ID and sequence
func (r *PricePointRepository) Create(point *models.PricePoint) error {
	if err := point.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "price_points")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	point.SetID(id)
	point.SetSequence(sequence)

	query := `
		INSERT INTO price_points (id, sequence, tracking_request_id, price, currency, source_data, booking_url, checked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		point.TrackingRequestID(),
		point.Price(),
		point.Currency(),
		point.SourceData(),
		point.BookingURL(),
		point.CheckedAt(),
		point.CreatedAt(),
		point.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price point: %w", err)
	}

	return nil
}

// Get retrieves a price point by ID
func (r *PricePointRepository) Get(id string) (*models.PricePoint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_points WHERE id = ?
	`, priceColumns)

	point, err := scanPricePoint(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price point not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price point: %w", err)
	}
	return point, nil
}

// Update is unsupported; price history is append-only.
func (r *PricePointRepository) Update(point *models.PricePoint) error {
	return fmt.Errorf("%w: price points are append-only", shared.ErrNotImplemented)
}

// Delete removes a price point by ID
func (r *PricePointRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM price_points WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete price point: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("price point not found: %s", id)
	}

	return nil
}

// List retrieves all price points matching the given criteria.
//
// Supported criteria: "tracking_request_id" (string), "limit" (int).
func (r *PricePointRepository) List(criteria map[string]any) ([]*models.PricePoint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_points WHERE 1 = 1
	`, priceColumns)

	args := []any{}

	if requestID, ok := criteria["tracking_request_id"].(string); ok && requestID != "" {
		query += " AND tracking_request_id = ?"
		args = append(args, requestID)
	}

	query += " ORDER BY checked_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price points: %w", err)
	}
	defer rows.Close()

	var points []*models.PricePoint
	for rows.Next() {
		point, err := scanPricePoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return points, nil
}

// ListByRequest retrieves a page of price history for a request, newest first,
// along with the total row count for pagination.
func (r *PricePointRepository) ListByRequest(requestID string, page, limit int) ([]*models.PricePoint, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM price_points WHERE tracking_request_id = ?"
	if err := r.db.QueryRow(countQuery, requestID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count price points: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM price_points
		WHERE tracking_request_id = ?
		ORDER BY checked_at DESC
		LIMIT ? OFFSET ?
	`, priceColumns)

	rows, err := r.db.Query(query, requestID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query price points: %w", err)
	}
	defer rows.Close()

	var points []*models.PricePoint
	for rows.Next() {
		point, err := scanPricePoint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return points, total, nil
}

// Latest returns the most recent price point for a request, or nil when none exists.
func (r *PricePointRepository) Latest(requestID string) (*models.PricePoint, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_points
		WHERE tracking_request_id = ?
		ORDER BY checked_at DESC
		LIMIT 1
	`, priceColumns)

	point, err := scanPricePoint(r.db.QueryRow(query, requestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price point: %w", err)
	}
	return point, nil
}

// scanPricePoint scans a row into a [models.PricePoint]
func scanPricePoint(row rowScanner) (*models.PricePoint, error) {
	var (
		id         string
		sequence   int
		requestID  string
		price      float64
		currency   string
		sourceData sql.NullString
		bookingURL sql.NullString
		checkedAt  time.Time
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &requestID, &price, &currency, &sourceData, &bookingURL, &checkedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	point := models.NewPricePoint(requestID, price, currency)
	point.SetID(id)
	point.SetSequence(sequence)
	point.SetCheckedAt(checkedAt)
	point.SetCreatedAt(createdAt)
	point.SetUpdatedAt(updatedAt)
	if sourceData.Valid {
		point.SetSourceData(sourceData.String)
	}
	if bookingURL.Valid {
		point.SetBookingURL(bookingURL.String)
	}

	return point, nil
}
