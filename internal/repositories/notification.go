package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/farewatch/internal/models"
	"github.com/desertthunder/farewatch/internal/shared"
)

// NotificationRepository implements models.Repository[*models.Notification].
//
// Stores the audit log of every notification attempt, including failures,
// so delivery problems stay visible and daily quotas can be enforced.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new NotificationRepository with the given database connection
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, sequence, tracking_request_id, kind, status, message,
		old_price, new_price, telegram_message_id, error, retry_count, sent_at, created_at, updated_at`

// Create inserts a new [models.Notification] into the database with generated ID and sequence
func (r *NotificationRepository) Create(n *models.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "notifications")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	n.SetID(id)
	n.SetSequence(sequence)

	query := `
		INSERT INTO notifications (id, sequence, tracking_request_id, kind, status, message,
			old_price, new_price, telegram_message_id, error, retry_count, sent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		n.TrackingRequestID(),
		string(n.Kind()),
		string(n.Status()),
		n.Message(),
		nullableFloat(n.OldPrice()),
		nullableFloat(n.NewPrice()),
		nullableInt(n.TelegramMessageID()),
		n.ErrorText(),
		n.RetryCount(),
		nullableTime(n.SentAt()),
		n.CreatedAt(),
		n.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// Get retrieves a notification by ID
func (r *NotificationRepository) Get(id string) (*models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications WHERE id = ?
	`, notificationColumns)

	n, err := scanNotification(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	return n, nil
}

// Update modifies the delivery state of an existing notification
func (r *NotificationRepository) Update(n *models.Notification) error {
	now := time.Now()
	n.SetUpdatedAt(now)

	query := `
		UPDATE notifications
		SET status = ?, telegram_message_id = ?, error = ?, retry_count = ?, sent_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(n.Status()),
		nullableInt(n.TelegramMessageID()),
		n.ErrorText(),
		n.RetryCount(),
		nullableTime(n.SentAt()),
		now,
		n.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found: %s", n.ID())
	}

	return nil
}

// Delete removes a notification by ID
func (r *NotificationRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification not found: %s", id)
	}

	return nil
}

// List retrieves all notifications matching the given criteria.
//
// Supported criteria: "tracking_request_id" (string), "kind" (string), "status" (string), "limit" (int).
func (r *NotificationRepository) List(criteria map[string]any) ([]*models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications WHERE 1 = 1
	`, notificationColumns)

	args := []any{}

	if requestID, ok := criteria["tracking_request_id"].(string); ok && requestID != "" {
		query += " AND tracking_request_id = ?"
		args = append(args, requestID)
	}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return notifications, nil
}

// CountSentSince returns the number of sent notifications for a chat since the given time.
// Used to enforce the daily notification quota.
func (r *NotificationRepository) CountSentSince(chatID int64, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM notifications n
		JOIN tracking_requests t ON t.id = n.tracking_request_id
		WHERE t.telegram_chat_id = ? AND n.status = 'sent' AND n.sent_at >= ?
	`
	if err := r.db.QueryRow(query, chatID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sent notifications: %w", err)
	}
	return count, nil
}

// scanNotification scans a row into a [models.Notification]
func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		id         string
		sequence   int
		requestID  string
		kind       string
		status     string
		message    string
		oldPrice   sql.NullFloat64
		newPrice   sql.NullFloat64
		messageID  sql.NullInt64
		errorText  sql.NullString
		retryCount int
		sentAt     sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &requestID, &kind, &status, &message,
		&oldPrice, &newPrice, &messageID, &errorText, &retryCount, &sentAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	n := models.NewNotification(requestID, models.NotificationKind(kind), message)
	n.SetID(id)
	n.SetSequence(sequence)
	n.SetStatus(models.NotificationStatus(status))
	n.SetRetryCount(retryCount)
	n.SetCreatedAt(createdAt)
	n.SetUpdatedAt(updatedAt)

	if oldPrice.Valid || newPrice.Valid {
		var op, np *float64
		if oldPrice.Valid {
			op = &oldPrice.Float64
		}
		if newPrice.Valid {
			np = &newPrice.Float64
		}
		n.SetPrices(op, np)
	}
	if messageID.Valid {
		n.SetTelegramMessageID(&messageID.Int64)
	}
	if errorText.Valid {
		n.SetErrorText(errorText.String)
	}
	if sentAt.Valid {
		n.SetSentAt(&sentAt.Time)
	}

	return n, nil
}

func nullableInt(i *int64) any {
	if i == nil {
		return nil
	}
	return *i
}
