package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/richxcame/ride-reputation/pkg/database"
	"github.com/richxcame/ride-reputation/pkg/models"
)

// Repository persists notification rows and reads the user contact fields
// the dispatcher needs. The users table is owned by the account service;
// this repository only reads it.
type Repository struct {
	db *database.DBPool
}

// NewRepository creates a notification repository.
func NewRepository(db *database.DBPool) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a pending notification row.
func (r *Repository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	payload, err := json.Marshal(notification.Data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	started := time.Now()
	_, err = r.db.GetPrimary().Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, channel, title, body, data, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		notification.ID, notification.UserID, notification.Type, notification.Channel,
		notification.Title, notification.Body, payload, notification.Status,
	)
	r.db.RecordQuery("notifications_create", started, err)
	return err
}

// UpdateNotificationStatus records the delivery outcome. Moving a row to
// sent stamps sent_at; any other status leaves it untouched.
func (r *Repository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error {
	started := time.Now()
	_, err := r.db.GetPrimary().Exec(ctx, `
		UPDATE notifications
		SET status = $2,
		    error = $3,
		    sent_at = CASE WHEN $2 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $1`,
		id, status, errMsg,
	)
	r.db.RecordQuery("notifications_update_status", started, err)
	return err
}

// GetPendingNotifications returns pending rows older than olderThan, oldest
// first. Younger rows are still owned by their dispatch goroutine. The read
// goes to the primary so a freshly sent row is never picked up again through
// replica lag.
func (r *Repository) GetPendingNotifications(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Notification, error) {
	started := time.Now()
	rows, err := r.db.GetPrimary().Query(ctx, `
		SELECT id, user_id, type, channel, title, body, data, status, error, sent_at, created_at
		FROM notifications
		WHERE status = 'pending' AND created_at < NOW() - make_interval(secs => $1)
		ORDER BY created_at
		LIMIT $2`,
		olderThan.Seconds(), limit,
	)
	r.db.RecordQuery("notifications_pending", started, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		var payload []byte
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Channel, &n.Title, &n.Body,
			&payload, &n.Status, &n.Error, &n.SentAt, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Data); err != nil {
				return nil, fmt.Errorf("decode notification data: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// GetUserDeviceTokens returns the registered device tokens for a user.
// A user without a device, or an unknown user, yields an empty slice.
func (r *Repository) GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	started := time.Now()
	var token *string
	err := r.db.GetReplica().QueryRow(ctx,
		`SELECT device_token FROM users WHERE id = $1`, userID,
	).Scan(&token)
	r.db.RecordQuery("notifications_device_tokens", started, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if token == nil || *token == "" {
		return nil, nil
	}
	return []string{*token}, nil
}

// GetUserPhoneNumber returns the user's phone number, empty when the user
// is unknown.
func (r *Repository) GetUserPhoneNumber(ctx context.Context, userID uuid.UUID) (string, error) {
	started := time.Now()
	var phone string
	err := r.db.GetReplica().QueryRow(ctx,
		`SELECT phone_number FROM users WHERE id = $1`, userID,
	).Scan(&phone)
	r.db.RecordQuery("notifications_phone_number", started, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return phone, err
}

// GetUserLanguage returns the user's preferred language code, empty when
// unset or unknown.
func (r *Repository) GetUserLanguage(ctx context.Context, userID uuid.UUID) (string, error) {
	started := time.Now()
	var lang string
	err := r.db.GetReplica().QueryRow(ctx,
		`SELECT COALESCE(language, '') FROM users WHERE id = $1`, userID,
	).Scan(&lang)
	r.db.RecordQuery("notifications_user_language", started, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return lang, err
}
