package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/pkg/models"
)

// RepositoryInterface is the persistence surface the dispatcher needs.
type RepositoryInterface interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status string, errMsg *string) error
	GetPendingNotifications(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Notification, error)
	GetUserDeviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error)
	GetUserPhoneNumber(ctx context.Context, userID uuid.UUID) (string, error)
	GetUserLanguage(ctx context.Context, userID uuid.UUID) (string, error)
}

// FirebaseClientInterface delivers push notifications.
type FirebaseClientInterface interface {
	SendMulticastNotification(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error)
}

// TwilioClientInterface delivers SMS messages.
type TwilioClientInterface interface {
	SendSMS(to, body string) (string, error)
}
