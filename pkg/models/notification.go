package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification channels supported by the dispatcher
const (
	NotificationChannelPush = "push"
	NotificationChannelSMS  = "sms"
)

// Notification delivery states
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification represents a message queued for delivery to a user
type Notification struct {
	ID        uuid.UUID              `json:"id" db:"id"`
	UserID    uuid.UUID              `json:"user_id" db:"user_id"`
	Type      string                 `json:"type" db:"type"`
	Channel   string                 `json:"channel" db:"channel"`
	Title     string                 `json:"title" db:"title"`
	Body      string                 `json:"body" db:"body"`
	Data      map[string]interface{} `json:"data,omitempty" db:"data"`
	Status    string                 `json:"status" db:"status"`
	Error     *string                `json:"error,omitempty" db:"error"`
	SentAt    *time.Time             `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}
