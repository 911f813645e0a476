package notifications

import (
	"context"
	"time"

	"github.com/richxcame/ride-reputation/pkg/config"
	"github.com/richxcame/ride-reputation/pkg/eventbus"
	"github.com/richxcame/ride-reputation/pkg/httpclient"
)

// opsAlert is the compact payload posted to the operations webhook.
type opsAlert struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Summary    string    `json:"summary"`
}

// AlertSender posts operational alerts for moderation and verification
// activity to a webhook. The event id doubles as the idempotency key, so a
// redelivered event never produces a duplicate alert.
type AlertSender struct {
	client *httpclient.Client
}

// NewAlertSender builds a sender for the configured webhook. Returns nil
// when no webhook URL is configured; callers treat a nil sender as disabled.
func NewAlertSender(cfg config.AlertsConfig) *AlertSender {
	if cfg.WebhookURL == "" {
		return nil
	}

	client := httpclient.NewClientWithOptions(cfg.WebhookURL,
		httpclient.WithDefaultRetry(),
		httpclient.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	)
	return &AlertSender{client: client}
}

// Send posts one alert describing the event.
func (a *AlertSender) Send(ctx context.Context, event *eventbus.Event, summary string) error {
	alert := opsAlert{
		EventID:    event.ID,
		EventType:  event.Type,
		OccurredAt: event.OccurredAt,
		Summary:    summary,
	}
	_, err := a.client.PostWithIdempotency(ctx, "", alert, nil, event.ID)
	return err
}
