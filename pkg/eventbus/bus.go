// Package eventbus provides NATS pub/sub for reputation domain events.
// Publishing is best-effort: callers treat failures as side-effect errors,
// never as primary-operation failures.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/config"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

// handlerTimeout bounds how long a subscriber may spend on one message.
const handlerTimeout = 30 * time.Second

// Publisher is the write side of the bus, substitutable in tests.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// Bus is a thin wrapper over a NATS connection. A Bus with a nil connection
// (from NewNoop) accepts publishes and subscriptions as no-ops so callers
// can wire it unconditionally.
type Bus struct {
	conn *nats.Conn
}

var _ Publisher = (*Bus)(nil)

// New connects to the NATS server from the configuration.
func New(cfg *config.NATSConfig) (*Bus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("ride-reputation"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", cfg.URL, err)
	}

	logger.Info("connected to nats", zap.String("url", cfg.URL))
	return &Bus{conn: conn}, nil
}

// NewNoop returns a bus that drops publishes and subscriptions. Used when
// the event bus is disabled by configuration.
func NewNoop() *Bus {
	return &Bus{}
}

// Publish wraps payload in the event envelope and publishes it on the
// subject equal to eventType.
func (b *Bus) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if b.conn == nil {
		logger.Debug("event bus disabled, dropping event", zap.String("type", eventType))
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	if err := b.conn.Publish(eventType, body); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	logger.Debug("event published",
		zap.String("type", eventType),
		zap.String("event_id", event.ID))
	return nil
}

// Subscribe registers a queue-grouped handler for a subject. Handler errors
// are logged and the message is not redelivered; consumers own their retry
// policy.
func (b *Bus) Subscribe(ctx context.Context, subject, queue string, handler Handler) error {
	if b.conn == nil {
		logger.Debug("event bus disabled, skipping subscription", zap.String("subject", subject))
		return nil
	}

	_, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("failed to decode event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}

		msgCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		if err := handler(msgCtx, &event); err != nil {
			logger.Error("event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("type", event.Type),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	logger.Info("subscribed to events",
		zap.String("subject", subject),
		zap.String("queue", queue))
	return nil
}

// Close drains the connection, letting in-flight handlers finish.
func (b *Bus) Close() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		logger.Warn("nats drain failed, closing hard", zap.Error(err))
		b.conn.Close()
	}
}
