package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/eventbus"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

// EventHandler turns reputation events into user-facing notifications and
// operational alerts. Notification failures are logged and swallowed so a
// flaky provider never blocks event consumption.
type EventHandler struct {
	service *Service
	alerts  *AlertSender
}

// NewEventHandler creates an event handler. alerts may be nil when no
// webhook is configured.
func NewEventHandler(service *Service, alerts *AlertSender) *EventHandler {
	return &EventHandler{service: service, alerts: alerts}
}

// RegisterSubscriptions subscribes to all reputation events on the bus.
func (h *EventHandler) RegisterSubscriptions(ctx context.Context, bus *eventbus.Bus) error {
	if err := bus.Subscribe(ctx, eventbus.SubjectReputationAll, "notifications-reputation", h.handleReputationEvent); err != nil {
		return fmt.Errorf("subscribe to reputation events: %w", err)
	}
	logger.Info("notifications: subscribed to reputation events")
	return nil
}

func (h *EventHandler) handleReputationEvent(ctx context.Context, event *eventbus.Event) error {
	switch event.Type {
	case eventbus.EventTrustScoreRecalculated:
		return h.onTrustScoreRecalculated(ctx, event)
	case eventbus.EventRatingHidden:
		return h.onRatingHidden(ctx, event)
	case eventbus.EventRatingDeleted:
		return h.onRatingDeleted(ctx, event)
	case eventbus.EventVerificationApproved:
		return h.onVerificationApproved(ctx, event)
	case eventbus.EventVerificationRejected:
		return h.onVerificationRejected(ctx, event)
	default:
		logger.Debug("notifications: ignoring unknown event type", zap.String("type", event.Type))
		return nil
	}
}

// onTrustScoreRecalculated only logs. Recalculations are admin-facing; the
// console shows the result directly and users are not told about them.
func (h *EventHandler) onTrustScoreRecalculated(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.TrustScoreRecalculatedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal trust score recalculated: %w", err)
	}

	logger.Info("notifications: trust score recalculated",
		zap.String("user_id", data.UserID.String()),
		zap.String("admin_id", data.AdminID.String()),
		zap.Int("total", data.Total),
		zap.String("category", data.Category))
	return nil
}

func (h *EventHandler) onRatingHidden(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RatingHiddenData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal rating hidden: %w", err)
	}

	if err := h.service.NotifyRatingHidden(ctx, data.RaterID, data.RideID); err != nil {
		logger.Warn("failed to send rating_hidden notification", zap.Error(err))
	}

	h.alert(ctx, event, fmt.Sprintf("rating on ride %s hidden by admin %s", data.RideID, data.AdminID))
	return nil
}

func (h *EventHandler) onRatingDeleted(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.RatingDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal rating deleted: %w", err)
	}

	if err := h.service.NotifyRatingDeleted(ctx, data.RaterID, data.RideID); err != nil {
		logger.Warn("failed to send rating_deleted notification", zap.Error(err))
	}

	h.alert(ctx, event, fmt.Sprintf("rating on ride %s deleted by admin %s", data.RideID, data.AdminID))
	return nil
}

func (h *EventHandler) onVerificationApproved(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.VerificationApprovedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal verification approved: %w", err)
	}

	if err := h.service.NotifyVerificationApproved(ctx, data.UserID, data.RequestID); err != nil {
		logger.Warn("failed to send verification_approved notification", zap.Error(err))
	}

	h.alert(ctx, event, fmt.Sprintf("verification %s approved by admin %s", data.RequestID, data.AdminID))
	return nil
}

func (h *EventHandler) onVerificationRejected(ctx context.Context, event *eventbus.Event) error {
	var data eventbus.VerificationRejectedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal verification rejected: %w", err)
	}

	if err := h.service.NotifyVerificationRejected(ctx, data.UserID, data.RequestID, data.Reason); err != nil {
		logger.Warn("failed to send verification_rejected notification", zap.Error(err))
	}

	h.alert(ctx, event, fmt.Sprintf("verification %s rejected by admin %s: %s", data.RequestID, data.AdminID, data.Reason))
	return nil
}

// alert posts an operational alert; failures are logged and never propagate.
func (h *EventHandler) alert(ctx context.Context, event *eventbus.Event, summary string) {
	if h.alerts == nil {
		return
	}

	if err := h.alerts.Send(ctx, event, summary); err != nil {
		logger.Warn("failed to post ops alert",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.Error(err))
	}
}
