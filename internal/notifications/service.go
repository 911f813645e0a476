package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/i18n"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/models"
	"github.com/richxcame/ride-reputation/pkg/resilience"
)

// notificationRetryDelay is how long a queued row rests before the pending
// sweep retries it.
const notificationRetryDelay = 2 * time.Minute

// pendingSweepBatch caps how many rows one sweep re-dispatches.
const pendingSweepBatch = 100

// ErrNotificationQueued signals that a provider breaker was open and the
// notification stays pending for the sweep instead of failing outright.
var ErrNotificationQueued = errors.New("notification queued for retry")

// Service persists notifications and dispatches them asynchronously through
// the per-channel providers. Delivery is best-effort: a failed dispatch marks
// the row failed and is logged, never surfaced to the caller.
type Service struct {
	repo            RepositoryInterface
	firebaseClient  FirebaseClientInterface
	twilioClient    TwilioClientInterface
	firebaseBreaker *resilience.CircuitBreaker
	twilioBreaker   *resilience.CircuitBreaker
}

// NewService creates a notification service. Either client may be nil; its
// channel then fails dispatch with a recorded error.
func NewService(repo RepositoryInterface, firebaseClient FirebaseClientInterface, twilioClient TwilioClientInterface) *Service {
	return &Service{
		repo:           repo,
		firebaseClient: firebaseClient,
		twilioClient:   twilioClient,
	}
}

// SetCircuitBreakers wires circuit breakers for the downstream providers.
func (s *Service) SetCircuitBreakers(firebaseBreaker, twilioBreaker *resilience.CircuitBreaker) {
	s.firebaseBreaker = firebaseBreaker
	s.twilioBreaker = twilioBreaker
}

// Send persists a notification row and dispatches it asynchronously. An
// error here means the row was never stored; delivery failures after that
// are recorded on the row, not returned.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, notifType, channel, title, body string, data map[string]interface{}) (*models.Notification, error) {
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    notifType,
		Channel: channel,
		Title:   title,
		Body:    body,
		Data:    data,
		Status:  models.NotificationStatusPending,
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	go s.processNotification(context.Background(), notification)

	return notification, nil
}

// processNotification delivers one row and records the outcome.
func (s *Service) processNotification(ctx context.Context, notification *models.Notification) {
	var err error

	switch notification.Channel {
	case models.NotificationChannelPush:
		err = s.sendPush(ctx, notification)
	case models.NotificationChannelSMS:
		err = s.sendSMS(ctx, notification)
	default:
		err = fmt.Errorf("unsupported notification channel: %s", notification.Channel)
	}

	if err != nil {
		if errors.Is(err, ErrNotificationQueued) {
			logger.Warn("Notification queued for retry",
				zap.String("notification_id", notification.ID.String()),
				zap.String("channel", notification.Channel))
			return
		}

		logger.Error("Failed to send notification",
			zap.String("notification_id", notification.ID.String()),
			zap.String("channel", notification.Channel),
			zap.Error(err))

		errMsg := err.Error()
		if updateErr := s.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusFailed, &errMsg); updateErr != nil {
			logger.Error("Failed to mark notification failed",
				zap.String("notification_id", notification.ID.String()),
				zap.Error(updateErr))
		}
		return
	}

	if updateErr := s.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusSent, nil); updateErr != nil {
		logger.Error("Failed to mark notification sent",
			zap.String("notification_id", notification.ID.String()),
			zap.Error(updateErr))
	}
	logger.Info("Notification sent",
		zap.String("notification_id", notification.ID.String()),
		zap.String("channel", notification.Channel),
		zap.String("user_id", notification.UserID.String()))
}

// sendPush delivers through FCM to every registered device token.
func (s *Service) sendPush(ctx context.Context, notification *models.Notification) error {
	if s.firebaseClient == nil {
		return errors.New("push client not configured")
	}

	tokens, err := s.repo.GetUserDeviceTokens(ctx, notification.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("no device tokens registered for user")
	}

	data := make(map[string]string, len(notification.Data))
	for key, value := range notification.Data {
		data[key] = fmt.Sprintf("%v", value)
	}

	return s.executeWithBreaker(ctx, s.firebaseBreaker, notification, func() error {
		_, err := s.firebaseClient.SendMulticastNotification(ctx, tokens, notification.Title, notification.Body, data)
		return err
	})
}

// sendSMS delivers through Twilio to the user's phone number.
func (s *Service) sendSMS(ctx context.Context, notification *models.Notification) error {
	if s.twilioClient == nil {
		return errors.New("sms client not configured")
	}

	phone, err := s.repo.GetUserPhoneNumber(ctx, notification.UserID)
	if err != nil {
		return err
	}
	if phone == "" {
		return errors.New("no phone number on file for user")
	}

	message := fmt.Sprintf("%s: %s", notification.Title, notification.Body)
	return s.executeWithBreaker(ctx, s.twilioBreaker, notification, func() error {
		_, err := s.twilioClient.SendSMS(phone, message)
		return err
	})
}

// userLang resolves the preferred language for a user, defaulting to "en".
func (s *Service) userLang(ctx context.Context, userID uuid.UUID) string {
	lang, _ := s.repo.GetUserLanguage(ctx, userID)
	if lang == "" {
		lang = i18n.DefaultLang
	}
	return lang
}

// NotifyRatingHidden tells the rating's author that their rating no longer
// appears publicly.
func (s *Service) NotifyRatingHidden(ctx context.Context, raterID, rideID uuid.UUID) error {
	lang := s.userLang(ctx, raterID)

	_, err := s.Send(ctx, raterID, "rating_hidden", models.NotificationChannelPush,
		i18n.Translate("notification.rating.hidden.title", lang),
		i18n.Translate("notification.rating.hidden.body", lang),
		map[string]interface{}{
			"ride_id": rideID.String(),
			"action":  "rating_hidden",
		})
	return err
}

// NotifyRatingDeleted tells the rating's author that their rating was
// removed.
func (s *Service) NotifyRatingDeleted(ctx context.Context, raterID, rideID uuid.UUID) error {
	lang := s.userLang(ctx, raterID)

	_, err := s.Send(ctx, raterID, "rating_deleted", models.NotificationChannelPush,
		i18n.Translate("notification.rating.deleted.title", lang),
		i18n.Translate("notification.rating.deleted.body", lang),
		map[string]interface{}{
			"ride_id": rideID.String(),
			"action":  "rating_deleted",
		})
	return err
}

// NotifyVerificationApproved congratulates the user over push and SMS.
func (s *Service) NotifyVerificationApproved(ctx context.Context, userID, requestID uuid.UUID) error {
	lang := s.userLang(ctx, userID)
	data := map[string]interface{}{
		"request_id": requestID.String(),
		"action":     "verification_approved",
	}

	_, err := s.Send(ctx, userID, "verification_approved", models.NotificationChannelPush,
		i18n.Translate("notification.verification.approved.title", lang),
		i18n.Translate("notification.verification.approved.body", lang),
		data)
	if err != nil {
		return err
	}

	if _, err := s.Send(ctx, userID, "verification_approved", models.NotificationChannelSMS,
		i18n.Translate("notification.verification.approved.title", lang),
		i18n.Translate("notification.verification.approved.sms", lang),
		data); err != nil {
		logger.Warn("Failed to queue verification approval SMS",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	return nil
}

// NotifyVerificationRejected tells the user their documents were rejected
// and why, over push and SMS.
func (s *Service) NotifyVerificationRejected(ctx context.Context, userID, requestID uuid.UUID, reason string) error {
	lang := s.userLang(ctx, userID)
	data := map[string]interface{}{
		"request_id": requestID.String(),
		"reason":     reason,
		"action":     "verification_rejected",
	}

	_, err := s.Send(ctx, userID, "verification_rejected", models.NotificationChannelPush,
		i18n.Translate("notification.verification.rejected.title", lang),
		i18n.Translate("notification.verification.rejected.body", lang, reason),
		data)
	if err != nil {
		return err
	}

	if _, err := s.Send(ctx, userID, "verification_rejected", models.NotificationChannelSMS,
		i18n.Translate("notification.verification.rejected.title", lang),
		i18n.Translate("notification.verification.rejected.sms", lang, reason),
		data); err != nil {
		logger.Warn("Failed to queue verification rejection SMS",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	return nil
}

// ProcessPending re-dispatches rows that stayed pending past the retry
// delay, typically because a provider breaker was open.
func (s *Service) ProcessPending(ctx context.Context) error {
	notifications, err := s.repo.GetPendingNotifications(ctx, notificationRetryDelay, pendingSweepBatch)
	if err != nil {
		return err
	}

	for _, notification := range notifications {
		go s.processNotification(context.Background(), notification)
	}

	if len(notifications) > 0 {
		logger.Info("Re-dispatching pending notifications", zap.Int("count", len(notifications)))
	}
	return nil
}

// RunPendingSweep loops ProcessPending on the given interval until ctx is
// cancelled. Intended to run as a background goroutine from main.
func (s *Service) RunPendingSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = notificationRetryDelay
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ProcessPending(ctx); err != nil {
				logger.Error("Pending notification sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) executeWithBreaker(ctx context.Context, breaker *resilience.CircuitBreaker, notification *models.Notification, operation func() error) error {
	if breaker == nil {
		return operation()
	}

	_, err := breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, operation()
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		s.requeueNotification(ctx, notification, err)
		return ErrNotificationQueued
	}

	return err
}

// requeueNotification keeps the row pending with the failure recorded so
// the sweep retries it once the provider recovers.
func (s *Service) requeueNotification(ctx context.Context, notification *models.Notification, reason error) {
	message := fmt.Sprintf("%s channel unavailable: %v", notification.Channel, reason)

	if err := s.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusPending, &message); err != nil {
		logger.Error("Failed to requeue notification",
			zap.String("notification_id", notification.ID.String()),
			zap.String("channel", notification.Channel),
			zap.Error(err))
		return
	}

	logger.Info("Notification scheduled for retry",
		zap.String("notification_id", notification.ID.String()),
		zap.String("channel", notification.Channel))
}
