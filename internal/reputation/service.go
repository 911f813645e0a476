package reputation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/eventbus"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

var tracer = otel.Tracer("ride-reputation/reputation")

// Service orchestrates trust score recalculation and rating moderation.
// Every collaborator arrives through the constructor so tests can
// substitute any of them.
type Service struct {
	stats      StatsRepositoryInterface
	store      ScoreStoreInterface
	moderation ModerationRepositoryInterface
	auditTrail AuditRecorder
	events     eventbus.Publisher
	cache      CacheInterface
}

// NewService wires the orchestrator. auditTrail, events, and cache may each
// be nil: the matching side effect is then skipped (Attempted stays false)
// and reads go straight to the store.
func NewService(
	stats StatsRepositoryInterface,
	store ScoreStoreInterface,
	moderation ModerationRepositoryInterface,
	auditTrail AuditRecorder,
	events eventbus.Publisher,
	cache CacheInterface,
) *Service {
	return &Service{
		stats:      stats,
		store:      store,
		moderation: moderation,
		auditTrail: auditTrail,
		events:     events,
		cache:      cache,
	}
}

// GetUserStats returns the aggregate ride and rating statistics shown on
// the console's user page.
func (s *Service) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserRideStats, error) {
	stats, err := s.stats.GetUserStats(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to read user statistics")
	}
	if stats == nil {
		return nil, common.NewNotFoundError("user not found", nil)
	}
	return stats, nil
}

// GetBreakdown returns the stored trust score, preferring the cache. A user
// whose score was never computed is NotFound; recalculation creates it.
func (s *Service) GetBreakdown(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			logger.WithContext(ctx).Warn("failed to read trust score cache",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	breakdown, err := s.store.GetTrustScore(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get trust score")
	}
	if breakdown == nil {
		return nil, common.NewNotFoundError("trust score not computed for user", nil)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, breakdown); err != nil {
			logger.WithContext(ctx).Warn("failed to cache trust score",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}
	return breakdown, nil
}

// RecalculateTrustScore recomputes and stores the user's trust score. The
// audit append and event publish afterwards are best-effort: their outcomes
// land in the result, never in the returned error.
func (s *Service) RecalculateTrustScore(ctx context.Context, userID, adminID uuid.UUID) (*RecalculationResult, error) {
	ctx, span := tracer.Start(ctx, "reputation.recalculate_trust_score")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID.String()))

	stats, err := s.stats.GetUserStats(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to read user statistics")
	}
	if stats == nil {
		return nil, common.NewNotFoundError("user not found", nil)
	}

	prior, err := s.store.GetTrustScore(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get trust score")
	}

	breakdown := CalculateTrustScore(*stats, time.Now().UTC())
	breakdown.UserID = userID

	if err := s.store.UpsertTrustScore(ctx, userID, &breakdown); err != nil {
		return nil, common.NewInternalServerError("failed to store trust score")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, &breakdown); err != nil {
			logger.WithContext(ctx).Warn("failed to cache trust score",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}

	logger.Info("Trust score recalculated",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Int("total", breakdown.Total),
		zap.String("category", string(breakdown.Category)))

	result := &RecalculationResult{
		Breakdown: &breakdown,
		Previous:  prior,
	}

	entry := audit.Entry{
		AdminID:    adminID,
		Action:     audit.ActionRecalculateTrustScore,
		EntityType: audit.EntityTrustScore,
		EntityID:   &userID,
		Diff: audit.Diff{
			After: audit.Snapshot{}.
				Set("total", breakdown.Total).
				Set("category", string(breakdown.Category)),
		},
	}
	if prior != nil {
		entry.Diff.Before = audit.Snapshot{}.
			Set("total", prior.Total).
			Set("category", string(prior.Category))
	}
	result.Audit = s.appendAudit(ctx, entry)

	data := eventbus.TrustScoreRecalculatedData{
		UserID:   userID,
		AdminID:  adminID,
		Total:    breakdown.Total,
		Category: string(breakdown.Category),
	}
	if prior != nil {
		previousTotal := prior.Total
		data.PreviousTotal = &previousTotal
	}
	result.Event = s.publish(ctx, eventbus.EventTrustScoreRecalculated, data)

	return result, nil
}

// ModerateRating hides or permanently deletes one rating. Hiding is one-way
// and idempotent; repeating it still writes an audit entry.
func (s *Service) ModerateRating(ctx context.Context, rideID, raterID uuid.UUID, action ratings.ModerationAction, adminID uuid.UUID, reason string) (*ModerationResult, error) {
	ctx, span := tracer.Start(ctx, "reputation.moderate_rating")
	defer span.End()
	span.SetAttributes(
		attribute.String("ride_id", rideID.String()),
		attribute.String("action", string(action)),
	)

	if !action.IsValid() {
		return nil, common.NewValidationError("invalid moderation action", map[string]string{
			"action": "must be hide or delete",
		})
	}

	rating, err := s.moderation.GetRatingByRideAndRater(ctx, rideID, raterID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get rating")
	}
	if rating == nil {
		return nil, common.NewNotFoundError("rating not found", nil)
	}

	before := audit.Snapshot{}.
		Set("ride_id", rideID.String()).
		Set("rater_id", raterID.String()).
		Set("rated_id", rating.RatedID.String()).
		Set("score", rating.Score).
		Set("is_visible", rating.IsVisible)

	var after audit.Snapshot
	var auditAction, eventType string
	var eventData interface{}

	result := &ModerationResult{
		RideID:  rideID,
		RaterID: raterID,
		Action:  action,
	}

	switch action {
	case ratings.ModerationActionHide:
		if err := s.moderation.HideRating(ctx, rideID, raterID); err != nil {
			return nil, common.NewInternalServerError("failed to hide rating")
		}
		hidden := *rating
		hidden.IsVisible = false
		result.Rating = &hidden

		after = audit.Snapshot{}.Set("is_visible", false)
		auditAction = audit.ActionHideRating
		eventType = eventbus.EventRatingHidden
		eventData = eventbus.RatingHiddenData{
			RideID:  rideID,
			RaterID: raterID,
			RatedID: rating.RatedID,
			AdminID: adminID,
		}

	case ratings.ModerationActionDelete:
		if err := s.moderation.DeleteRating(ctx, rideID, raterID); err != nil {
			return nil, common.NewInternalServerError("failed to delete rating")
		}

		after = audit.Snapshot{}.Set("deleted", true)
		auditAction = audit.ActionDeleteRating
		eventType = eventbus.EventRatingDeleted
		eventData = eventbus.RatingDeletedData{
			RideID:  rideID,
			RaterID: raterID,
			RatedID: rating.RatedID,
			AdminID: adminID,
		}
	}

	if reason != "" {
		after = after.Set("reason", reason)
	}

	logger.Info("Rating moderated",
		zap.String("ride_id", rideID.String()),
		zap.String("rater_id", raterID.String()),
		zap.String("action", string(action)),
		zap.String("admin_id", adminID.String()))

	result.Audit = s.appendAudit(ctx, audit.Entry{
		AdminID:    adminID,
		Action:     auditAction,
		EntityType: audit.EntityRating,
		EntityID:   &rideID,
		Diff:       audit.Diff{Before: before, After: after},
	})
	result.Event = s.publish(ctx, eventType, eventData)

	return result, nil
}

// appendAudit records one trail entry, swallowing failures into the
// returned SideEffect.
func (s *Service) appendAudit(ctx context.Context, entry audit.Entry) common.SideEffect {
	if s.auditTrail == nil {
		return common.SideEffect{}
	}
	_, err := s.auditTrail.Append(ctx, entry)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to append audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
	return common.SideEffect{Attempted: true, Err: err}
}

// publish emits one event, swallowing failures into the returned SideEffect.
func (s *Service) publish(ctx context.Context, eventType string, data interface{}) common.SideEffect {
	if s.events == nil {
		return common.SideEffect{}
	}
	err := s.events.Publish(ctx, eventType, data)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
	return common.SideEffect{Attempted: true, Err: err}
}
