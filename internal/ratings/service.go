package ratings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

const (
	topTagsLimit       = 5
	recentRatingsLimit = 10
)

// Service exposes rating aggregates and the pattern analyzer. Moderation
// itself lives in the reputation orchestrator, which works through the
// same repository so every mutation is audited there.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new ratings service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// GetSuggestedTags returns the tag choices shown to a rater, in the order
// the apps present them.
func (s *Service) GetSuggestedTags(raterType RaterType) []RatingTag {
	if raterType == RaterTypeDriver {
		return []RatingTag{
			TagPoliteRider, TagOnTime, TagRespectful, TagGoodDirections,
		}
	}
	return []RatingTag{
		TagGreatConversation, TagSmoothDriving, TagCleanCar,
		TagKnowsRoute, TagFriendly, TagProfessional,
		TagGoodMusic, TagSafeDriver,
	}
}

// AnalyzePatterns aggregates the filtered rating population into a
// PatternSummary. An empty population is a zeroed summary, not an error.
func (s *Service) AnalyzePatterns(ctx context.Context, filter PatternFilter) (*PatternSummary, error) {
	facts, err := s.repo.GetRatingFacts(ctx, filter)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load rating population")
	}

	summary := AnalyzeRatingFacts(facts, time.Now().UTC())
	return &summary, nil
}

// GetUserRatingSummary assembles the console's per-user rating view.
// Average and distribution are required; tags, recent ratings and trend
// degrade to empty values when their reads fail.
func (s *Service) GetUserRatingSummary(ctx context.Context, userID uuid.UUID) (*UserRatingSummary, error) {
	avg, total, err := s.repo.GetAverageRating(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get average rating")
	}

	dist, err := s.repo.GetRatingDistribution(ctx, userID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get rating distribution")
	}

	summary := &UserRatingSummary{
		UserID:        userID,
		AverageRating: avg,
		TotalRatings:  total,
		Distribution:  dist,
		TopTags:       []TagCount{},
		RecentRatings: []Rating{},
	}

	if tags, err := s.repo.GetTopTags(ctx, userID, topTagsLimit); err != nil {
		logger.WithContext(ctx).Warn("failed to get top tags",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	} else {
		summary.TopTags = tags
	}

	if recent, err := s.repo.GetRecentRatings(ctx, userID, recentRatingsLimit); err != nil {
		logger.WithContext(ctx).Warn("failed to get recent ratings",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	} else {
		summary.RecentRatings = recent
	}

	if trend, err := s.repo.GetRatingTrend(ctx, userID); err != nil {
		logger.WithContext(ctx).Warn("failed to get rating trend",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	} else {
		summary.Trend = trend
	}

	return summary, nil
}
