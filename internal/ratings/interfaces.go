package ratings

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the repository methods for ratings.
// Ratings are written by the mobile apps elsewhere; this service reads
// aggregates and applies moderation (hide, delete) only.
type RepositoryInterface interface {
	GetRatingByRideAndRater(ctx context.Context, rideID, raterID uuid.UUID) (*Rating, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
	GetRatingDistribution(ctx context.Context, userID uuid.UUID) (map[int]int, error)
	GetTopTags(ctx context.Context, userID uuid.UUID, limit int) ([]TagCount, error)
	GetRecentRatings(ctx context.Context, userID uuid.UUID, limit int) ([]Rating, error)
	GetRatingTrend(ctx context.Context, userID uuid.UUID) (float64, error)
	GetRatingFacts(ctx context.Context, filter PatternFilter) ([]RatingFact, error)
	HideRating(ctx context.Context, rideID, raterID uuid.UUID) error
	DeleteRating(ctx context.Context, rideID, raterID uuid.UUID) error
}
