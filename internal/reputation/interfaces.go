package reputation

import (
	"context"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/internal/ratings"
)

// StatsRepositoryInterface reads aggregate ride and rating statistics.
// Returns (nil, nil) when the user id is absent from the users table.
type StatsRepositoryInterface interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserRideStats, error)
}

// ScoreStoreInterface persists computed breakdowns. GetTrustScore returns
// (nil, nil) when no score was ever computed for the user.
type ScoreStoreInterface interface {
	GetTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error)
	UpsertTrustScore(ctx context.Context, userID uuid.UUID, breakdown *TrustScoreBreakdown) error
}

// ModerationRepositoryInterface is the slice of the ratings repository the
// orchestrator needs to apply moderation decisions.
type ModerationRepositoryInterface interface {
	GetRatingByRideAndRater(ctx context.Context, rideID, raterID uuid.UUID) (*ratings.Rating, error)
	HideRating(ctx context.Context, rideID, raterID uuid.UUID) error
	DeleteRating(ctx context.Context, rideID, raterID uuid.UUID) error
}

// AuditRecorder appends entries to the admin audit trail.
type AuditRecorder interface {
	Append(ctx context.Context, entry audit.Entry) (*audit.Entry, error)
}

// CacheInterface is a read-through cache for stored breakdowns. Get returns
// (nil, nil) on a miss.
type CacheInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error)
	Set(ctx context.Context, breakdown *TrustScoreBreakdown) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
