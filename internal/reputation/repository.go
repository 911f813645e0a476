package reputation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/pkg/database"
)

// StatsRepository aggregates a user's ride and rating history straight from
// the platform tables. It owns no table of its own; the rides and users
// services own theirs.
type StatsRepository struct {
	db               *database.DBPool
	lateCancelWindow time.Duration
}

// NewStatsRepository creates a statistics reader. lateCancelWindow is how
// close to scheduled departure a cancellation counts as late; zero or
// negative falls back to 24 hours.
func NewStatsRepository(db *database.DBPool, lateCancelWindow time.Duration) *StatsRepository {
	if lateCancelWindow <= 0 {
		lateCancelWindow = 24 * time.Hour
	}
	return &StatsRepository{db: db, lateCancelWindow: lateCancelWindow}
}

// GetUserStats returns the aggregate statistics for a user, zeroed when the
// user has no history and (nil, nil) when the user id is unknown.
func (r *StatsRepository) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserRideStats, error) {
	exists, err := r.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	result, err := r.db.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return r.aggregate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*UserRideStats), nil
}

func (r *StatsRepository) userExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	started := time.Now()
	var exists bool
	err := r.db.GetReplica().QueryRow(ctx, query, userID).Scan(&exists)
	r.db.RecordQuery("reputation_user_exists", started, err)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *StatsRepository) aggregate(ctx context.Context, userID uuid.UUID) (*UserRideStats, error) {
	stats := &UserRideStats{}
	if err := r.rideStats(ctx, userID, stats); err != nil {
		return nil, err
	}
	if err := r.ratingStats(ctx, userID, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// rideStats folds the user's rides into counters in one pass. A no-show is
// never also a late cancellation; each cancelled ride lands in exactly one
// of the detail buckets.
func (r *StatsRepository) rideStats(ctx context.Context, userID uuid.UUID, stats *UserRideStats) error {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(CASE WHEN rider_id = $1 THEN 1 END),
			COUNT(CASE WHEN driver_id = $1 THEN 1 END),
			COUNT(CASE WHEN rider_id = $1 AND status = 'completed' THEN 1 END),
			COUNT(CASE WHEN driver_id = $1 AND status = 'completed' THEN 1 END),
			COUNT(CASE WHEN status = 'cancelled' AND cancelled_by = $1 THEN 1 END),
			COUNT(CASE WHEN status = 'cancelled' AND cancelled_by = $1
				AND COALESCE(cancellation_category, '') <> 'no_show'
				AND scheduled_departure_at IS NOT NULL
				AND cancelled_at IS NOT NULL
				AND cancelled_at >= scheduled_departure_at - make_interval(secs => $2) THEN 1 END),
			COUNT(CASE WHEN status = 'cancelled' AND cancelled_by = $1
				AND cancellation_category = 'no_show' THEN 1 END)
		FROM rides
		WHERE rider_id = $1 OR driver_id = $1`

	started := time.Now()
	err := r.db.GetReplica().QueryRow(ctx, query, userID, r.lateCancelWindow.Seconds()).Scan(
		&stats.TotalRides,
		&stats.CompletedRides,
		&stats.RidesAsRider,
		&stats.RidesAsDriver,
		&stats.CompletedAsRider,
		&stats.CompletedAsDriver,
		&stats.Cancellations,
		&stats.LateCancellations,
		&stats.NoShows,
	)
	r.db.RecordQuery("reputation_ride_stats", started, err)
	if err != nil {
		return fmt.Errorf("failed to get ride stats: %w", err)
	}
	return nil
}

// ratingStats averages visible ratings only; hidden ratings still count
// toward the total.
func (r *StatsRepository) ratingStats(ctx context.Context, userID uuid.UUID, stats *UserRideStats) error {
	query := `
		SELECT COALESCE(AVG(CASE WHEN is_visible THEN score END)::float8, 0), COUNT(*)
		FROM ratings
		WHERE rated_id = $1`

	started := time.Now()
	err := r.db.GetReplica().QueryRow(ctx, query, userID).Scan(&stats.AverageRating, &stats.TotalRatings)
	r.db.RecordQuery("reputation_rating_stats", started, err)
	if err != nil {
		return fmt.Errorf("failed to get rating stats: %w", err)
	}
	return nil
}
