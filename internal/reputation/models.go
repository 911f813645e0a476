package reputation

import (
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/pkg/common"
)

// Category labels a trust score total for display in the admin console.
type Category string

const (
	CategoryExcellent Category = "Excellent"
	CategoryGood      Category = "Good"
	CategoryFair      Category = "Fair"
	CategoryPoor      Category = "Poor"
)

// UserRideStats aggregates one user's ride and rating history. All counters
// are zero for a user with no history; that is a valid input to the
// calculator, not an error.
type UserRideStats struct {
	TotalRides        int     `json:"total_rides"`
	CompletedRides    int     `json:"completed_rides"`
	RidesAsRider      int     `json:"rides_as_rider"`
	RidesAsDriver     int     `json:"rides_as_driver"`
	CompletedAsRider  int     `json:"completed_as_rider"`
	CompletedAsDriver int     `json:"completed_as_driver"`
	AverageRating     float64 `json:"average_rating"`
	TotalRatings      int     `json:"total_ratings"`
	Cancellations     int     `json:"cancellations"`
	LateCancellations int     `json:"late_cancellations"`
	NoShows           int     `json:"no_shows"`
}

// ScoreComponents are the four weighted parts of a trust score, each
// already rounded to an integer.
type ScoreComponents struct {
	Rating      int `json:"rating" db:"rating_score"`
	Completion  int `json:"completion" db:"completion_score"`
	Reliability int `json:"reliability" db:"reliability_score"`
	Experience  int `json:"experience" db:"experience_score"`
}

// Calculations preserves the raw inputs a breakdown was computed from, so
// the console can show an admin how a score came to be.
type Calculations struct {
	AverageRating        float64 `json:"average_rating"`
	TotalRatings         int     `json:"total_ratings"`
	CompletedRides       int     `json:"completed_rides"`
	TotalRides           int     `json:"total_rides"`
	CompletionRate       float64 `json:"completion_rate"`
	Cancellations        int     `json:"cancellations"`
	LateCancellations    int     `json:"late_cancellations"`
	NoShows              int     `json:"no_shows"`
	ReliabilityDeduction int     `json:"reliability_deduction"`
}

// TrustScoreBreakdown is a computed trust score with its components and
// the inputs that produced it.
type TrustScoreBreakdown struct {
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Components   ScoreComponents `json:"components"`
	Total        int             `json:"total" db:"total"`
	Category     Category        `json:"category" db:"category"`
	Calculations Calculations    `json:"calculations"`
	CalculatedAt time.Time       `json:"calculated_at" db:"calculated_at"`
}

// RecalculationResult separates the recalculated breakdown (the primary
// outcome) from the audit and event side-effect outcomes.
type RecalculationResult struct {
	Breakdown *TrustScoreBreakdown `json:"breakdown"`
	Previous  *TrustScoreBreakdown `json:"previous,omitempty"`
	Audit     common.SideEffect    `json:"audit"`
	Event     common.SideEffect    `json:"event"`
}

// ModerationResult separates the applied moderation action from its audit
// and event side-effect outcomes. Rating holds the post-action state and
// is nil after a delete.
type ModerationResult struct {
	RideID  uuid.UUID                `json:"ride_id"`
	RaterID uuid.UUID                `json:"rater_id"`
	Action  ratings.ModerationAction `json:"action"`
	Rating  *ratings.Rating          `json:"rating,omitempty"`
	Audit   common.SideEffect        `json:"audit"`
	Event   common.SideEffect        `json:"event"`
}
