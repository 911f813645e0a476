package ratings

import (
	"time"

	"github.com/google/uuid"
)

// RaterType identifies which side of a ride authored a rating
type RaterType string

const (
	RaterTypeRider  RaterType = "rider"
	RaterTypeDriver RaterType = "driver"
)

// RatingTag is a quick-select descriptor attached to a rating
type RatingTag string

// Tags riders attach when rating a driver
const (
	TagGreatConversation RatingTag = "great_conversation"
	TagSmoothDriving     RatingTag = "smooth_driving"
	TagCleanCar          RatingTag = "clean_car"
	TagKnowsRoute        RatingTag = "knows_route"
	TagFriendly          RatingTag = "friendly"
	TagProfessional      RatingTag = "professional"
	TagGoodMusic         RatingTag = "good_music"
	TagSafeDriver        RatingTag = "safe_driver"

	TagRoughDriving RatingTag = "rough_driving"
	TagDirtyCar     RatingTag = "dirty_car"
	TagRude         RatingTag = "rude"
	TagUnsafe       RatingTag = "unsafe"
	TagLostRoute    RatingTag = "lost_route"
	TagPhoneUse     RatingTag = "phone_use"
	TagLateArrival  RatingTag = "late_arrival"
)

// Tags drivers attach when rating a rider
const (
	TagPoliteRider    RatingTag = "polite_rider"
	TagOnTime         RatingTag = "on_time"
	TagRespectful     RatingTag = "respectful"
	TagGoodDirections RatingTag = "good_directions"

	TagRudeRider   RatingTag = "rude_rider"
	TagMessyRider  RatingTag = "messy_rider"
	TagLatePickup  RatingTag = "late_pickup"
	TagSlammedDoor RatingTag = "slammed_door"
)

// Rating is one participant's rating of the other for one ride. The pair
// (ride_id, rater_id) is the identity: at most one rating per rater per
// ride, and the pair is never reused even after a delete.
type Rating struct {
	RideID    uuid.UUID   `json:"ride_id" db:"ride_id"`
	RaterID   uuid.UUID   `json:"rater_id" db:"rater_id"`
	RatedID   uuid.UUID   `json:"rated_id" db:"rated_id"`
	RaterType RaterType   `json:"rater_type" db:"rater_type"`
	Score     int         `json:"score" db:"score"`
	Review    *string     `json:"review,omitempty" db:"review"`
	Tags      []RatingTag `json:"tags,omitempty" db:"tags"`
	IsVisible bool        `json:"is_visible" db:"is_visible"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// TagCount is a tag with its occurrence count across a user's ratings
type TagCount struct {
	Tag   RatingTag `json:"tag" db:"tag"`
	Count int       `json:"count" db:"count"`
}

// ModerationAction is an admin action applied to one rating. Hide is a
// one-way visibility flip; delete removes the row permanently.
type ModerationAction string

const (
	ModerationActionHide   ModerationAction = "hide"
	ModerationActionDelete ModerationAction = "delete"
)

// IsValid reports whether the action is a known moderation action
func (a ModerationAction) IsValid() bool {
	return a == ModerationActionHide || a == ModerationActionDelete
}

// PatternFilter narrows the rating population the analyzer looks at.
// Both fields nil means the whole population.
type PatternFilter struct {
	RatedUserID *uuid.UUID
	RideID      *uuid.UUID
}

// RatingFact is the per-rating slice of data the pattern analyzer folds
// over. Kept deliberately small so population fetches stay cheap.
type RatingFact struct {
	Score     int       `db:"score"`
	RaterID   uuid.UUID `db:"rater_id"`
	IsVisible bool      `db:"is_visible"`
	CreatedAt time.Time `db:"created_at"`
}

// PatternSummary aggregates a rating population for moderator review.
// Distribution buckets are 1★..5★ over all ratings, hidden included;
// AverageRating covers visible ratings only. The two flags are advisory
// signals for a human moderator, never auto-enforcement.
type PatternSummary struct {
	TotalRatings                    int     `json:"total_ratings"`
	AverageRating                   float64 `json:"average_rating"`
	Distribution                    [5]int  `json:"distribution"`
	HiddenCount                     int     `json:"hidden_count"`
	RecentLowRatings                int     `json:"recent_low_ratings"`
	HasMultipleOneStarFromSameRater bool    `json:"has_multiple_one_star_from_same_rater"`
	HasUnusuallyHighHiddenRate      bool    `json:"has_unusually_high_hidden_rate"`
}

// UserRatingSummary is the console's per-user rating view.
type UserRatingSummary struct {
	UserID        uuid.UUID   `json:"user_id"`
	AverageRating float64     `json:"average_rating"`
	TotalRatings  int         `json:"total_ratings"`
	Distribution  map[int]int `json:"distribution"`
	TopTags       []TagCount  `json:"top_tags"`
	RecentRatings []Rating    `json:"recent_ratings"`
	Trend         float64     `json:"trend"`
}
