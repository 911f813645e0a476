package ratings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/richxcame/ride-reputation/pkg/database"
)

const ratingColumns = `ride_id, rater_id, rated_id, rater_type, score, review, tags, is_visible, created_at, updated_at`

// trendWindow is how far back the rating trend compares against the
// overall average.
const trendWindow = 30 * 24 * time.Hour

// Repository handles database access for ratings
type Repository struct {
	db *database.DBPool
}

// NewRepository creates a new ratings repository
func NewRepository(db *database.DBPool) *Repository {
	return &Repository{db: db}
}

// GetRatingByRideAndRater returns the rating identified by its composite
// key, or nil when no such rating exists. Reads the primary because the
// moderation path snapshots the row it is about to change.
func (r *Repository) GetRatingByRideAndRater(ctx context.Context, rideID, raterID uuid.UUID) (*Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE ride_id = $1 AND rater_id = $2`, ratingColumns)

	rating := &Rating{}
	var tags []string
	started := time.Now()
	err := r.db.GetPrimary().QueryRow(ctx, query, rideID, raterID).Scan(
		&rating.RideID, &rating.RaterID, &rating.RatedID, &rating.RaterType,
		&rating.Score, &rating.Review, &tags, &rating.IsVisible,
		&rating.CreatedAt, &rating.UpdatedAt,
	)
	r.db.RecordQuery("ratings_get_by_ride_and_rater", started, err)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	rating.Tags = toRatingTags(tags)
	return rating, nil
}

// GetAverageRating returns the average over the user's visible ratings
// and the count of all their ratings, hidden included.
func (r *Repository) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(CASE WHEN is_visible THEN score END)::float8, 0), COUNT(*)
		FROM ratings
		WHERE rated_id = $1
	`

	var avg float64
	var total int
	started := time.Now()
	err := r.db.GetReplica().QueryRow(ctx, query, userID).Scan(&avg, &total)
	r.db.RecordQuery("ratings_average", started, err)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get average rating: %w", err)
	}
	return avg, total, nil
}

// GetRatingDistribution returns counts per star bucket for all of the
// user's ratings. Buckets with no ratings are present with a zero count.
func (r *Repository) GetRatingDistribution(ctx context.Context, userID uuid.UUID) (map[int]int, error) {
	query := `
		SELECT score, COUNT(*)
		FROM ratings
		WHERE rated_id = $1
		GROUP BY score
	`

	started := time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, userID)
	r.db.RecordQuery("ratings_distribution", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating distribution: %w", err)
	}
	defer rows.Close()

	dist := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for rows.Next() {
		var score, count int
		if err := rows.Scan(&score, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating distribution: %w", err)
		}
		dist[score] = count
	}
	return dist, nil
}

// GetTopTags returns the most frequent tags on the user's visible ratings.
func (r *Repository) GetTopTags(ctx context.Context, userID uuid.UUID, limit int) ([]TagCount, error) {
	query := `
		SELECT tag, COUNT(*)
		FROM ratings, unnest(tags) AS tag
		WHERE rated_id = $1 AND is_visible = true
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag
		LIMIT $2
	`

	started := time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, userID, limit)
	r.db.RecordQuery("ratings_top_tags", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get top tags: %w", err)
	}
	defer rows.Close()

	tags := make([]TagCount, 0)
	for rows.Next() {
		var tc TagCount
		var tag string
		if err := rows.Scan(&tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		tc.Tag = RatingTag(tag)
		tags = append(tags, tc)
	}
	return tags, nil
}

// GetRecentRatings returns the user's newest visible ratings.
func (r *Repository) GetRecentRatings(ctx context.Context, userID uuid.UUID, limit int) ([]Rating, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ratings
		WHERE rated_id = $1 AND is_visible = true
		ORDER BY created_at DESC
		LIMIT $2`, ratingColumns)

	started := time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, userID, limit)
	r.db.RecordQuery("ratings_recent", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]Rating, 0)
	for rows.Next() {
		var rating Rating
		var tags []string
		err := rows.Scan(
			&rating.RideID, &rating.RaterID, &rating.RatedID, &rating.RaterType,
			&rating.Score, &rating.Review, &tags, &rating.IsVisible,
			&rating.CreatedAt, &rating.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rating.Tags = toRatingTags(tags)
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

// GetRatingTrend returns how the user's recent visible average compares
// to their overall visible average. Positive means improving; zero when
// the user has no ratings inside the window.
func (r *Repository) GetRatingTrend(ctx context.Context, userID uuid.UUID) (float64, error) {
	query := `
		SELECT CASE
			WHEN COUNT(CASE WHEN created_at >= $2 THEN 1 END) = 0 THEN 0
			ELSE COALESCE(AVG(CASE WHEN created_at >= $2 THEN score END)::float8, 0)
			   - COALESCE(AVG(score)::float8, 0)
		END
		FROM ratings
		WHERE rated_id = $1 AND is_visible = true
	`

	var trend float64
	started := time.Now()
	err := r.db.GetReplica().QueryRow(ctx, query, userID, time.Now().UTC().Add(-trendWindow)).Scan(&trend)
	r.db.RecordQuery("ratings_trend", started, err)
	if err != nil {
		return 0, fmt.Errorf("failed to get rating trend: %w", err)
	}
	return trend, nil
}

// GetRatingFacts fetches the filtered population for pattern analysis.
func (r *Repository) GetRatingFacts(ctx context.Context, filter PatternFilter) ([]RatingFact, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.RatedUserID != nil {
		where = append(where, fmt.Sprintf("rated_id = $%d", argIdx))
		args = append(args, *filter.RatedUserID)
		argIdx++
	}
	if filter.RideID != nil {
		where = append(where, fmt.Sprintf("ride_id = $%d", argIdx))
		args = append(args, *filter.RideID)
		argIdx++
	}

	query := fmt.Sprintf(`
		SELECT score, rater_id, is_visible, created_at
		FROM ratings
		WHERE %s`, strings.Join(where, " AND "))

	started := time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, args...)
	r.db.RecordQuery("ratings_facts", started, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating facts: %w", err)
	}
	defer rows.Close()

	facts := make([]RatingFact, 0)
	for rows.Next() {
		var f RatingFact
		if err := rows.Scan(&f.Score, &f.RaterID, &f.IsVisible, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// HideRating flips the rating invisible. Hiding an already-hidden rating
// is a no-op at the storage layer.
func (r *Repository) HideRating(ctx context.Context, rideID, raterID uuid.UUID) error {
	query := `
		UPDATE ratings
		SET is_visible = false, updated_at = NOW()
		WHERE ride_id = $1 AND rater_id = $2
	`

	started := time.Now()
	_, err := r.db.GetPrimary().Exec(ctx, query, rideID, raterID)
	r.db.RecordQuery("ratings_hide", started, err)
	if err != nil {
		return fmt.Errorf("failed to hide rating: %w", err)
	}
	return nil
}

// DeleteRating removes the rating permanently.
func (r *Repository) DeleteRating(ctx context.Context, rideID, raterID uuid.UUID) error {
	query := `DELETE FROM ratings WHERE ride_id = $1 AND rater_id = $2`

	started := time.Now()
	_, err := r.db.GetPrimary().Exec(ctx, query, rideID, raterID)
	r.db.RecordQuery("ratings_delete", started, err)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	return nil
}

func toRatingTags(tags []string) []RatingTag {
	if tags == nil {
		return nil
	}
	out := make([]RatingTag, len(tags))
	for i, t := range tags {
		out[i] = RatingTag(t)
	}
	return out
}
