package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/richxcame/ride-reputation/pkg/database"
)

// ScoreStore persists computed breakdowns in the trust_scores table, one
// row per user, replaced wholesale on every recalculation.
type ScoreStore struct {
	db *database.DBPool
}

// NewScoreStore creates a trust score store.
func NewScoreStore(db *database.DBPool) *ScoreStore {
	return &ScoreStore{db: db}
}

// GetTrustScore returns the stored breakdown, or (nil, nil) when no score
// was ever computed for the user.
func (s *ScoreStore) GetTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error) {
	query := `
		SELECT user_id, rating_score, completion_score, reliability_score,
			experience_score, total, category, calculations, calculated_at
		FROM trust_scores
		WHERE user_id = $1`

	started := time.Now()
	breakdown := &TrustScoreBreakdown{}
	var calculations []byte
	err := s.db.GetReplica().QueryRow(ctx, query, userID).Scan(
		&breakdown.UserID,
		&breakdown.Components.Rating,
		&breakdown.Components.Completion,
		&breakdown.Components.Reliability,
		&breakdown.Components.Experience,
		&breakdown.Total,
		&breakdown.Category,
		&calculations,
		&breakdown.CalculatedAt,
	)
	s.db.RecordQuery("trust_score_get", started, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trust score: %w", err)
	}

	if len(calculations) > 0 {
		if err := json.Unmarshal(calculations, &breakdown.Calculations); err != nil {
			return nil, fmt.Errorf("failed to decode trust score calculations: %w", err)
		}
	}
	return breakdown, nil
}

// UpsertTrustScore replaces the user's stored breakdown in a single
// statement. Concurrent recalculations are last-writer-wins.
func (s *ScoreStore) UpsertTrustScore(ctx context.Context, userID uuid.UUID, breakdown *TrustScoreBreakdown) error {
	calculations, err := json.Marshal(breakdown.Calculations)
	if err != nil {
		return fmt.Errorf("failed to encode trust score calculations: %w", err)
	}

	query := `
		INSERT INTO trust_scores (
			user_id, rating_score, completion_score, reliability_score,
			experience_score, total, category, calculations, calculated_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			rating_score = EXCLUDED.rating_score,
			completion_score = EXCLUDED.completion_score,
			reliability_score = EXCLUDED.reliability_score,
			experience_score = EXCLUDED.experience_score,
			total = EXCLUDED.total,
			category = EXCLUDED.category,
			calculations = EXCLUDED.calculations,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = NOW()`

	started := time.Now()
	_, err = s.db.GetPrimary().Exec(ctx, query,
		userID,
		breakdown.Components.Rating,
		breakdown.Components.Completion,
		breakdown.Components.Reliability,
		breakdown.Components.Experience,
		breakdown.Total,
		string(breakdown.Category),
		calculations,
		breakdown.CalculatedAt,
	)
	s.db.RecordQuery("trust_score_upsert", started, err)
	if err != nil {
		return fmt.Errorf("failed to upsert trust score: %w", err)
	}
	return nil
}
