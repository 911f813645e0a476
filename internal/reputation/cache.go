package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/richxcame/ride-reputation/pkg/redis"
)

// DefaultScoreCacheTTL bounds staleness of cached breakdowns between
// recalculations, which overwrite the entry anyway.
const DefaultScoreCacheTTL = 10 * time.Minute

// ScoreCache is a Redis read-through cache for stored breakdowns. Console
// dashboards poll trust scores far more often than admins recalculate them.
type ScoreCache struct {
	client redis.ClientInterface
	ttl    time.Duration
}

// NewScoreCache creates a cache with the given TTL; zero or negative falls
// back to DefaultScoreCacheTTL.
func NewScoreCache(client redis.ClientInterface, ttl time.Duration) *ScoreCache {
	if ttl <= 0 {
		ttl = DefaultScoreCacheTTL
	}
	return &ScoreCache{client: client, ttl: ttl}
}

func trustScoreKey(userID uuid.UUID) string {
	return "trust_score:" + userID.String()
}

// Get returns the cached breakdown or (nil, nil) on a miss. Transient Redis
// faults are retried; a miss is returned immediately.
func (c *ScoreCache) Get(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error) {
	raw, err := redis.RetryableOperation(ctx, func(ctx context.Context) (string, error) {
		value, err := c.client.GetString(ctx, trustScoreKey(userID))
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return value, err
	}, "trust_score_cache_get")
	if err != nil {
		return nil, fmt.Errorf("failed to read trust score cache: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	breakdown := &TrustScoreBreakdown{}
	if err := json.Unmarshal([]byte(raw), breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode cached trust score: %w", err)
	}
	return breakdown, nil
}

// Set stores the breakdown under the user's key for the cache TTL.
func (c *ScoreCache) Set(ctx context.Context, breakdown *TrustScoreBreakdown) error {
	payload, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode trust score for cache: %w", err)
	}
	if err := c.client.SetWithExpiration(ctx, trustScoreKey(breakdown.UserID), payload, c.ttl); err != nil {
		return fmt.Errorf("failed to write trust score cache: %w", err)
	}
	return nil
}

// Invalidate drops the user's cached breakdown.
func (c *ScoreCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Delete(ctx, trustScoreKey(userID)); err != nil {
		return fmt.Errorf("failed to invalidate trust score cache: %w", err)
	}
	return nil
}
