package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/ride-reputation/pkg/redis"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ScoreCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return NewScoreCache(&redis.Client{Client: db}, ttl), mock
}

func cachedBreakdown(userID uuid.UUID) *TrustScoreBreakdown {
	return &TrustScoreBreakdown{
		UserID:       userID,
		Components:   ScoreComponents{Rating: 24, Completion: 19, Reliability: 12, Experience: 15},
		Total:        70,
		Category:     CategoryGood,
		CalculatedAt: time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestScoreCache_GetHit(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	payload, err := json.Marshal(cachedBreakdown(userID))
	require.NoError(t, err)
	mock.ExpectGet(trustScoreKey(userID)).SetVal(string(payload))

	got, err := cache.Get(context.Background(), userID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, 70, got.Total)
	assert.Equal(t, CategoryGood, got.Category)
	assert.Equal(t, ScoreComponents{Rating: 24, Completion: 19, Reliability: 12, Experience: 15}, got.Components)
	assert.True(t, got.CalculatedAt.Equal(time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreCache_GetMissIsNotAnError(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	mock.ExpectGet(trustScoreKey(userID)).RedisNil()

	got, err := cache.Get(context.Background(), userID)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreCache_GetRetriesTransientFaults(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	payload, err := json.Marshal(cachedBreakdown(userID))
	require.NoError(t, err)
	mock.ExpectGet(trustScoreKey(userID)).SetErr(errors.New("connection refused"))
	mock.ExpectGet(trustScoreKey(userID)).SetVal(string(payload))

	got, err := cache.Get(context.Background(), userID)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 70, got.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreCache_GetDoesNotRetryCallerErrors(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	mock.ExpectGet(trustScoreKey(userID)).SetErr(errors.New("WRONGTYPE Operation against a key holding the wrong kind of value"))

	got, err := cache.Get(context.Background(), userID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read trust score cache")
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreCache_GetRejectsCorruptPayload(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	mock.ExpectGet(trustScoreKey(userID)).SetVal("{not json")

	got, err := cache.Get(context.Background(), userID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode cached trust score")
	assert.Nil(t, got)
}

func TestScoreCache_Set(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	breakdown := cachedBreakdown(userID)
	payload, err := json.Marshal(breakdown)
	require.NoError(t, err)
	mock.ExpectSet(trustScoreKey(userID), payload, time.Minute).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), breakdown))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreCache_SetSurfacesWriteFailure(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	breakdown := cachedBreakdown(userID)
	payload, err := json.Marshal(breakdown)
	require.NoError(t, err)
	mock.ExpectSet(trustScoreKey(userID), payload, time.Minute).SetErr(errors.New("READONLY You can't write against a read only replica"))

	err = cache.Set(context.Background(), breakdown)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write trust score cache")
}

func TestScoreCache_Invalidate(t *testing.T) {
	userID := uuid.New()
	cache, mock := newTestCache(t, time.Minute)

	mock.ExpectDel(trustScoreKey(userID)).SetVal(1)

	require.NoError(t, cache.Invalidate(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewScoreCache_DefaultTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()

	cache := NewScoreCache(&redis.Client{Client: db}, 0)

	assert.Equal(t, DefaultScoreCacheTTL, cache.ttl)
}
