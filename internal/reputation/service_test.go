package reputation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/pkg/eventbus"
)

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserRideStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserRideStats), args.Error(1)
}

type mockScoreStore struct {
	mock.Mock
}

func (m *mockScoreStore) GetTrustScore(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TrustScoreBreakdown), args.Error(1)
}

func (m *mockScoreStore) UpsertTrustScore(ctx context.Context, userID uuid.UUID, breakdown *TrustScoreBreakdown) error {
	args := m.Called(ctx, userID, breakdown)
	return args.Error(0)
}

type mockModerationRepo struct {
	mock.Mock
}

func (m *mockModerationRepo) GetRatingByRideAndRater(ctx context.Context, rideID, raterID uuid.UUID) (*ratings.Rating, error) {
	args := m.Called(ctx, rideID, raterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ratings.Rating), args.Error(1)
}

func (m *mockModerationRepo) HideRating(ctx context.Context, rideID, raterID uuid.UUID) error {
	args := m.Called(ctx, rideID, raterID)
	return args.Error(0)
}

func (m *mockModerationRepo) DeleteRating(ctx context.Context, rideID, raterID uuid.UUID) error {
	args := m.Called(ctx, rideID, raterID)
	return args.Error(0)
}

type mockAuditRecorder struct {
	mock.Mock
}

func (m *mockAuditRecorder) Append(ctx context.Context, entry audit.Entry) (*audit.Entry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Entry), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

type mockScoreCache struct {
	mock.Mock
}

func (m *mockScoreCache) Get(ctx context.Context, userID uuid.UUID) (*TrustScoreBreakdown, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TrustScoreBreakdown), args.Error(1)
}

func (m *mockScoreCache) Set(ctx context.Context, breakdown *TrustScoreBreakdown) error {
	args := m.Called(ctx, breakdown)
	return args.Error(0)
}

func (m *mockScoreCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type serviceMocks struct {
	stats      *mockStatsRepo
	store      *mockScoreStore
	moderation *mockModerationRepo
	auditTrail *mockAuditRecorder
	events     *mockPublisher
}

func newServiceWithMocks() (*Service, *serviceMocks) {
	m := &serviceMocks{
		stats:      &mockStatsRepo{},
		store:      &mockScoreStore{},
		moderation: &mockModerationRepo{},
		auditTrail: &mockAuditRecorder{},
		events:     &mockPublisher{},
	}
	svc := NewService(m.stats, m.store, m.moderation, m.auditTrail, m.events, nil)
	return svc, m
}

func storedEntry(entry audit.Entry) *audit.Entry {
	stored := entry
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now().UTC()
	return &stored
}

func TestRecalculateTrustScore(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	healthyStats := &UserRideStats{
		TotalRides:        20,
		CompletedRides:    15,
		AverageRating:     4.0,
		TotalRatings:      12,
		Cancellations:     5,
		LateCancellations: 2,
		NoShows:           1,
	}

	tests := []struct {
		name       string
		setupMocks func(m *serviceMocks)
		wantErr    bool
		errContain string
		validate   func(t *testing.T, m *serviceMocks, result *RecalculationResult)
	}{
		{
			name: "first score computes stores and reports side effects",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(healthyStats, nil)
				m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)
				m.store.On("UpsertTrustScore", mock.Anything, userID, mock.AnythingOfType("*reputation.TrustScoreBreakdown")).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.AnythingOfType("audit.Entry")).
					Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, eventbus.EventTrustScoreRecalculated, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				require.NotNil(t, result.Breakdown)
				assert.Equal(t, userID, result.Breakdown.UserID)
				assert.Equal(t, ScoreComponents{Rating: 24, Completion: 19, Reliability: 12, Experience: 15}, result.Breakdown.Components)
				assert.Equal(t, 70, result.Breakdown.Total)
				assert.Equal(t, CategoryGood, result.Breakdown.Category)
				assert.Nil(t, result.Previous)

				assert.True(t, result.Audit.Attempted)
				assert.NoError(t, result.Audit.Err)
				assert.True(t, result.Event.Attempted)
				assert.NoError(t, result.Event.Err)

				entry := m.auditTrail.Calls[0].Arguments.Get(1).(audit.Entry)
				assert.Equal(t, adminID, entry.AdminID)
				assert.Equal(t, audit.ActionRecalculateTrustScore, entry.Action)
				assert.Equal(t, audit.EntityTrustScore, entry.EntityType)
				require.NotNil(t, entry.EntityID)
				assert.Equal(t, userID, *entry.EntityID)
				assert.Nil(t, entry.Diff.Before)
				total, ok := entry.Diff.After.Get("total")
				require.True(t, ok)
				assert.Equal(t, 70, total)
				category, ok := entry.Diff.After.Get("category")
				require.True(t, ok)
				assert.Equal(t, "Good", category)
			},
		},
		{
			name: "prior score lands in diff and event payload",
			setupMocks: func(m *serviceMocks) {
				prior := &TrustScoreBreakdown{UserID: userID, Total: 55, Category: CategoryFair}
				m.stats.On("GetUserStats", mock.Anything, userID).Return(healthyStats, nil)
				m.store.On("GetTrustScore", mock.Anything, userID).Return(prior, nil)
				m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, eventbus.EventTrustScoreRecalculated, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				require.NotNil(t, result.Previous)
				assert.Equal(t, 55, result.Previous.Total)

				entry := m.auditTrail.Calls[0].Arguments.Get(1).(audit.Entry)
				total, ok := entry.Diff.Before.Get("total")
				require.True(t, ok)
				assert.Equal(t, 55, total)
				category, ok := entry.Diff.Before.Get("category")
				require.True(t, ok)
				assert.Equal(t, "Fair", category)

				data := m.events.Calls[0].Arguments.Get(2).(eventbus.TrustScoreRecalculatedData)
				require.NotNil(t, data.PreviousTotal)
				assert.Equal(t, 55, *data.PreviousTotal)
				assert.Equal(t, 70, data.Total)
			},
		},
		{
			name: "no history still produces a valid breakdown",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(&UserRideStats{}, nil)
				m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)
				m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				assert.Equal(t, 25, result.Breakdown.Total)
				assert.Equal(t, CategoryPoor, result.Breakdown.Category)
			},
		},
		{
			name: "unknown user",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(nil, nil)
			},
			wantErr:    true,
			errContain: "user not found",
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				m.store.AssertNotCalled(t, "UpsertTrustScore", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "statistics read failure",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(nil, errors.New("connection refused"))
			},
			wantErr:    true,
			errContain: "internal server error",
		},
		{
			name: "prior score read failure",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(healthyStats, nil)
				m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, errors.New("connection refused"))
			},
			wantErr:    true,
			errContain: "internal server error",
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				m.store.AssertNotCalled(t, "UpsertTrustScore", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "store write failure skips side effects",
			setupMocks: func(m *serviceMocks) {
				m.stats.On("GetUserStats", mock.Anything, userID).Return(healthyStats, nil)
				m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)
				m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(errors.New("deadlock detected"))
			},
			wantErr:    true,
			errContain: "internal server error",
			validate: func(t *testing.T, m *serviceMocks, result *RecalculationResult) {
				m.auditTrail.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newServiceWithMocks()
			tt.setupMocks(m)

			result, err := svc.RecalculateTrustScore(context.Background(), userID, adminID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
			}
			if tt.validate != nil {
				tt.validate(t, m, result)
			}
		})
	}
}

func TestRecalculateTrustScore_AuditFailureDoesNotFailCall(t *testing.T) {
	userID := uuid.New()
	svc, m := newServiceWithMocks()

	m.stats.On("GetUserStats", mock.Anything, userID).Return(&UserRideStats{TotalRides: 10, CompletedRides: 10}, nil)
	m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)
	m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(nil)
	m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(nil, errors.New("audit store down"))
	m.events.On("Publish", mock.Anything, eventbus.EventTrustScoreRecalculated, mock.Anything).Return(nil)

	result, err := svc.RecalculateTrustScore(context.Background(), userID, uuid.New())

	require.NoError(t, err)
	require.NotNil(t, result.Breakdown)
	assert.True(t, result.Audit.Attempted)
	assert.True(t, result.Audit.Failed())
	assert.ErrorContains(t, result.Audit.Err, "audit store down")

	// The event side effect still runs after the audit failure.
	assert.True(t, result.Event.Attempted)
	assert.NoError(t, result.Event.Err)
	m.events.AssertExpectations(t)
}

func TestRecalculateTrustScore_EventFailureDoesNotFailCall(t *testing.T) {
	userID := uuid.New()
	svc, m := newServiceWithMocks()

	m.stats.On("GetUserStats", mock.Anything, userID).Return(&UserRideStats{TotalRides: 3, CompletedRides: 3}, nil)
	m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)
	m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(nil)
	m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
	m.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats unavailable"))

	result, err := svc.RecalculateTrustScore(context.Background(), userID, uuid.New())

	require.NoError(t, err)
	assert.True(t, result.Audit.Attempted)
	assert.NoError(t, result.Audit.Err)
	assert.True(t, result.Event.Failed())
	assert.ErrorContains(t, result.Event.Err, "nats unavailable")
}

func TestRecalculateTrustScore_IdempotentForUnchangedStats(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()
	svc, m := newServiceWithMocks()

	stats := &UserRideStats{
		TotalRides:     20,
		CompletedRides: 15,
		AverageRating:  4.0,
		TotalRatings:   12,
		Cancellations:  5, LateCancellations: 2, NoShows: 1,
	}
	// Steady state: the stored score already matches what these stats produce.
	stored := &TrustScoreBreakdown{UserID: userID, Total: 70, Category: CategoryGood}

	m.stats.On("GetUserStats", mock.Anything, userID).Return(stats, nil)
	m.store.On("GetTrustScore", mock.Anything, userID).Return(stored, nil)
	m.store.On("UpsertTrustScore", mock.Anything, userID, mock.Anything).Return(nil)

	var entries []audit.Entry
	m.auditTrail.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			entries = append(entries, args.Get(1).(audit.Entry))
		}).
		Return(storedEntry(audit.Entry{}), nil)
	m.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.RecalculateTrustScore(context.Background(), userID, adminID)
	require.NoError(t, err)
	second, err := svc.RecalculateTrustScore(context.Background(), userID, adminID)
	require.NoError(t, err)

	assert.Equal(t, first.Breakdown.Components, second.Breakdown.Components)
	assert.Equal(t, first.Breakdown.Total, second.Breakdown.Total)
	assert.Equal(t, first.Breakdown.Category, second.Breakdown.Category)
	assert.Equal(t, first.Breakdown.Calculations, second.Breakdown.Calculations)

	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Diff, entries[1].Diff)
	before, ok := entries[1].Diff.Before.Get("total")
	require.True(t, ok)
	after, ok := entries[1].Diff.After.Get("total")
	require.True(t, ok)
	assert.Equal(t, before, after)

	m.store.AssertNumberOfCalls(t, "UpsertTrustScore", 2)
}

func TestModerateRating(t *testing.T) {
	rideID := uuid.New()
	raterID := uuid.New()
	ratedID := uuid.New()
	adminID := uuid.New()

	visibleRating := func() *ratings.Rating {
		return &ratings.Rating{
			RideID:    rideID,
			RaterID:   raterID,
			RatedID:   ratedID,
			RaterType: ratings.RaterTypeRider,
			Score:     1,
			IsVisible: true,
		}
	}

	tests := []struct {
		name       string
		action     ratings.ModerationAction
		reason     string
		setupMocks func(m *serviceMocks)
		wantErr    bool
		errContain string
		validate   func(t *testing.T, m *serviceMocks, result *ModerationResult)
	}{
		{
			name:   "hide sets visibility false and audits",
			action: ratings.ModerationActionHide,
			reason: "abusive review",
			setupMocks: func(m *serviceMocks) {
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(visibleRating(), nil)
				m.moderation.On("HideRating", mock.Anything, rideID, raterID).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, eventbus.EventRatingHidden, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *ModerationResult) {
				require.NotNil(t, result.Rating)
				assert.False(t, result.Rating.IsVisible)
				assert.Equal(t, ratings.ModerationActionHide, result.Action)
				assert.True(t, result.Audit.Attempted)
				assert.True(t, result.Event.Attempted)

				entry := m.auditTrail.Calls[0].Arguments.Get(1).(audit.Entry)
				assert.Equal(t, audit.ActionHideRating, entry.Action)
				assert.Equal(t, audit.EntityRating, entry.EntityType)

				score, ok := entry.Diff.Before.Get("score")
				require.True(t, ok)
				assert.Equal(t, 1, score)
				visibleBefore, ok := entry.Diff.Before.Get("is_visible")
				require.True(t, ok)
				assert.Equal(t, true, visibleBefore)
				visibleAfter, ok := entry.Diff.After.Get("is_visible")
				require.True(t, ok)
				assert.Equal(t, false, visibleAfter)
				reason, ok := entry.Diff.After.Get("reason")
				require.True(t, ok)
				assert.Equal(t, "abusive review", reason)

				data := m.events.Calls[0].Arguments.Get(2).(eventbus.RatingHiddenData)
				assert.Equal(t, ratedID, data.RatedID)
				assert.Equal(t, adminID, data.AdminID)
			},
		},
		{
			name:   "hiding an already hidden rating still audits",
			action: ratings.ModerationActionHide,
			setupMocks: func(m *serviceMocks) {
				hidden := visibleRating()
				hidden.IsVisible = false
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(hidden, nil)
				m.moderation.On("HideRating", mock.Anything, rideID, raterID).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, eventbus.EventRatingHidden, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *ModerationResult) {
				assert.True(t, result.Audit.Attempted)

				entry := m.auditTrail.Calls[0].Arguments.Get(1).(audit.Entry)
				visibleBefore, ok := entry.Diff.Before.Get("is_visible")
				require.True(t, ok)
				assert.Equal(t, false, visibleBefore)
			},
		},
		{
			name:   "delete removes the rating",
			action: ratings.ModerationActionDelete,
			setupMocks: func(m *serviceMocks) {
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(visibleRating(), nil)
				m.moderation.On("DeleteRating", mock.Anything, rideID, raterID).Return(nil)
				m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(storedEntry(audit.Entry{}), nil)
				m.events.On("Publish", mock.Anything, eventbus.EventRatingDeleted, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, m *serviceMocks, result *ModerationResult) {
				assert.Nil(t, result.Rating)
				assert.Equal(t, ratings.ModerationActionDelete, result.Action)

				entry := m.auditTrail.Calls[0].Arguments.Get(1).(audit.Entry)
				assert.Equal(t, audit.ActionDeleteRating, entry.Action)
				deleted, ok := entry.Diff.After.Get("deleted")
				require.True(t, ok)
				assert.Equal(t, true, deleted)
			},
		},
		{
			name:       "invalid action",
			action:     ratings.ModerationAction("escalate"),
			setupMocks: func(m *serviceMocks) {},
			wantErr:    true,
			errContain: "invalid moderation action",
			validate: func(t *testing.T, m *serviceMocks, result *ModerationResult) {
				m.moderation.AssertNotCalled(t, "GetRatingByRideAndRater", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:   "unknown rating pair",
			action: ratings.ModerationActionHide,
			setupMocks: func(m *serviceMocks) {
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(nil, nil)
			},
			wantErr:    true,
			errContain: "rating not found",
		},
		{
			name:   "lookup failure",
			action: ratings.ModerationActionHide,
			setupMocks: func(m *serviceMocks) {
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(nil, errors.New("connection refused"))
			},
			wantErr:    true,
			errContain: "internal server error",
		},
		{
			name:   "hide write failure skips side effects",
			action: ratings.ModerationActionHide,
			setupMocks: func(m *serviceMocks) {
				m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(visibleRating(), nil)
				m.moderation.On("HideRating", mock.Anything, rideID, raterID).Return(errors.New("deadlock detected"))
			},
			wantErr:    true,
			errContain: "internal server error",
			validate: func(t *testing.T, m *serviceMocks, result *ModerationResult) {
				m.auditTrail.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newServiceWithMocks()
			tt.setupMocks(m)

			result, err := svc.ModerateRating(context.Background(), rideID, raterID, tt.action, adminID, tt.reason)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, rideID, result.RideID)
				assert.Equal(t, raterID, result.RaterID)
			}
			if tt.validate != nil {
				tt.validate(t, m, result)
			}
		})
	}
}

func TestModerateRating_AuditFailureDoesNotFailModeration(t *testing.T) {
	rideID := uuid.New()
	raterID := uuid.New()
	svc, m := newServiceWithMocks()

	m.moderation.On("GetRatingByRideAndRater", mock.Anything, rideID, raterID).Return(&ratings.Rating{
		RideID:    rideID,
		RaterID:   raterID,
		RatedID:   uuid.New(),
		Score:     2,
		IsVisible: true,
	}, nil)
	m.moderation.On("HideRating", mock.Anything, rideID, raterID).Return(nil)
	m.auditTrail.On("Append", mock.Anything, mock.Anything).Return(nil, errors.New("audit store down"))
	m.events.On("Publish", mock.Anything, eventbus.EventRatingHidden, mock.Anything).Return(nil)

	result, err := svc.ModerateRating(context.Background(), rideID, raterID, ratings.ModerationActionHide, uuid.New(), "")

	require.NoError(t, err)
	assert.True(t, result.Audit.Failed())
	assert.True(t, result.Event.Attempted)
	assert.NoError(t, result.Event.Err)
	m.moderation.AssertExpectations(t)
}

func TestGetBreakdown(t *testing.T) {
	userID := uuid.New()

	stored := &TrustScoreBreakdown{UserID: userID, Total: 82, Category: CategoryExcellent}

	t.Run("cache hit skips the store", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		cache := &mockScoreCache{}
		svc.cache = cache

		cache.On("Get", mock.Anything, userID).Return(stored, nil)

		breakdown, err := svc.GetBreakdown(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 82, breakdown.Total)
		m.store.AssertNotCalled(t, "GetTrustScore", mock.Anything, mock.Anything)
	})

	t.Run("cache miss reads the store and backfills", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		cache := &mockScoreCache{}
		svc.cache = cache

		cache.On("Get", mock.Anything, userID).Return(nil, nil)
		m.store.On("GetTrustScore", mock.Anything, userID).Return(stored, nil)
		cache.On("Set", mock.Anything, stored).Return(nil)

		breakdown, err := svc.GetBreakdown(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 82, breakdown.Total)
		cache.AssertExpectations(t)
	})

	t.Run("cache fault falls back to the store", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		cache := &mockScoreCache{}
		svc.cache = cache

		cache.On("Get", mock.Anything, userID).Return(nil, errors.New("redis: connection refused"))
		m.store.On("GetTrustScore", mock.Anything, userID).Return(stored, nil)
		cache.On("Set", mock.Anything, stored).Return(nil)

		breakdown, err := svc.GetBreakdown(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 82, breakdown.Total)
	})

	t.Run("never computed is not found", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, nil)

		breakdown, err := svc.GetBreakdown(context.Background(), userID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "trust score not computed")
		assert.Nil(t, breakdown)
	})

	t.Run("store fault", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.store.On("GetTrustScore", mock.Anything, userID).Return(nil, errors.New("connection refused"))

		_, err := svc.GetBreakdown(context.Background(), userID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "internal server error")
	})

	t.Run("works without a cache", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.store.On("GetTrustScore", mock.Anything, userID).Return(stored, nil)

		breakdown, err := svc.GetBreakdown(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 82, breakdown.Total)
	})
}

func TestGetUserStats(t *testing.T) {
	userID := uuid.New()

	t.Run("returns aggregate stats", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.stats.On("GetUserStats", mock.Anything, userID).Return(&UserRideStats{TotalRides: 7, RidesAsRider: 4, RidesAsDriver: 3}, nil)

		stats, err := svc.GetUserStats(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, 7, stats.TotalRides)
		assert.Equal(t, 4, stats.RidesAsRider)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.stats.On("GetUserStats", mock.Anything, userID).Return(nil, nil)

		_, err := svc.GetUserStats(context.Background(), userID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")
	})

	t.Run("storage fault", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.stats.On("GetUserStats", mock.Anything, userID).Return(nil, errors.New("connection refused"))

		_, err := svc.GetUserStats(context.Background(), userID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "internal server error")
	})
}
