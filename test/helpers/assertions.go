package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/internal/reputation"
)

// AssertBreakdownValid asserts the structural invariants every computed
// breakdown must hold: component bounds, total within range, total equal to
// the component sum, and a category consistent with the total.
func AssertBreakdownValid(t *testing.T, b *reputation.TrustScoreBreakdown) {
	t.Helper()
	assert.GreaterOrEqual(t, b.Components.Rating, 0)
	assert.LessOrEqual(t, b.Components.Rating, reputation.MaxRatingScore)
	assert.GreaterOrEqual(t, b.Components.Completion, 0)
	assert.LessOrEqual(t, b.Components.Completion, reputation.MaxCompletionScore)
	assert.GreaterOrEqual(t, b.Components.Reliability, 0)
	assert.LessOrEqual(t, b.Components.Reliability, reputation.MaxReliabilityScore)
	assert.GreaterOrEqual(t, b.Components.Experience, 0)
	assert.LessOrEqual(t, b.Components.Experience, reputation.MaxExperienceScore)

	sum := b.Components.Rating + b.Components.Completion + b.Components.Reliability + b.Components.Experience
	assert.Equal(t, sum, b.Total)
	assert.GreaterOrEqual(t, b.Total, 0)
	assert.LessOrEqual(t, b.Total, 100)
	assert.Equal(t, reputation.Categorize(b.Total), b.Category)
}

// AssertAuditEntry asserts the identifying fields of one audit entry
func AssertAuditEntry(t *testing.T, entry *audit.Entry, action, entityType string) {
	t.Helper()
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", entry.ID.String())
	assert.Equal(t, action, entry.Action)
	assert.Equal(t, entityType, entry.EntityType)
	assert.False(t, entry.CreatedAt.IsZero())
}

// AssertNewestFirst asserts that audit entries are ordered by creation time
// descending.
func AssertNewestFirst(t *testing.T, entries []audit.Entry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i-1].CreatedAt.Before(entries[i].CreatedAt),
			"entries must be ordered newest first")
	}
}
