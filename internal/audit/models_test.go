package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_MarshalPreservesFieldOrder(t *testing.T) {
	snap := Snapshot{}.
		Set("total", 85).
		Set("category", "Excellent").
		Set("average_rating", 4.7)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"total":85,"category":"Excellent","average_rating":4.7}`, string(data))
}

func TestSnapshot_MarshalNilIsNull(t *testing.T) {
	var snap Snapshot
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestSnapshot_SetReplacesExistingKeyInPlace(t *testing.T) {
	snap := Snapshot{}.
		Set("score", 1).
		Set("visible", true).
		Set("score", 5)

	require.Len(t, snap, 2)
	assert.Equal(t, "score", snap[0].Key)
	assert.Equal(t, 5, snap[0].Value)
	assert.Equal(t, "visible", snap[1].Key)
}

func TestSnapshot_UnmarshalPreservesDocumentOrder(t *testing.T) {
	var snap Snapshot
	err := json.Unmarshal([]byte(`{"zeta":1,"alpha":"x","mid":true}`), &snap)
	require.NoError(t, err)

	require.Len(t, snap, 3)
	assert.Equal(t, "zeta", snap[0].Key)
	assert.Equal(t, "alpha", snap[1].Key)
	assert.Equal(t, "mid", snap[2].Key)

	assert.Equal(t, json.Number("1"), snap[0].Value)
	assert.Equal(t, "x", snap[1].Value)
	assert.Equal(t, true, snap[2].Value)
}

func TestSnapshot_UnmarshalNull(t *testing.T) {
	snap := Snapshot{}.Set("stale", 1)
	err := json.Unmarshal([]byte(`null`), &snap)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshot_UnmarshalRejectsNonObject(t *testing.T) {
	var snap Snapshot
	err := json.Unmarshal([]byte(`[1,2,3]`), &snap)
	assert.Error(t, err)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	original := Diff{
		Before: Snapshot{}.Set("total", 60).Set("category", "Good"),
		After:  Snapshot{}.Set("total", 85).Set("category", "Excellent"),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Diff
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Before, 2)
	assert.Equal(t, "total", decoded.Before[0].Key)
	assert.Equal(t, json.Number("60"), decoded.Before[0].Value)
	assert.Equal(t, "category", decoded.Before[1].Key)
	assert.Equal(t, "Good", decoded.Before[1].Value)

	require.Len(t, decoded.After, 2)
	assert.Equal(t, json.Number("85"), decoded.After[0].Value)
}

func TestDiff_IsZero(t *testing.T) {
	assert.True(t, Diff{}.IsZero())
	assert.False(t, Diff{Before: Snapshot{}.Set("x", 1)}.IsZero())
	assert.False(t, Diff{After: Snapshot{}.Set("x", 1)}.IsZero())
}

func TestEntry_JSONShape(t *testing.T) {
	entityID := uuid.New()
	entry := Entry{
		ID:         uuid.New(),
		AdminID:    uuid.New(),
		Action:     ActionHideRating,
		EntityType: EntityRating,
		EntityID:   &entityID,
		Diff: Diff{
			Before: Snapshot{}.Set("is_visible", true),
			After:  Snapshot{}.Set("is_visible", false),
		},
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"id", "admin_id", "action", "entity_type", "entity_id", "diff", "created_at"} {
		assert.Contains(t, raw, key)
	}

	var diff map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["diff"], &diff))
	assert.Contains(t, diff, "before")
	assert.Contains(t, diff, "after")
}

func TestEntry_JSONOmitsAbsentOptionalFields(t *testing.T) {
	entry := Entry{
		ID:         uuid.New(),
		AdminID:    uuid.New(),
		Action:     "purge_expired_sessions",
		EntityType: "session",
		CreatedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "entity_id")
}
