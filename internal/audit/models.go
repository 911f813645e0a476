package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actions this service records. Action is free-form; other services may
// append their own verbs through the same trail.
const (
	ActionRecalculateTrustScore = "recalculate_trust_score"
	ActionHideRating            = "hide_rating"
	ActionDeleteRating          = "delete_rating"
	ActionApproveVerification   = "approve_verification"
	ActionRejectVerification    = "reject_verification"
)

// Entity types referenced by entries written by this service.
const (
	EntityTrustScore          = "trust_score"
	EntityRating              = "rating"
	EntityVerificationRequest = "verification_request"
)

// Field is one captured attribute of an entity snapshot.
type Field struct {
	Key   string
	Value interface{}
}

// Snapshot captures the fields relevant to one action, in a fixed order.
// Different actions legitimately snapshot different fields; only what
// changed belongs here, not full entity dumps.
type Snapshot []Field

// Set appends the field, replacing the value in place if the key is
// already present so the original ordering is kept.
func (s Snapshot) Set(key string, value interface{}) Snapshot {
	for i := range s {
		if s[i].Key == key {
			s[i].Value = value
			return s
		}
	}
	return append(s, Field{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (s Snapshot) Get(key string) (interface{}, bool) {
	for i := range s {
		if s[i].Key == key {
			return s[i].Value, true
		}
	}
	return nil, false
}

// MarshalJSON renders the snapshot as a JSON object in field order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving its document field order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot must be a JSON object")
	}

	out := Snapshot{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("snapshot key must be a string")
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode snapshot field %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Diff holds the optional before/after snapshots attached to an entry.
type Diff struct {
	Before Snapshot `json:"before,omitempty"`
	After  Snapshot `json:"after,omitempty"`
}

// IsZero reports whether the diff carries no snapshots at all.
func (d Diff) IsZero() bool {
	return d.Before == nil && d.After == nil
}

// Entry is one immutable audit record. Entries are appended and read;
// no code path updates or deletes them.
type Entry struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	AdminID    uuid.UUID  `json:"admin_id" db:"admin_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty" db:"entity_id"`
	Diff       Diff       `json:"diff"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// ListFilter narrows a List call. Nil/empty fields are ignored; From and
// To are inclusive bounds on created_at.
type ListFilter struct {
	AdminID    *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// EntryPage is one page of entries, newest first, with pagination totals.
type EntryPage struct {
	Entries    []Entry `json:"entries"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}
