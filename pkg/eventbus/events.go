package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types double as NATS subjects.
const (
	EventTrustScoreRecalculated = "reputation.trust_score.recalculated"
	EventRatingHidden           = "reputation.rating.hidden"
	EventRatingDeleted          = "reputation.rating.deleted"
	EventVerificationApproved   = "reputation.verification.approved"
	EventVerificationRejected   = "reputation.verification.rejected"
)

// SubjectReputationAll matches every reputation event.
const SubjectReputationAll = "reputation.>"

// Event is the wire envelope for all published events.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// TrustScoreRecalculatedData is emitted after a trust score upsert.
// PreviousTotal is nil when the user had no stored score before.
type TrustScoreRecalculatedData struct {
	UserID        uuid.UUID `json:"user_id"`
	AdminID       uuid.UUID `json:"admin_id"`
	Total         int       `json:"total"`
	Category      string    `json:"category"`
	PreviousTotal *int      `json:"previous_total,omitempty"`
}

// RatingHiddenData is emitted when a moderator hides a rating.
type RatingHiddenData struct {
	RideID  uuid.UUID `json:"ride_id"`
	RaterID uuid.UUID `json:"rater_id"`
	RatedID uuid.UUID `json:"rated_id"`
	AdminID uuid.UUID `json:"admin_id"`
}

// RatingDeletedData is emitted when a moderator permanently removes a rating.
type RatingDeletedData struct {
	RideID  uuid.UUID `json:"ride_id"`
	RaterID uuid.UUID `json:"rater_id"`
	RatedID uuid.UUID `json:"rated_id"`
	AdminID uuid.UUID `json:"admin_id"`
}

// VerificationApprovedData is emitted when an admin approves a verification
// request.
type VerificationApprovedData struct {
	RequestID    uuid.UUID `json:"request_id"`
	UserID       uuid.UUID `json:"user_id"`
	AdminID      uuid.UUID `json:"admin_id"`
	DocumentType string    `json:"document_type"`
}

// VerificationRejectedData is emitted when an admin rejects a verification
// request.
type VerificationRejectedData struct {
	RequestID    uuid.UUID `json:"request_id"`
	UserID       uuid.UUID `json:"user_id"`
	AdminID      uuid.UUID `json:"admin_id"`
	DocumentType string    `json:"document_type"`
	Reason       string    `json:"reason"`
}
