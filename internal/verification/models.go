package verification

import (
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/pkg/common"
)

// DocumentType classifies the document attached to a verification request.
type DocumentType string

const (
	DocumentTypeDriversLicense      DocumentType = "drivers_license"
	DocumentTypeNationalID          DocumentType = "national_id"
	DocumentTypePassport            DocumentType = "passport"
	DocumentTypeVehicleRegistration DocumentType = "vehicle_registration"
)

// IsValid reports whether the document type is one this service accepts.
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeDriversLicense, DocumentTypeNationalID, DocumentTypePassport, DocumentTypeVehicleRegistration:
		return true
	}
	return false
}

// Status is the review state of a verification request. Pending requests
// move to approved or rejected exactly once.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether the status is a known review state.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request is one identity document awaiting (or past) admin review. The
// document itself lives in object storage under DocumentKey.
type Request struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id"`
	DocumentType DocumentType `json:"document_type" db:"document_type"`
	DocumentKey  string       `json:"document_key" db:"document_key"`
	Status       Status       `json:"status" db:"status"`
	SubmittedAt  time.Time    `json:"submitted_at" db:"submitted_at"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy   *uuid.UUID   `json:"reviewed_by,omitempty" db:"reviewed_by"`
	Reason       *string      `json:"reason,omitempty" db:"reason"`
}

// RequestDetail is a request plus a short-lived link to view the document.
// DocumentURL is empty when no object storage is configured.
type RequestDetail struct {
	Request
	DocumentURL string `json:"document_url,omitempty"`
}

// DecisionResult separates the reviewed request (the primary outcome) from
// the audit and event side-effect outcomes.
type DecisionResult struct {
	Request *Request          `json:"request"`
	Audit   common.SideEffect `json:"audit"`
	Event   common.SideEffect `json:"event"`
}
