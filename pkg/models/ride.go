package models

import (
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the lifecycle state of a ride
type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// CancellationCategory classifies who backed out of a ride and how
type CancellationCategory string

const (
	CancellationRiderCancel  CancellationCategory = "rider_cancel"
	CancellationDriverCancel CancellationCategory = "driver_cancel"
	// CancellationNoShow marks a participant who confirmed but never
	// turned up at the pickup point.
	CancellationNoShow CancellationCategory = "no_show"
)

// Ride is the slice of the platform's rides table this service reads.
// The rides service owns the table; reputation only aggregates over it.
type Ride struct {
	ID                   uuid.UUID             `json:"id" db:"id"`
	RiderID              uuid.UUID             `json:"rider_id" db:"rider_id"`
	DriverID             *uuid.UUID            `json:"driver_id,omitempty" db:"driver_id"`
	Status               RideStatus            `json:"status" db:"status"`
	ScheduledDepartureAt *time.Time            `json:"scheduled_departure_at,omitempty" db:"scheduled_departure_at"`
	RequestedAt          time.Time             `json:"requested_at" db:"requested_at"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt          *time.Time            `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy          *uuid.UUID            `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationCategory *CancellationCategory `json:"cancellation_category,omitempty" db:"cancellation_category"`
}
