package helpers

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/internal/verification"
	"github.com/richxcame/ride-reputation/pkg/models"
)

// CreateTestUser creates a user row with default values and the given role
func CreateTestUser(role models.UserRole) *models.User {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	id := uuid.New()
	return &models.User{
		ID:           id,
		Email:        id.String() + "@example.com",
		PhoneNumber:  "+1234567890",
		PasswordHash: string(hashedPassword),
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Language:     "en",
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// CreateCompletedRide creates a completed ride between a rider and a driver
func CreateCompletedRide(riderID, driverID uuid.UUID) *models.Ride {
	now := time.Now()
	departed := now.Add(-2 * time.Hour)
	completed := now.Add(-time.Hour)
	return &models.Ride{
		ID:                   uuid.New(),
		RiderID:              riderID,
		DriverID:             &driverID,
		Status:               models.RideStatusCompleted,
		ScheduledDepartureAt: &departed,
		RequestedAt:          now.Add(-3 * time.Hour),
		CompletedAt:          &completed,
	}
}

// CreateCancelledRide creates a ride cancelled by cancelledBy with the given
// category. beforeDeparture controls how far ahead of the scheduled
// departure the cancellation landed, so tests can place it inside or outside
// the late-cancellation window.
func CreateCancelledRide(riderID, driverID, cancelledBy uuid.UUID, category models.CancellationCategory, beforeDeparture time.Duration) *models.Ride {
	now := time.Now()
	departure := now.Add(24 * time.Hour)
	cancelled := departure.Add(-beforeDeparture)
	return &models.Ride{
		ID:                   uuid.New(),
		RiderID:              riderID,
		DriverID:             &driverID,
		Status:               models.RideStatusCancelled,
		ScheduledDepartureAt: &departure,
		RequestedAt:          now.Add(-time.Hour),
		CancelledAt:          &cancelled,
		CancelledBy:          &cancelledBy,
		CancellationCategory: &category,
	}
}

// CreateTestRating creates a visible rating of ratedID authored by raterID
func CreateTestRating(rideID, raterID, ratedID uuid.UUID, score int) *ratings.Rating {
	now := time.Now()
	return &ratings.Rating{
		RideID:    rideID,
		RaterID:   raterID,
		RatedID:   ratedID,
		RaterType: ratings.RaterTypeRider,
		Score:     score,
		IsVisible: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestVerificationRequest creates a pending verification request
func CreateTestVerificationRequest(userID uuid.UUID) *verification.Request {
	id := uuid.New()
	return &verification.Request{
		ID:           id,
		UserID:       userID,
		DocumentType: verification.DocumentTypeDriversLicense,
		DocumentKey:  "documents/" + userID.String() + "/" + id.String() + ".jpg",
		Status:       verification.StatusPending,
		SubmittedAt:  time.Now(),
	}
}
