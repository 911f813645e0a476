package verification

import (
	"context"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/internal/audit"
)

// RepositoryInterface defines the contract for verification request storage.
type RepositoryInterface interface {
	// ListRequests returns one page of requests, newest submissions first,
	// optionally filtered by status, plus the total matching count.
	ListRequests(ctx context.Context, status Status, limit, offset int) ([]Request, int64, error)

	// GetRequest returns the request or (nil, nil) when the id is unknown.
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)

	// UpdateDecision flips a pending request to its final status with the
	// reviewer and timestamp. Returns ErrAlreadyReviewed when the request
	// was decided concurrently.
	UpdateDecision(ctx context.Context, id uuid.UUID, status Status, reviewedBy uuid.UUID, reason *string) error
}

// AuditRecorder appends entries to the admin audit trail.
type AuditRecorder interface {
	Append(ctx context.Context, entry audit.Entry) (*audit.Entry, error)
}
