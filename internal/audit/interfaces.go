package audit

import (
	"context"
)

// RepositoryInterface defines the storage operations for audit entries.
// Insert and filtered read only; the trail is append-only by contract.
type RepositoryInterface interface {
	CreateEntry(ctx context.Context, entry *Entry) error
	ListEntries(ctx context.Context, filter ListFilter, limit, offset int) ([]Entry, int64, error)
}
