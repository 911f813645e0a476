package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-reputation/pkg/common"
)

const (
	// DefaultPageSize is used when a caller passes no page size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// Service exposes the audit trail: append one entry, list with filters.
// Callers performing a mutation append as a side effect and decide their
// own policy when the append fails; here a storage fault is an error.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new audit service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// Append validates and stores one entry, returning it with its assigned
// id and timestamp.
func (s *Service) Append(ctx context.Context, entry Entry) (*Entry, error) {
	details := map[string]string{}
	if entry.AdminID == uuid.Nil {
		details["admin_id"] = "admin id is required"
	}
	if entry.Action == "" {
		details["action"] = "action is required"
	}
	if entry.EntityType == "" {
		details["entity_type"] = "entity type is required"
	}
	if len(details) > 0 {
		return nil, common.NewValidationError("invalid audit entry", details)
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateEntry(ctx, &entry); err != nil {
		return nil, common.NewInternalServerError("failed to append audit entry")
	}
	return &entry, nil
}

// List returns the filtered page of entries, newest first. Pages are
// 1-based; TotalPages is ceil(total/pageSize).
func (s *Service) List(ctx context.Context, filter ListFilter, page, pageSize int) (*EntryPage, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	details := map[string]string{}
	if page < 1 {
		details["page"] = "page must be 1 or greater"
	}
	if pageSize < 1 {
		details["page_size"] = "page size must be 1 or greater"
	}
	if len(details) > 0 {
		return nil, common.NewValidationError("invalid pagination", details)
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, common.NewValidationError("invalid time range", map[string]string{
			"from": "from must not be after to",
		})
	}

	offset := (page - 1) * pageSize
	entries, total, err := s.repo.ListEntries(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, common.NewInternalServerError("failed to list audit entries")
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &EntryPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
