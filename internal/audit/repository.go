package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/richxcame/ride-reputation/pkg/database"
)

// Repository persists audit entries in the audit_logs table.
type Repository struct {
	db *database.DBPool
}

// NewRepository creates a new audit repository.
func NewRepository(db *database.DBPool) *Repository {
	return &Repository{db: db}
}

// CreateEntry appends one entry. The schema has no UPDATE or DELETE path
// for audit_logs; this insert is the only write.
func (r *Repository) CreateEntry(ctx context.Context, entry *Entry) error {
	before, after, err := marshalDiff(entry.Diff)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (id, admin_id, action, entity_type, entity_id, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	started := time.Now()
	_, err = r.db.GetPrimary().Exec(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.EntityType,
		entry.EntityID, before, after, entry.CreatedAt,
	)
	r.db.RecordQuery("audit_create_entry", started, err)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListEntries returns the filtered page newest-first plus the total count
// of matching entries.
func (r *Repository) ListEntries(ctx context.Context, filter ListFilter, limit, offset int) ([]Entry, int64, error) {
	whereClause, args, argIdx := buildListFilters(filter)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM audit_logs WHERE %s`, whereClause)
	started := time.Now()
	err := r.db.GetReplica().QueryRow(ctx, countQuery, args...).Scan(&total)
	r.db.RecordQuery("audit_count_entries", started, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, admin_id, action, entity_type, entity_id, before, after, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	started = time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, args...)
	r.db.RecordQuery("audit_list_entries", started, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e      Entry
			before []byte
			after  []byte
		)
		err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.EntityType, &e.EntityID, &before, &after, &e.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if err := unmarshalDiff(before, after, &e.Diff); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}

	return entries, total, nil
}

// buildListFilters constructs WHERE clauses and args from the filter.
func buildListFilters(filter ListFilter) (string, []interface{}, int) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.AdminID != nil {
		where = append(where, fmt.Sprintf("admin_id = $%d", argIdx))
		args = append(args, *filter.AdminID)
		argIdx++
	}
	if filter.EntityType != "" {
		where = append(where, fmt.Sprintf("entity_type = $%d", argIdx))
		args = append(args, filter.EntityType)
		argIdx++
	}
	if filter.EntityID != nil {
		where = append(where, fmt.Sprintf("entity_id = $%d", argIdx))
		args = append(args, *filter.EntityID)
		argIdx++
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	return strings.Join(where, " AND "), args, argIdx
}

func marshalDiff(diff Diff) ([]byte, []byte, error) {
	var before, after []byte
	var err error
	if diff.Before != nil {
		before, err = json.Marshal(diff.Before)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal before snapshot: %w", err)
		}
	}
	if diff.After != nil {
		after, err = json.Marshal(diff.After)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal after snapshot: %w", err)
		}
	}
	return before, after, nil
}

func unmarshalDiff(before, after []byte, diff *Diff) error {
	if len(before) > 0 {
		if err := json.Unmarshal(before, &diff.Before); err != nil {
			return fmt.Errorf("failed to unmarshal before snapshot: %w", err)
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &diff.After); err != nil {
			return fmt.Errorf("failed to unmarshal after snapshot: %w", err)
		}
	}
	return nil
}
