package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/richxcame/ride-reputation/pkg/database"
)

// ErrAlreadyReviewed is returned when a decision races another reviewer:
// the request existed but was no longer pending at write time.
var ErrAlreadyReviewed = errors.New("verification request already reviewed")

const requestColumns = `id, user_id, document_type, document_key, status, submitted_at, reviewed_at, reviewed_by, reason`

// Repository stores verification requests in PostgreSQL.
type Repository struct {
	db *database.DBPool
}

// NewRepository creates a new verification repository.
func NewRepository(db *database.DBPool) *Repository {
	return &Repository{db: db}
}

// ListRequests returns one page of requests, newest submissions first.
func (r *Repository) ListRequests(ctx context.Context, status Status, limit, offset int) ([]Request, int64, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(status))
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := `SELECT COUNT(*) FROM verification_requests WHERE ` + whereClause

	started := time.Now()
	var total int64
	err := r.db.GetReplica().QueryRow(ctx, countQuery, args...).Scan(&total)
	r.db.RecordQuery("verification_count_requests", started, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count verification requests: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+requestColumns+`
		FROM verification_requests
		WHERE `+whereClause+`
		ORDER BY submitted_at DESC
		LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, offset)

	started = time.Now()
	rows, err := r.db.GetReplica().Query(ctx, query, args...)
	r.db.RecordQuery("verification_list_requests", started, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list verification requests: %w", err)
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		var request Request
		if err := scanRequest(rows, &request); err != nil {
			return nil, 0, fmt.Errorf("failed to scan verification request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read verification requests: %w", err)
	}

	return requests, total, nil
}

// GetRequest returns the request or (nil, nil) when the id is unknown.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM verification_requests WHERE id = $1`

	started := time.Now()
	request := &Request{}
	err := scanRequest(r.db.GetReplica().QueryRow(ctx, query, id), request)
	r.db.RecordQuery("verification_get_request", started, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	return request, nil
}

// UpdateDecision flips a pending request to its final status. The status
// guard in the WHERE clause makes concurrent decisions lose cleanly.
func (r *Repository) UpdateDecision(ctx context.Context, id uuid.UUID, status Status, reviewedBy uuid.UUID, reason *string) error {
	query := `
		UPDATE verification_requests
		SET status = $2, reviewed_at = NOW(), reviewed_by = $3, reason = $4
		WHERE id = $1 AND status = 'pending'`

	started := time.Now()
	tag, err := r.db.GetPrimary().Exec(ctx, query, id, string(status), reviewedBy, reason)
	r.db.RecordQuery("verification_update_decision", started, err)
	if err != nil {
		return fmt.Errorf("failed to update verification request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner, request *Request) error {
	return row.Scan(
		&request.ID,
		&request.UserID,
		&request.DocumentType,
		&request.DocumentKey,
		&request.Status,
		&request.SubmittedAt,
		&request.ReviewedAt,
		&request.ReviewedBy,
		&request.Reason,
	)
}
