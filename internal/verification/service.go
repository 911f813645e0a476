package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/internal/audit"
	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/eventbus"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/storage"
)

var tracer = otel.Tracer("ride-reputation/verification")

// documentURLTTL bounds how long a presigned document link stays usable.
const documentURLTTL = 15 * time.Minute

// Service reviews identity verification requests. Submitted documents live in
// object storage; reviewers see them through short-lived presigned links.
type Service struct {
	repo       RepositoryInterface
	documents  storage.Storage
	auditTrail AuditRecorder
	events     eventbus.Publisher
}

// NewService creates a verification service. documents, auditTrail and events
// may be nil: without documents request details carry no download link, and
// without the other two decisions skip the corresponding side effect.
func NewService(repo RepositoryInterface, documents storage.Storage, auditTrail AuditRecorder, events eventbus.Publisher) *Service {
	return &Service{
		repo:       repo,
		documents:  documents,
		auditTrail: auditTrail,
		events:     events,
	}
}

// ListRequests returns one page of verification requests, newest first,
// optionally narrowed to a single status.
func (s *Service) ListRequests(ctx context.Context, status Status, limit, offset int) ([]Request, int64, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, common.NewValidationError("invalid verification status", map[string]string{
			"status": "must be pending, approved or rejected",
		})
	}

	requests, total, err := s.repo.ListRequests(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list verification requests")
	}
	return requests, total, nil
}

// GetRequest returns a single verification request. When object storage is
// configured the detail includes a presigned download link for the submitted
// document; a presign failure degrades to a detail without a link.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*RequestDetail, error) {
	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get verification request")
	}
	if request == nil {
		return nil, common.NewNotFoundError("verification request not found", nil)
	}

	detail := &RequestDetail{Request: *request}
	if s.documents != nil && request.DocumentKey != "" {
		presigned, err := s.documents.GetPresignedDownloadURL(ctx, request.DocumentKey, documentURLTTL)
		if err != nil {
			logger.WithContext(ctx).Warn("Failed to presign verification document",
				zap.String("request_id", id.String()),
				zap.Error(err))
		} else {
			detail.DocumentURL = presigned.URL
		}
	}
	return detail, nil
}

// Decide approves or rejects a pending verification request. The status flip
// is the primary outcome; the audit entry and the event are best-effort and
// reported on the result rather than failing the decision.
func (s *Service) Decide(ctx context.Context, requestID, adminID uuid.UUID, approve bool, reason string) (*DecisionResult, error) {
	ctx, span := tracer.Start(ctx, "verification.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", requestID.String()),
		attribute.Bool("approve", approve),
	)

	reason = strings.TrimSpace(reason)
	if !approve && reason == "" {
		return nil, common.NewValidationError("rejection requires a reason", map[string]string{
			"reason": "reason is required when rejecting",
		})
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to get verification request")
	}
	if request == nil {
		return nil, common.NewNotFoundError("verification request not found", nil)
	}
	if request.Status != StatusPending {
		return nil, common.NewValidationError("verification request already reviewed", map[string]string{
			"status": "only pending requests can be decided",
		})
	}

	status := StatusApproved
	if !approve {
		status = StatusRejected
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	if err := s.repo.UpdateDecision(ctx, requestID, status, adminID, reasonPtr); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, common.NewConflictError("verification request already reviewed")
		}
		return nil, common.NewInternalServerError("failed to update verification request")
	}

	now := time.Now().UTC()
	updated := *request
	updated.Status = status
	updated.ReviewedAt = &now
	updated.ReviewedBy = &adminID
	updated.Reason = reasonPtr

	logger.Info("Verification request decided",
		zap.String("request_id", requestID.String()),
		zap.String("user_id", updated.UserID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", string(status)))

	result := &DecisionResult{Request: &updated}
	result.Audit = s.appendAudit(ctx, adminID, *request, updated)
	result.Event = s.publish(ctx, adminID, updated)
	return result, nil
}

func (s *Service) appendAudit(ctx context.Context, adminID uuid.UUID, before, after Request) common.SideEffect {
	if s.auditTrail == nil {
		return common.SideEffect{}
	}

	action := audit.ActionApproveVerification
	if after.Status == StatusRejected {
		action = audit.ActionRejectVerification
	}
	afterSnapshot := audit.Snapshot{}.Set("status", string(after.Status))
	if after.Reason != nil {
		afterSnapshot = afterSnapshot.Set("reason", *after.Reason)
	}

	requestID := after.ID
	entry := audit.Entry{
		AdminID:    adminID,
		Action:     action,
		EntityType: audit.EntityVerificationRequest,
		EntityID:   &requestID,
		Diff: audit.Diff{
			Before: audit.Snapshot{}.Set("status", string(before.Status)),
			After:  afterSnapshot,
		},
	}

	if _, err := s.auditTrail.Append(ctx, entry); err != nil {
		logger.WithContext(ctx).Warn("Failed to record verification audit entry",
			zap.String("request_id", after.ID.String()),
			zap.Error(err))
		return common.SideEffect{Attempted: true, Err: err}
	}
	return common.SideEffect{Attempted: true}
}

func (s *Service) publish(ctx context.Context, adminID uuid.UUID, request Request) common.SideEffect {
	if s.events == nil {
		return common.SideEffect{}
	}

	var (
		eventType string
		payload   interface{}
	)
	if request.Status == StatusApproved {
		eventType = eventbus.EventVerificationApproved
		payload = eventbus.VerificationApprovedData{
			RequestID:    request.ID,
			UserID:       request.UserID,
			AdminID:      adminID,
			DocumentType: string(request.DocumentType),
		}
	} else {
		reason := ""
		if request.Reason != nil {
			reason = *request.Reason
		}
		eventType = eventbus.EventVerificationRejected
		payload = eventbus.VerificationRejectedData{
			RequestID:    request.ID,
			UserID:       request.UserID,
			AdminID:      adminID,
			DocumentType: string(request.DocumentType),
			Reason:       reason,
		}
	}

	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		logger.WithContext(ctx).Warn("Failed to publish verification event",
			zap.String("request_id", request.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
		return common.SideEffect{Attempted: true, Err: err}
	}
	return common.SideEffect{Attempted: true}
}
