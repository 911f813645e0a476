package verification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/middleware"
	"github.com/richxcame/ride-reputation/pkg/pagination"
	"github.com/richxcame/ride-reputation/pkg/security"
)

// AdminHandler handles admin HTTP requests for verification review.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new verification admin handler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// getAdminID extracts the authenticated admin user ID from the request context
func getAdminID(c *gin.Context) uuid.UUID {
	if id, ok := c.Get("user_id"); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

// DecideRequest is the body of a verification decision. Approve is a pointer
// so that an explicit false still satisfies the required binding.
type DecideRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Reason  string `json:"reason"`
}

// RegisterRoutes registers verification admin routes.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	verifications := rg.Group("/verifications")
	{
		verifications.GET("", h.ListRequests)
		verifications.GET("/:id", h.GetRequest)
		verifications.POST("/:id/decision", h.Decide)
	}
}

// ListRequests returns a page of verification requests, optionally filtered
// by status via the status query param.
func (h *AdminHandler) ListRequests(c *gin.Context) {
	params := pagination.ParseParams(c)
	status := Status(c.Query("status"))

	requests, total, err := h.service.ListRequests(c.Request.Context(), status, params.Limit, params.Offset)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to list verification requests", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list verification requests")
		return
	}

	common.SuccessResponseWithMeta(c, requests, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetRequest returns one verification request with a document download link
// when available.
func (h *AdminHandler) GetRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid verification request ID")
		return
	}

	detail, err := h.service.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to get verification request", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to get verification request")
		return
	}

	common.SuccessResponse(c, detail)
}

// Decide approves or rejects a pending verification request.
func (h *AdminHandler) Decide(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid verification request ID")
		return
	}

	var req DecideRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	result, err := h.service.Decide(c.Request.Context(), requestID, getAdminID(c), *req.Approve, security.SanitizeString(req.Reason))
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to decide verification request", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to decide verification request")
		return
	}

	common.SuccessResponse(c, result)
}
