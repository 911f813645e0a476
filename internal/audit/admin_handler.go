package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

// AdminHandler handles admin API requests for the audit trail
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new audit admin handler
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers audit admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	logs := rg.Group("/audit-logs")
	{
		logs.GET("", h.ListAuditLogs)
	}
}

// ListAuditLogs returns the filtered, paginated audit trail
// GET /api/v1/admin/audit-logs?admin_id=&entity_type=&entity_id=&from=&to=&page=&page_size=
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	filter := ListFilter{EntityType: c.Query("entity_type")}

	if raw := c.Query("admin_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid admin ID")
			return
		}
		filter.AdminID = &id
	}
	if raw := c.Query("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid entity ID")
			return
		}
		filter.EntityID = &id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid from time, expected RFC3339")
			return
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid to time, expected RFC3339")
			return
		}
		filter.To = &t
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	pageSize := DefaultPageSize
	if raw := c.Query("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			pageSize = v
		}
	}

	result, err := h.service.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to list audit logs", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list audit logs")
		return
	}

	meta := &common.Meta{
		Limit:      result.PageSize,
		Offset:     (result.Page - 1) * result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}
	common.SuccessResponseWithMeta(c, result.Entries, meta)
}
