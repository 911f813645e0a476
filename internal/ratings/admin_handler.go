package ratings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/logger"
)

// AdminHandler handles admin API requests for rating aggregates
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new ratings admin handler
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers rating admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ratings := rg.Group("/ratings")
	{
		ratings.GET("/patterns", h.GetRatingPatterns)
	}

	users := rg.Group("/users")
	{
		users.GET("/:id/ratings", h.GetUserRatingSummary)
	}
}

// GetRatingPatterns returns aggregate statistics and anomaly flags for a
// rating population
// GET /api/v1/admin/ratings/patterns?rated_user_id=&ride_id=
func (h *AdminHandler) GetRatingPatterns(c *gin.Context) {
	filter := PatternFilter{}

	if raw := c.Query("rated_user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid rated user ID")
			return
		}
		filter.RatedUserID = &id
	}
	if raw := c.Query("ride_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid ride ID")
			return
		}
		filter.RideID = &id
	}

	summary, err := h.service.AnalyzePatterns(c.Request.Context(), filter)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to analyze rating patterns", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to analyze rating patterns")
		return
	}

	common.SuccessResponse(c, summary)
}

// GetUserRatingSummary returns the rating view for one user's console page
// GET /api/v1/admin/users/:id/ratings
func (h *AdminHandler) GetUserRatingSummary(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	summary, err := h.service.GetUserRatingSummary(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to get user rating summary", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to get user rating summary")
		return
	}

	common.SuccessResponse(c, summary)
}
