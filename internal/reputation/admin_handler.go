package reputation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/internal/ratings"
	"github.com/richxcame/ride-reputation/pkg/common"
	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/middleware"
	"github.com/richxcame/ride-reputation/pkg/security"
)

// AdminHandler handles admin HTTP requests for trust scores and rating
// moderation.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler creates a new reputation admin handler.
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

// ModerateRatingRequest is the body of a moderation decision.
type ModerateRatingRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// RegisterRoutes registers reputation admin routes.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.GET("/:id/stats", h.GetUserStats)
		users.GET("/:id/trust-score", h.GetTrustScore)
		users.POST("/:id/trust-score/recalculate", h.RecalculateTrustScore)
	}

	moderation := rg.Group("/ratings")
	{
		moderation.POST("/:ride_id/:rater_id/moderate", h.ModerateRating)
	}
}

// GetUserStats returns the aggregate ride and rating statistics for a user.
func (h *AdminHandler) GetUserStats(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	stats, err := h.service.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to get user stats", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to get user stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// GetTrustScore returns the stored trust score breakdown for a user.
func (h *AdminHandler) GetTrustScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	breakdown, err := h.service.GetBreakdown(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to get trust score", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to get trust score")
		return
	}

	common.SuccessResponse(c, breakdown)
}

// RecalculateTrustScore recomputes and stores a user's trust score.
func (h *AdminHandler) RecalculateTrustScore(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	result, err := h.service.RecalculateTrustScore(c.Request.Context(), userID, getAdminID(c))
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to recalculate trust score", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to recalculate trust score")
		return
	}

	common.SuccessResponse(c, result)
}

// ModerateRating hides or deletes one rating.
func (h *AdminHandler) ModerateRating(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("ride_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid ride ID")
		return
	}

	raterID, err := uuid.Parse(c.Param("rater_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid rater ID")
		return
	}

	var req ModerateRatingRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	result, err := h.service.ModerateRating(
		c.Request.Context(),
		rideID,
		raterID,
		ratings.ModerationAction(req.Action),
		getAdminID(c),
		security.SanitizeString(req.Reason),
	)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		logger.Error("Failed to moderate rating", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to moderate rating")
		return
	}

	common.SuccessResponse(c, result)
}
