package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetHistory returns a page of the caller's past attempts.
func (h *AnalyticsHandler) GetHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	history, err := h.analyticsService.GetUserAssessmentHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetProgress returns the caller's aggregate assessment statistics.
func (h *AnalyticsHandler) GetProgress(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.analyticsService.GetUserAssessmentProgress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
