package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type FeedbackHandler struct {
	BaseHandler
	feedbackService services.FeedbackService
}

func NewFeedbackHandler(feedbackService services.FeedbackService, logger utils.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		BaseHandler:     NewBaseHandler(logger),
		feedbackService: feedbackService,
	}
}

// CreateFeedback records the caller's rating of a module or assessment.
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	feedback, err := h.feedbackService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// ListFeedback returns feedback filtered by module, assessment or user.
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	filters := repositories.FeedbackFilters{}
	if v := c.Query("module_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			moduleID := uint(id)
			filters.ModuleID = &moduleID
		}
	}
	if v := c.Query("assessment_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			assessmentID := uint(id)
			filters.AssessmentID = &assessmentID
		}
	}
	if v := c.Query("user_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			uid := uint(id)
			filters.UserID = &uid
		}
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	feedback, err := h.feedbackService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}
