package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// SubmitAssessment grades a completed quiz and records the attempt.
func (h *GradingHandler) SubmitAssessment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting assessment",
		"user_id", userID,
		"assessment_id", req.AssessmentID,
		"answer_count", len(req.Answers))

	result, err := h.gradingService.SubmitAssessment(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
