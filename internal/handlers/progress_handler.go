package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// StartModule marks a module as started for the caller.
func (h *ProgressHandler) StartModule(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Starting module", "user_id", userID, "module_id", moduleID)

	progress, err := h.progressService.StartModule(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// UpdateSectionProgress records partial progress through a module.
func (h *ProgressHandler) UpdateSectionProgress(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	var req services.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	progress, err := h.progressService.UpdateSectionProgress(c.Request.Context(), userID, moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CompleteModule marks a module finished outside the grading path.
func (h *ProgressHandler) CompleteModule(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Completing module", "user_id", userID, "module_id", moduleID)

	progress, err := h.progressService.CompleteModule(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetUserProgress lists the caller's standing in every touched module.
func (h *ProgressHandler) GetUserProgress(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.GetUserProgress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
