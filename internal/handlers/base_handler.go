package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps operations that return no entity body.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest writes a request-scoped info line.
func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// parseIDParam parses a positive numeric path parameter. On failure it
// writes the 400 response and returns 0.
func (h BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// currentUserID reads the authenticated user's local ID from the context.
// On failure it writes the 401 response and returns false.
func (h BaseHandler) currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	userID, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid user identity in context",
		})
		return 0, false
	}
	return userID, true
}

// handleServiceError maps service errors onto HTTP statuses.
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var validationErrors *services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors.Errors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case services.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrModuleNotPublished),
		errors.Is(err, services.ErrAssessmentNotActive),
		errors.Is(err, services.ErrEmptyQuestionPool):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: err.Error(),
		})
	case repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	case repositories.IsStorageError(err):
		utils.FromContext(c, h.logger).Error("Storage failure", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Storage temporarily unavailable",
		})
	default:
		utils.FromContext(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
