package services

import (
	"errors"
	"fmt"
)

// Sentinel errors services return for well-known failure states. Handlers
// map these onto HTTP statuses.
var (
	ErrModuleNotFound     = errors.New("module not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrProgressNotFound   = errors.New("progress not found")

	ErrAssessmentNotActive = errors.New("assessment is not active")
	ErrModuleNotPublished  = errors.New("module is not published")
	ErrEmptyQuestionPool   = errors.New("module has no questions at the requested difficulty")
)

// ValidationError reports a request field that failed a business rule.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ValidationErrors aggregates multiple field failures into one error.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e.Errors))
}

// PermissionError reports a denied action on a resource.
type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NewPermissionError creates a permission error.
func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	var ves *ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}

// IsPermissionError reports whether err is a permission failure.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsNotFoundError reports whether err is one of the not-found sentinels.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProgressNotFound)
}
