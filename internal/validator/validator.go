package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cybersafe-edu/assessment-service/internal/models"
)

// Validator wraps go-playground struct validation with the platform's
// custom rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerCustomRules()

	return v
}

// Validate validates any struct against its tags.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// registerCustomRules registers domain value validators.
func (v *Validator) registerCustomRules() {
	// difficulty level validation
	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		return models.DifficultyLevel(fl.Field().String()).Valid()
	})

	// question type validation
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).Valid()
	})

	// pass threshold validation (0-100)
	v.validate.RegisterValidation("pass_threshold", func(fl validator.FieldLevel) bool {
		threshold := fl.Field().Int()
		return threshold >= 0 && threshold <= 100
	})

	// time limit validation in minutes (1-300)
	v.validate.RegisterValidation("time_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 1 && limit <= 300
	})
}

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

// ValidationErrors is the full set of failures for one request.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any rule failed.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// ToValidationErrors converts go-playground errors into our representation.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	var errs ValidationErrors

	if ok := errors.As(err, &fieldErrors); !ok {
		return ValidationErrors{{
			Field:   "",
			Message: err.Error(),
			Rule:    "unknown",
		}}
	}

	for _, fe := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}

	return errs
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "difficulty_level":
		return "must be one of BEGINNER, INTERMEDIATE, ADVANCED, EXPERT"
	case "question_type":
		return "must be a supported question type"
	case "pass_threshold":
		return "must be between 0 and 100"
	case "time_limit":
		return "must be between 1 and 300 minutes"
	default:
		return fmt.Sprintf("failed validation rule %s", fe.Tag())
	}
}
