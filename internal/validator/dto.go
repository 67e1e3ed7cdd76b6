package validator

import (
	"github.com/cybersafe-edu/assessment-service/internal/models"
)

// AssessmentCreateRequest is the instructor-facing payload for creating an
// assessment together with its question set.
type AssessmentCreateRequest struct {
	ModuleID           uint                    `json:"module_id" validate:"required"`
	Title              string                  `json:"title" validate:"required,min=1,max=200"`
	Description        *string                 `json:"description" validate:"omitempty,max=1000"`
	TimeLimit          *int                    `json:"time_limit" validate:"omitempty,time_limit"`
	PassThreshold      int                     `json:"pass_threshold" validate:"pass_threshold"`
	RandomizeQuestions bool                    `json:"randomize_questions"`
	Questions          []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// AssessmentUpdateRequest carries partial assessment updates.
type AssessmentUpdateRequest struct {
	Title              *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description        *string `json:"description" validate:"omitempty,max=1000"`
	TimeLimit          *int    `json:"time_limit" validate:"omitempty,time_limit"`
	PassThreshold      *int    `json:"pass_threshold" validate:"omitempty,pass_threshold"`
	IsActive           *bool   `json:"is_active"`
	RandomizeQuestions *bool   `json:"randomize_questions"`
}

// QuestionCreateRequest is the payload for one pool question with its
// answer options.
type QuestionCreateRequest struct {
	Text       string                 `json:"text" validate:"required,min=1,max=2000"`
	Type       models.QuestionType    `json:"type" validate:"required,question_type"`
	Difficulty models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Points     int                    `json:"points" validate:"omitempty,min=1,max=100"`
	OrderIndex int                    `json:"order_index" validate:"min=0"`
	Answers    []AnswerCreateRequest  `json:"answers" validate:"required,min=1,dive"`
}

// QuestionUpdateRequest carries partial question updates. When Answers is
// non-nil the full answer set is replaced.
type QuestionUpdateRequest struct {
	Text       *string                 `json:"text" validate:"omitempty,min=1,max=2000"`
	Difficulty *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Points     *int                    `json:"points" validate:"omitempty,min=1,max=100"`
	OrderIndex *int                    `json:"order_index" validate:"omitempty,min=0"`
	Answers    []AnswerCreateRequest   `json:"answers" validate:"omitempty,min=1,dive"`
}

// AnswerCreateRequest is one answer option of a question.
type AnswerCreateRequest struct {
	Text        string  `json:"text" validate:"required,min=1,max=1000"`
	IsCorrect   bool    `json:"is_correct"`
	Explanation *string `json:"explanation" validate:"omitempty,max=1000"`
	OrderIndex  int     `json:"order_index" validate:"min=0"`
}

// ValidateQuestionCreate runs struct validation plus the per-type answer
// set rules.
func (v *Validator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	errs := v.Validate(req)
	errs = append(errs, validateAnswerSet(req.Type, req.Answers)...)
	return errs
}

// ValidateAssessmentCreate runs struct validation plus answer set rules for
// every inline question.
func (v *Validator) ValidateAssessmentCreate(req *AssessmentCreateRequest) ValidationErrors {
	errs := v.Validate(req)
	for i := range req.Questions {
		errs = append(errs, validateAnswerSet(req.Questions[i].Type, req.Questions[i].Answers)...)
	}
	return errs
}

// validateAnswerSet enforces the shape constraints each question type puts
// on its answer options.
func validateAnswerSet(qType models.QuestionType, answers []AnswerCreateRequest) ValidationErrors {
	var errs ValidationErrors

	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	switch qType {
	case models.TrueFalse:
		if len(answers) != 2 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "true/false questions require exactly 2 answers",
				Value:   len(answers),
				Rule:    "answer_set",
			})
		}
		if correct != 1 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "true/false questions require exactly 1 correct answer",
				Value:   correct,
				Rule:    "answer_set",
			})
		}
	case models.SingleChoice:
		if len(answers) < 2 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "choice questions require at least 2 answers",
				Value:   len(answers),
				Rule:    "answer_set",
			})
		}
		if correct != 1 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "single choice questions require exactly 1 correct answer",
				Value:   correct,
				Rule:    "answer_set",
			})
		}
	case models.MultipleChoice:
		if len(answers) < 2 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "choice questions require at least 2 answers",
				Value:   len(answers),
				Rule:    "answer_set",
			})
		}
		if correct < 1 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "choice questions require at least 1 correct answer",
				Value:   correct,
				Rule:    "answer_set",
			})
		}
	case models.FillBlank:
		if correct < 1 {
			errs = append(errs, ValidationError{
				Field:   "answers",
				Message: "fill-in-the-blank questions require at least 1 accepted answer",
				Value:   correct,
				Rule:    "answer_set",
			})
		}
	}

	return errs
}

// FeedbackCreateRequest is the payload for rating a module or assessment.
type FeedbackCreateRequest struct {
	ModuleID     *uint   `json:"module_id"`
	AssessmentID *uint   `json:"assessment_id"`
	Rating       int     `json:"rating" validate:"required,min=1,max=5"`
	Comment      *string `json:"comment" validate:"omitempty,max=2000"`
}

// ValidateFeedbackCreate checks that exactly one target is referenced.
func (v *Validator) ValidateFeedbackCreate(req *FeedbackCreateRequest) ValidationErrors {
	errs := v.Validate(req)

	if (req.ModuleID == nil) == (req.AssessmentID == nil) {
		errs = append(errs, ValidationError{
			Field:   "module_id",
			Message: "exactly one of module_id or assessment_id must be set",
			Rule:    "feedback_target",
		})
	}

	return errs
}
