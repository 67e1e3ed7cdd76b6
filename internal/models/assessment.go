package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	SingleChoice   QuestionType = "SINGLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	FillBlank      QuestionType = "FILL_BLANK"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, SingleChoice, TrueFalse, FillBlank:
		return true
	}
	return false
}

// Assessment is a named, timed quiz bound to exactly one module. It is either
// created explicitly by an instructor or synthesized on demand by the quiz
// service when no reusable assessment exists for a module/difficulty pair.
type Assessment struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	ModuleID    uint    `json:"module_id" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// TimeLimit is in minutes; nil means unlimited.
	TimeLimit          *int `json:"time_limit" validate:"omitempty,min=1,max=300"`
	PassThreshold      int  `json:"pass_threshold" gorm:"not null;default:70" validate:"min=0,max=100"`
	IsActive           bool `json:"is_active" gorm:"default:true;index"`
	RandomizeQuestions bool `json:"randomize_questions" gorm:"default:false"`

	// Metadata
	CreatedBy *uint          `json:"created_by" gorm:"index"` // nil for synthesized assessments
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Module    Module                  `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
	Questions []Question              `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Attempts  []UserAssessmentAttempt `json:"-" gorm:"foreignKey:AssessmentID"`
}

// Question belongs to exactly one assessment and owns its answer options.
type Question struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	AssessmentID uint            `json:"assessment_id" gorm:"not null;index"`
	Text         string          `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=2000"`
	Type         QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"not null;default:BEGINNER;index" validate:"required,difficulty_level"`
	Points       int             `json:"points" gorm:"not null;default:5" validate:"min=1,max=100"`
	OrderIndex   int             `json:"order_index" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// Answer is one option of a question. IsCorrect and Explanation are never
// exposed in pre-grading quiz payloads.
type Answer struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	QuestionID  uint    `json:"question_id" gorm:"not null;index"`
	Text        string  `json:"text" gorm:"type:text;not null" validate:"required,min=1,max=1000"`
	IsCorrect   bool    `json:"is_correct" gorm:"not null;default:false"`
	Explanation *string `json:"explanation" gorm:"type:text" validate:"omitempty,max=1000"`
	OrderIndex  int     `json:"order_index" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (Question) TableName() string {
	return "questions"
}

func (Answer) TableName() string {
	return "answers"
}
