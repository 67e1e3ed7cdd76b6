package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserAssessmentAttempt records one learner's completed submission of an
// assessment. Attempts are created exactly once per submission and are never
// updated or deleted afterwards; retaking an assessment creates a new row.
type UserAssessmentAttempt struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	UserID       uint `json:"user_id" gorm:"not null;index:idx_user_assessment"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index:idx_user_assessment"`

	// AttemptNumber is sequential per (user, assessment), starting at 1.
	AttemptNumber int `json:"attempt_number" gorm:"not null"`

	// Timing
	StartedAt   time.Time `json:"started_at" gorm:"not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"not null;index"`
	TimeSpent   int       `json:"time_spent"` // seconds

	// Scoring
	Score  float64 `json:"score" gorm:"not null"` // 0-100
	Passed bool    `json:"passed" gorm:"not null;index"`

	// Client metadata captured at submission time (browser, IP, screen).
	ClientInfo datatypes.JSON `json:"client_info,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User       User         `json:"-" gorm:"foreignKey:UserID"`
	Assessment Assessment   `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Answers    []UserAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

// UserAnswer is one learner's response to one question within one attempt:
// either a chosen answer reference or free text. Rows are created in bulk
// alongside their parent attempt.
type UserAnswer struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	AttemptID  uint    `json:"attempt_id" gorm:"not null;index"`
	QuestionID uint    `json:"question_id" gorm:"not null;index"`
	AnswerID   *uint   `json:"answer_id" gorm:"index"`
	TextAnswer *string `json:"text_answer" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
	Answer   *Answer  `json:"answer,omitempty" gorm:"foreignKey:AnswerID"`
}

func (UserAssessmentAttempt) TableName() string {
	return "user_assessment_attempts"
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
