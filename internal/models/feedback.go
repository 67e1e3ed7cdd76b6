package models

import (
	"time"

	"gorm.io/gorm"
)

// Feedback is a learner's rating and comment on a module or an assessment.
// Exactly one of ModuleID/AssessmentID is set.
type Feedback struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	UserID       uint  `json:"user_id" gorm:"not null;index"`
	ModuleID     *uint `json:"module_id" gorm:"index"`
	AssessmentID *uint `json:"assessment_id" gorm:"index"`

	Rating  int     `json:"rating" gorm:"not null" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" gorm:"type:text" validate:"omitempty,max=2000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Feedback) TableName() string {
	return "feedback"
}
