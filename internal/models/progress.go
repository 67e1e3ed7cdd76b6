package models

import (
	"time"
)

type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "NOT_STARTED"
	StatusInProgress CompletionStatus = "IN_PROGRESS"
	StatusCompleted  CompletionStatus = "COMPLETED"
)

// UserProgress is the durable record of a learner's standing in a module,
// one row per (user, module) pair, independent of any single attempt. It is
// upserted as a side effect of a passing attempt and mutated independently
// by module start/complete and section-progress operations.
type UserProgress struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_user_module"`
	ModuleID uint `json:"module_id" gorm:"not null;uniqueIndex:idx_user_module"`

	Status             CompletionStatus `json:"status" gorm:"not null;default:NOT_STARTED;index"`
	ProgressPercentage float64          `json:"progress_percentage" gorm:"not null;default:0" validate:"min=0,max=100"`
	PointsEarned       int              `json:"points_earned" gorm:"not null;default:0"`

	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CompletedAt    *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Module Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
