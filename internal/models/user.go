package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// User is the local identity row. Authentication happens at the Casdoor
// boundary; the engine only ever sees the numeric ID. ExternalID is the
// Casdoor subject used to resolve tokens to local users.
type User struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	ExternalID string   `json:"external_id" gorm:"uniqueIndex;not null;size:255"`
	FullName   string   `json:"full_name" gorm:"not null;size:100"`
	Email      string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role       UserRole `json:"role" gorm:"not null;default:student;size:20"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
