package models

import (
	"time"

	"gorm.io/datatypes"
)

type AchievementCode string

const (
	AchievementFirstPass    AchievementCode = "first_pass"
	AchievementPerfectScore AchievementCode = "perfect_score"
	AchievementStreak7      AchievementCode = "streak_7"
	AchievementStreak30     AchievementCode = "streak_30"
	AchievementModuleMaster AchievementCode = "module_master"
)

// Achievement is a badge definition. Criteria holds code-specific thresholds
// (e.g. required streak length) as JSONB so new badges don't need schema
// changes.
type Achievement struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Code        AchievementCode `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Title       string          `json:"title" gorm:"not null;size:200"`
	Description string          `json:"description" gorm:"type:text"`
	Points      int             `json:"points" gorm:"not null;default:0"`
	IconURL     *string         `json:"icon_url" gorm:"size:500"`
	Criteria    datatypes.JSON  `json:"criteria,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAchievement is one award of a badge to a user. A badge is awarded at
// most once per user.
type UserAchievement struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID uint      `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	EarnedAt      time.Time `json:"earned_at" gorm:"not null"`

	// Relations
	Achievement Achievement `json:"achievement" gorm:"foreignKey:AchievementID"`
}

// StreakRecord tracks consecutive-day learning activity per user. One row
// per user; updated on every graded submission.
type StreakRecord struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	CurrentStreak int       `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak int       `json:"longest_streak" gorm:"not null;default:0"`
	LastActiveAt  time.Time `json:"last_active_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
