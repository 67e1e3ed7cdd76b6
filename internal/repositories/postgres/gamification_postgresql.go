package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type AchievementPostgreSQL struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &AchievementPostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AchievementPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ListDefinitions returns all badge definitions.
func (a *AchievementPostgreSQL) ListDefinitions(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	err := a.getDB(tx).WithContext(ctx).
		Order("id ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, translateError("achievement.list_definitions", err)
	}
	return achievements, nil
}

// GetDefinitionByCode retrieves one badge definition by its code.
func (a *AchievementPostgreSQL) GetDefinitionByCode(ctx context.Context, tx *gorm.DB, code models.AchievementCode) (*models.Achievement, error) {
	var achievement models.Achievement
	err := a.getDB(tx).WithContext(ctx).
		Where("code = ?", code).
		First(&achievement).Error
	if err != nil {
		return nil, translateError("achievement.get_by_code", err)
	}
	return &achievement, nil
}

// GetByUser returns the user's earned badges with definitions preloaded,
// most recent first.
func (a *AchievementPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAchievement, error) {
	var awards []*models.UserAchievement
	err := a.getDB(tx).WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&awards).Error
	if err != nil {
		return nil, translateError("achievement.get_by_user", err)
	}
	return awards, nil
}

// HasAchievement reports whether the user already holds the badge.
func (a *AchievementPostgreSQL) HasAchievement(ctx context.Context, tx *gorm.DB, userID uint, code models.AchievementCode) (bool, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.UserAchievement{}).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ? AND achievements.code = ?", userID, code).
		Count(&count).Error
	if err != nil {
		return false, translateError("achievement.has_achievement", err)
	}
	return count > 0, nil
}

// Award grants a badge. The unique (user, achievement) index makes repeat
// awards fail, so callers check HasAchievement first.
func (a *AchievementPostgreSQL) Award(ctx context.Context, tx *gorm.DB, award *models.UserAchievement) error {
	if err := a.getDB(tx).WithContext(ctx).Create(award).Error; err != nil {
		return translateError("achievement.award", err)
	}
	return nil
}

// GetStreak retrieves the user's streak row, or ErrNotFound before the
// first graded submission.
func (a *AchievementPostgreSQL) GetStreak(ctx context.Context, tx *gorm.DB, userID uint) (*models.StreakRecord, error) {
	var streak models.StreakRecord
	err := a.getDB(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&streak).Error
	if err != nil {
		return nil, translateError("achievement.get_streak", err)
	}
	return &streak, nil
}

// SaveStreak upserts the user's streak row.
func (a *AchievementPostgreSQL) SaveStreak(ctx context.Context, tx *gorm.DB, streak *models.StreakRecord) error {
	if err := a.getDB(tx).WithContext(ctx).Save(streak).Error; err != nil {
		return translateError("achievement.save_streak", err)
	}
	return nil
}
