package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create persists the attempt together with its UserAnswer rows in one
// insert graph. Attempts are append-only; there is no Update.
func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.UserAssessmentAttempt) error {
	if err := a.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return translateError("attempt.create", err)
	}
	return nil
}

// GetByID retrieves an attempt with its answers and their referenced answer
// options.
func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.UserAssessmentAttempt, error) {
	var attempt models.UserAssessmentAttempt
	err := a.getDB(tx).WithContext(ctx).
		Preload("Assessment").
		Preload("Answers").
		Preload("Answers.Answer").
		First(&attempt, id).Error
	if err != nil {
		return nil, translateError("attempt.get_by_id", err)
	}
	return &attempt, nil
}

// CountByUserAndAssessment counts a user's attempts at one assessment.
func (a *AttemptPostgreSQL) CountByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID, assessmentID uint) (int64, error) {
	var count int64
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.UserAssessmentAttempt{}).
		Where("user_id = ? AND assessment_id = ?", userID, assessmentID).
		Count(&count).Error
	if err != nil {
		return 0, translateError("attempt.count_by_user_assessment", err)
	}
	return count, nil
}

// GetByUser returns a page of the user's attempts, most recent first, with
// assessment and module preloaded for history rendering.
func (a *AttemptPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters repositories.AttemptFilters) ([]*models.UserAssessmentAttempt, int64, error) {
	db := a.getDB(tx).WithContext(ctx)

	query := applyAttemptFilters(
		db.Model(&models.UserAssessmentAttempt{}).Where("user_id = ?", userID),
		filters,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("attempt.get_by_user_count", err)
	}

	var attempts []*models.UserAssessmentAttempt
	err := applyPagination(query, filters.Limit, filters.Offset).
		Preload("Assessment").
		Preload("Assessment.Module").
		Order("completed_at DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, 0, translateError("attempt.get_by_user", err)
	}

	return attempts, total, nil
}

// GetAllByUserWithAnswers returns every attempt of the user with answers and
// their referenced answer rows preloaded, for aggregate analytics.
func (a *AttemptPostgreSQL) GetAllByUserWithAnswers(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAssessmentAttempt, error) {
	var attempts []*models.UserAssessmentAttempt
	err := a.getDB(tx).WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Answer").
		Where("user_id = ?", userID).
		Order("completed_at ASC, id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, translateError("attempt.get_all_by_user", err)
	}
	return attempts, nil
}

// GetModuleStatsByUser groups the user's attempts by module in a single
// aggregate query.
func (a *AttemptPostgreSQL) GetModuleStatsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]repositories.ModuleAttemptStats, error) {
	var stats []repositories.ModuleAttemptStats
	err := a.getDB(tx).WithContext(ctx).
		Model(&models.UserAssessmentAttempt{}).
		Select(`modules.id AS module_id,
			modules.title AS module_title,
			COUNT(user_assessment_attempts.id) AS attempts,
			COUNT(CASE WHEN user_assessment_attempts.passed THEN 1 END) AS passed,
			COALESCE(AVG(user_assessment_attempts.score), 0) AS average_score`).
		Joins("JOIN assessments ON assessments.id = user_assessment_attempts.assessment_id").
		Joins("JOIN modules ON modules.id = assessments.module_id").
		Where("user_assessment_attempts.user_id = ?", userID).
		Group("modules.id, modules.title").
		Order("modules.id ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, translateError("attempt.module_stats_by_user", err)
	}
	return stats, nil
}
