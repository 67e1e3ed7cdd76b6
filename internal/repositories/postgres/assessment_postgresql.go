package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/cache"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Create creates a new assessment (with nested questions and answers when
// set) and invalidates the module's active-assessment cache entry.
func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return translateError("assessment.create", err)
	}
	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID, assessment.ModuleID)
	return nil
}

// GetByID retrieves an assessment by ID with caching.
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	if tx != nil {
		var assessment models.Assessment
		if err := tx.WithContext(ctx).First(&assessment, id).Error; err != nil {
			return nil, translateError("assessment.get_by_id", err)
		}
		return &assessment, nil
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := a.db.WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, translateError("assessment.get_by_id", err)
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}

	return &assessment, nil
}

// GetByIDWithQuestions retrieves an assessment with its questions (order
// index ascending) and each question's answers. This is the grading path
// query, so it bypasses the cache to always read current correctness flags.
func (a *AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := a.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC, questions.id ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC, answers.id ASC")
		}).
		First(&assessment, id).Error
	if err != nil {
		return nil, translateError("assessment.get_with_questions", err)
	}
	return &assessment, nil
}

// GetActiveByModule returns the active assessment for a module with
// questions and answers preloaded, newest first when several are active.
// Quiz generation runs this query on every request, so the no-transaction
// path is cached under the module-active key.
func (a *AssessmentPostgreSQL) GetActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.Assessment, error) {
	if tx != nil {
		return a.fetchActiveByModule(ctx, tx, moduleID)
	}

	cacheKey := fmt.Sprintf("module-active:%d", moduleID)
	var assessment models.Assessment
	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		return a.fetchActiveByModule(ctx, a.db, moduleID)
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) fetchActiveByModule(ctx context.Context, db *gorm.DB, moduleID uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC, questions.id ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC, answers.id ASC")
		}).
		Where("module_id = ? AND is_active = ?", moduleID, true).
		Order("created_at DESC").
		First(&assessment).Error
	if err != nil {
		return nil, translateError("assessment.get_active_by_module", err)
	}
	return &assessment, nil
}

// Update updates an assessment and invalidates cache.
func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.getDB(tx).WithContext(ctx).Save(assessment).Error; err != nil {
		return translateError("assessment.update", err)
	}
	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID, assessment.ModuleID)
	return nil
}

// Delete soft-deletes an assessment and invalidates cache.
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx).WithContext(ctx)

	var assessment models.Assessment
	if err := db.First(&assessment, id).Error; err != nil {
		return translateError("assessment.delete", err)
	}

	if err := db.Delete(&assessment).Error; err != nil {
		return translateError("assessment.delete", err)
	}

	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID, assessment.ModuleID)
	return nil
}
