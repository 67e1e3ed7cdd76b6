package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/cache"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

// Create creates a question with its nested answers and invalidates the
// owning assessment's cached entries.
func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return translateError("question.create", err)
	}
	cache.InvalidateQuestionPoolCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}

// CreateBatch creates questions in one insert, answers included.
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := q.getDB(tx).WithContext(ctx).Create(&questions).Error; err != nil {
		return translateError("question.create_batch", err)
	}
	cache.InvalidateQuestionPoolCache(ctx, q.cacheManager, questions[0].AssessmentID)
	return nil
}

// GetByID retrieves a question with its answers.
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	err := q.getDB(tx).WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC, answers.id ASC")
		}).
		First(&question, id).Error
	if err != nil {
		return nil, translateError("question.get_by_id", err)
	}
	return &question, nil
}

// GetByAssessment returns an assessment's questions with answers, ordered by
// order index ascending.
func (q *QuestionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC, answers.id ASC")
		}).
		Where("assessment_id = ?", assessmentID).
		Order("order_index ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, translateError("question.get_by_assessment", err)
	}
	return questions, nil
}

// GetByModuleAndDifficulty returns the module's question pool at the given
// difficulty, drawn from active assessments only.
func (q *QuestionPostgreSQL) GetByModuleAndDifficulty(ctx context.Context, tx *gorm.DB, moduleID uint, difficulty models.DifficultyLevel) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.getDB(tx).WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC, answers.id ASC")
		}).
		Joins("JOIN assessments ON assessments.id = questions.assessment_id").
		Where("assessments.module_id = ? AND assessments.is_active = ? AND assessments.deleted_at IS NULL", moduleID, true).
		Where("questions.difficulty = ?", difficulty).
		Order("questions.order_index ASC, questions.id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, translateError("question.get_by_module_difficulty", err)
	}
	return questions, nil
}

// Update updates a question and invalidates cache.
func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.getDB(tx).WithContext(ctx).Save(question).Error; err != nil {
		return translateError("question.update", err)
	}
	cache.InvalidateQuestionPoolCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}

// Delete removes a question; its answers go with it via the cascade.
func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx).WithContext(ctx)

	var question models.Question
	if err := db.First(&question, id).Error; err != nil {
		return translateError("question.delete", err)
	}

	if err := db.Delete(&question).Error; err != nil {
		return translateError("question.delete", err)
	}
	cache.InvalidateQuestionPoolCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}
