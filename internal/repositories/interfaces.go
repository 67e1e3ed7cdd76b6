package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	Difficulty  *models.DifficultyLevel `json:"difficulty"`
	IsPublished *bool                   `json:"is_published"`
	Limit       int                     `json:"limit"`
	Offset      int                     `json:"offset"`
}

type AttemptFilters struct {
	AssessmentID *uint      `json:"assessment_id"`
	Passed       *bool      `json:"passed"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

type FeedbackFilters struct {
	ModuleID     *uint `json:"module_id"`
	AssessmentID *uint `json:"assessment_id"`
	UserID       *uint `json:"user_id"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
}

// ===== SHARED AGGREGATE STRUCTS =====

// ModuleAttemptStats is the per-module grouping the analytics aggregator
// reads from stored attempts.
type ModuleAttemptStats struct {
	ModuleID     uint    `json:"module_id"`
	ModuleTitle  string  `json:"module_title"`
	Attempts     int     `json:"attempts"`
	Passed       int     `json:"passed"`
	AverageScore float64 `json:"average_score"`
}

// ===== ENTITY REPOSITORIES =====

// Repositories follow the (ctx, tx, ...) convention: tx carries an open
// transaction, nil means the repository's own connection.

type ModuleRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	List(ctx context.Context, tx *gorm.DB, filters ModuleFilters) ([]*models.Module, int64, error)
	Create(ctx context.Context, tx *gorm.DB, module *models.Module) error
	Update(ctx context.Context, tx *gorm.DB, module *models.Module) error
}

type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetByIDWithQuestions loads the assessment with its questions (order
	// index ascending) and each question's answers.
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetActiveByModule returns the single active assessment for a module
	// with questions and answers preloaded, or ErrNotFound.
	GetActiveByModule(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	// GetByAssessment returns an assessment's questions with answers,
	// ordered by order index ascending.
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error)
	// GetByModuleAndDifficulty returns all questions at the given difficulty
	// across the module's active assessments, answers preloaded, ordered by
	// order index ascending.
	GetByModuleAndDifficulty(ctx context.Context, tx *gorm.DB, moduleID uint, difficulty models.DifficultyLevel) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type AttemptRepository interface {
	// Create persists the attempt together with its UserAnswer rows.
	Create(ctx context.Context, tx *gorm.DB, attempt *models.UserAssessmentAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.UserAssessmentAttempt, error)
	CountByUserAndAssessment(ctx context.Context, tx *gorm.DB, userID, assessmentID uint) (int64, error)
	// GetByUser returns a page of the user's attempts ordered by completion
	// time descending, with assessment and module preloaded.
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint, filters AttemptFilters) ([]*models.UserAssessmentAttempt, int64, error)
	// GetAllByUserWithAnswers returns every attempt of the user with answers
	// and their referenced answer rows preloaded, for aggregate analytics.
	GetAllByUserWithAnswers(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAssessmentAttempt, error)
	// GetModuleStatsByUser groups the user's attempts by module.
	GetModuleStatsByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]ModuleAttemptStats, error)
}

type ProgressRepository interface {
	GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uint) (*models.UserProgress, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserProgress, error)
	Create(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
	Update(ctx context.Context, tx *gorm.DB, progress *models.UserProgress) error
}

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.User, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
}

type AchievementRepository interface {
	ListDefinitions(ctx context.Context, tx *gorm.DB) ([]*models.Achievement, error)
	GetDefinitionByCode(ctx context.Context, tx *gorm.DB, code models.AchievementCode) (*models.Achievement, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.UserAchievement, error)
	HasAchievement(ctx context.Context, tx *gorm.DB, userID uint, code models.AchievementCode) (bool, error)
	Award(ctx context.Context, tx *gorm.DB, award *models.UserAchievement) error
	GetStreak(ctx context.Context, tx *gorm.DB, userID uint) (*models.StreakRecord, error)
	SaveStreak(ctx context.Context, tx *gorm.DB, streak *models.StreakRecord) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error
	List(ctx context.Context, tx *gorm.DB, filters FeedbackFilters) ([]*models.Feedback, int64, error)
}
