package services

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateAssessmentRequest = validator.AssessmentCreateRequest
type UpdateAssessmentRequest = validator.AssessmentUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateFeedbackRequest = validator.FeedbackCreateRequest

// ===== QUIZ RELATED DTOs =====

type GenerateQuizRequest struct {
	ModuleID      uint                   `json:"module_id" validate:"required"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	QuestionCount int                    `json:"question_count" validate:"omitempty,min=1,max=50"`
}

// QuizAnswer is an answer option as shown to a learner before grading.
// Correctness and explanations are stripped.
type QuizAnswer struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuizQuestion struct {
	ID      uint                `json:"id"`
	Text    string              `json:"text"`
	Type    models.QuestionType `json:"type"`
	Points  int                 `json:"points"`
	Answers []QuizAnswer        `json:"answers"`
}

type QuizResponse struct {
	AssessmentID  uint           `json:"assessment_id"`
	ModuleID      uint           `json:"module_id"`
	Title         string         `json:"title"`
	TimeLimit     *int           `json:"time_limit"` // minutes, nil = unlimited
	PassThreshold int            `json:"pass_threshold"`
	Questions     []QuizQuestion `json:"questions"`
}

// ===== GRADING RELATED DTOs =====

type SubmittedAnswer struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	AnswerID   *uint   `json:"answer_id"`
	TextAnswer *string `json:"text_answer"`
}

type SubmitAssessmentRequest struct {
	AssessmentID     uint              `json:"assessment_id" validate:"required"`
	Answers          []SubmittedAnswer `json:"answers" validate:"required,dive"`
	TimeSpentSeconds int               `json:"time_spent_seconds" validate:"min=0"`
	ClientInfo       datatypes.JSON    `json:"client_info,omitempty"`
}

type AttemptSummary struct {
	ID           uint    `json:"id"`
	Score        float64 `json:"score"`
	IsPassed     bool    `json:"is_passed"`
	PointsEarned float64 `json:"points_earned"`
}

type FeedbackSummary struct {
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  float64 `json:"correct_answers"`
	TimeSpent       float64 `json:"time_spent"` // minutes
	WithinTimeLimit bool    `json:"within_time_limit"`
}

type SubmissionResult struct {
	Attempt  AttemptSummary  `json:"attempt"`
	Feedback FeedbackSummary `json:"feedback"`
}

// ===== HISTORY / ANALYTICS DTOs =====

type AttemptHistoryItem struct {
	ID              uint      `json:"id"`
	AssessmentTitle string    `json:"assessment_title"`
	ModuleTitle     string    `json:"module_title"`
	Score           float64   `json:"score"`
	Passed          bool      `json:"passed"`
	AttemptNumber   int       `json:"attempt_number"`
	CompletedAt     time.Time `json:"completed_at"`
	TimeSpent       int       `json:"time_spent"` // seconds
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type AttemptHistoryResponse struct {
	Data       []AttemptHistoryItem `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

type ProgressSummary struct {
	TotalAttempts   int     `json:"total_attempts"`
	PassRate        float64 `json:"pass_rate"`
	AverageScore    float64 `json:"average_score"`
	Accuracy        float64 `json:"accuracy"`
	TimePerQuestion float64 `json:"time_per_question"` // seconds
}

type ModuleProgressStats struct {
	ModuleID     uint    `json:"module_id"`
	ModuleTitle  string  `json:"module_title"`
	Attempts     int     `json:"attempts"`
	PassRate     float64 `json:"pass_rate"`
	AverageScore float64 `json:"average_score"`
}

type AssessmentProgressResponse struct {
	Summary        ProgressSummary       `json:"summary"`
	ByModule       []ModuleProgressStats `json:"by_module"`
	RecentAttempts []AttemptHistoryItem  `json:"recent_attempts"`
}

// ===== PROGRESS DTOs =====

type UpdateProgressRequest struct {
	ProgressPercentage float64 `json:"progress_percentage" validate:"min=0,max=100"`
}

type ModuleProgressResponse struct {
	ModuleID           uint                    `json:"module_id"`
	ModuleTitle        string                  `json:"module_title"`
	Status             models.CompletionStatus `json:"status"`
	ProgressPercentage float64                 `json:"progress_percentage"`
	PointsEarned       int                     `json:"points_earned"`
	LastAccessedAt     time.Time               `json:"last_accessed_at"`
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
}

// ===== ACHIEVEMENT DTOs =====

type AchievementResponse struct {
	Code        models.AchievementCode `json:"code"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Points      int                    `json:"points"`
	IconURL     *string                `json:"icon_url,omitempty"`
	EarnedAt    *time.Time             `json:"earned_at,omitempty"`
}

type StreakResponse struct {
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastActiveAt  time.Time `json:"last_active_at"`
}

// ===== QUESTION POOL DTOs =====

type QuestionResponse struct {
	*models.Question
}

type AssessmentResponse struct {
	*models.Assessment
	QuestionCount int `json:"question_count"`
}

// ===== IMPORT/EXPORT DTOs =====

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ===== FEEDBACK DTOs =====

type FeedbackResponse struct {
	*models.Feedback
}

type FeedbackListResponse struct {
	Feedback []*FeedbackResponse `json:"feedback"`
	Total    int64               `json:"total"`
}

// ===== MODULE DTOs =====

type ModuleListResponse struct {
	Modules []*models.Module `json:"modules"`
	Total   int64            `json:"total"`
}

// ===== SERVICE INTERFACES =====

// QuizService assembles quizzes through the three-tier strategy: reuse an
// active assessment, assemble a new one from the module's question pool, or
// synthesize placeholder questions.
type QuizService interface {
	GenerateQuiz(ctx context.Context, userID uint, req *GenerateQuizRequest) (*QuizResponse, error)
}

// GradingService grades submissions and applies progress side effects.
type GradingService interface {
	SubmitAssessment(ctx context.Context, userID uint, req *SubmitAssessmentRequest) (*SubmissionResult, error)
}

// AnalyticsService aggregates a learner's historical attempts.
type AnalyticsService interface {
	GetUserAssessmentHistory(ctx context.Context, userID uint, page, limit int) (*AttemptHistoryResponse, error)
	GetUserAssessmentProgress(ctx context.Context, userID uint) (*AssessmentProgressResponse, error)
}

// ModuleService is the learner-facing read surface over learning modules.
type ModuleService interface {
	List(ctx context.Context, filters repositories.ModuleFilters) (*ModuleListResponse, error)
	GetByID(ctx context.Context, id uint) (*models.Module, error)
}

// ProgressService manages module-level progress independent of grading.
type ProgressService interface {
	StartModule(ctx context.Context, userID, moduleID uint) (*ModuleProgressResponse, error)
	UpdateSectionProgress(ctx context.Context, userID, moduleID uint, req *UpdateProgressRequest) (*ModuleProgressResponse, error)
	CompleteModule(ctx context.Context, userID, moduleID uint) (*ModuleProgressResponse, error)
	GetUserProgress(ctx context.Context, userID uint) ([]*ModuleProgressResponse, error)
}

// AchievementService awards badges and maintains activity streaks.
type AchievementService interface {
	ProcessAttemptCompletion(ctx context.Context, userID uint, attempt *models.UserAssessmentAttempt) ([]*models.Achievement, error)
	GetUserAchievements(ctx context.Context, userID uint) ([]*AchievementResponse, error)
	GetUserStreak(ctx context.Context, userID uint) (*StreakResponse, error)
}

// FeedbackService collects learner ratings for modules and assessments.
type FeedbackService interface {
	Create(ctx context.Context, userID uint, req *CreateFeedbackRequest) (*FeedbackResponse, error)
	List(ctx context.Context, filters repositories.FeedbackFilters) (*FeedbackListResponse, error)
}

// QuestionService is the instructor-facing question pool management surface.
type QuestionService interface {
	Create(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID uint) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint) (*QuestionResponse, error)
	GetByAssessment(ctx context.Context, assessmentID uint) ([]*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID uint) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, userID uint) error

	CreateAssessment(ctx context.Context, req *CreateAssessmentRequest, userID uint) (*AssessmentResponse, error)
	UpdateAssessment(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID uint) (*AssessmentResponse, error)
	DeleteAssessment(ctx context.Context, id uint, userID uint) error
}

// ImportExportService moves question pools in and out as XLSX workbooks.
type ImportExportService interface {
	ImportQuestions(ctx context.Context, assessmentID uint, data []byte, userID uint) (*ImportResult, error)
	ExportQuestions(ctx context.Context, assessmentID uint, userID uint) ([]byte, error)
}

// ServiceManager provides access to all services with lifecycle management.
type ServiceManager interface {
	Quiz() QuizService
	Grading() GradingService
	Module() ModuleService
	Analytics() AnalyticsService
	Progress() ProgressService
	Achievement() AchievementService
	Feedback() FeedbackService
	Question() QuestionService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
