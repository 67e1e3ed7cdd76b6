package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/events"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

// ServiceManagerConfig holds construction options for the service layer.
type ServiceManagerConfig struct {
	// Rand is the random source for quiz selection; nil means the shared
	// source. Inject a seeded source for deterministic tests.
	Rand *rand.Rand

	// EventPublisher fans out attempt/progress/achievement events; nil
	// disables publishing.
	EventPublisher events.EventPublisher
}

// serviceManager implements ServiceManager.
type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	quizService         QuizService
	gradingService      GradingService
	moduleService       ModuleService
	analyticsService    AnalyticsService
	progressService     ProgressService
	achievementService  AchievementService
	feedbackService     FeedbackService
	questionService     QuestionService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager without event
// publishing and with the shared random source.
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, ServiceManagerConfig{})
}

// Initialize constructs all services in dependency order.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return fmt.Errorf("service manager already shut down")
	}
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.validator == nil {
		return fmt.Errorf("validator is required")
	}

	sm.achievementService = NewAchievementService(sm.db, sm.repo, sm.logger)
	sm.quizService = NewQuizService(sm.db, sm.repo, sm.logger, sm.validator, sm.config.Rand)
	sm.gradingService = NewGradingService(sm.db, sm.repo, sm.logger, sm.validator, sm.achievementService, sm.config.EventPublisher)
	sm.moduleService = NewModuleService(sm.db, sm.repo, sm.logger)
	sm.analyticsService = NewAnalyticsService(sm.db, sm.repo, sm.logger)
	sm.progressService = NewProgressService(sm.db, sm.repo, sm.logger)
	sm.feedbackService = NewFeedbackService(sm.db, sm.repo, sm.logger, sm.validator)
	sm.questionService = NewQuestionService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.importExportService = NewImportExportService(sm.repo, sm.db, sm.logger, sm.validator)

	sm.initialized = true
	sm.logger.Info("Service manager initialized")
	return nil
}

// Shutdown releases service resources.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}
	sm.shutdown = true

	if sm.config.EventPublisher != nil {
		if err := sm.config.EventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.logger.Info("Service manager shut down")
	return nil
}

// HealthCheck verifies the storage connections behind the services.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager shut down")
	}

	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.quizService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.gradingService
}

func (sm *serviceManager) Module() ModuleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.moduleService
}

func (sm *serviceManager) Analytics() AnalyticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.analyticsService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.progressService
}

func (sm *serviceManager) Achievement() AchievementService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.achievementService
}

func (sm *serviceManager) Feedback() FeedbackService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.feedbackService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.questionService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.importExportService
}
