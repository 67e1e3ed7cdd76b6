package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/cache"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	module      repositories.ModuleRepository
	assessment  repositories.AssessmentRepository
	question    repositories.QuestionRepository
	attempt     repositories.AttemptRepository
	progress    repositories.ProgressRepository
	user        repositories.UserRepository
	achievement repositories.AchievementRepository
	feedback    repositories.FeedbackRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	// Read-heavy repositories get the cache manager; write-heavy ones go
	// straight to the database.
	repo.module = NewModulePostgreSQL(config.DB, cacheManager)
	repo.assessment = NewAssessmentPostgreSQL(config.DB, cacheManager)
	repo.question = NewQuestionPostgreSQL(config.DB, cacheManager)
	repo.attempt = NewAttemptPostgreSQL(config.DB)
	repo.progress = NewProgressPostgreSQL(config.DB, cacheManager)
	repo.user = NewUserPostgreSQL(config.DB)
	repo.achievement = NewAchievementPostgreSQL(config.DB)
	repo.feedback = NewFeedbackPostgreSQL(config.DB)

	return repo
}

// Module returns the module repository
func (r *PostgreSQLRepository) Module() repositories.ModuleRepository {
	return r.module
}

// Assessment returns the assessment repository
func (r *PostgreSQLRepository) Assessment() repositories.AssessmentRepository {
	return r.assessment
}

// Question returns the question repository
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

// Attempt returns the attempt repository
func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

// Progress returns the progress repository
func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository {
	return r.progress
}

// User returns the user repository
func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

// Achievement returns the achievement repository
func (r *PostgreSQLRepository) Achievement() repositories.AchievementRepository {
	return r.achievement
}

// Feedback returns the feedback repository
func (r *PostgreSQLRepository) Feedback() repositories.FeedbackRepository {
	return r.feedback
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create a new repository instance bound to the transaction
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.module = NewModulePostgreSQL(tx, r.cacheManager)
		txRepo.assessment = NewAssessmentPostgreSQL(tx, r.cacheManager)
		txRepo.question = NewQuestionPostgreSQL(tx, r.cacheManager)
		txRepo.attempt = NewAttemptPostgreSQL(tx)
		txRepo.progress = NewProgressPostgreSQL(tx, r.cacheManager)
		txRepo.user = NewUserPostgreSQL(tx)
		txRepo.achievement = NewAchievementPostgreSQL(tx)
		txRepo.feedback = NewFeedbackPostgreSQL(tx)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize initializes all repositories and connections
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
