package repositories

import "context"

// Repository aggregates all entity repositories behind one interface.
type Repository interface {
	// Learning content domain
	Module() ModuleRepository
	Assessment() AssessmentRepository
	Question() QuestionRepository

	// Attempt domain
	Attempt() AttemptRepository

	// Learner domain
	Progress() ProgressRepository
	User() UserRepository
	Achievement() AchievementRepository
	Feedback() FeedbackRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
