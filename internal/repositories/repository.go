package repositories

import "context"

// Repository aggregates every repository of the training service
type Repository interface {
	// Catalog domain
	Course() CourseRepository
	Module() ModuleRepository
	Lesson() LessonRepository

	// Learning domain
	Progress() ProgressRepository
	Quiz() QuizRepository
	QuizResponse() QuizResponseRepository
	Certificate() CertificateRepository

	// User domain
	User() UserRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
