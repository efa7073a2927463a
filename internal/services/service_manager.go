package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

// ServiceManagerConfig holds the settings services read at construction time
type ServiceManagerConfig struct {
	AppURL  string
	Session config.SessionConfig
	Vimeo   config.VimeoConfig

	// VideoHTTPClient overrides the client used to reach the video provider
	VideoHTTPClient *http.Client
}

// NewServiceManagerConfig extracts service settings from the application config
func NewServiceManagerConfig(cfg *config.Config) ServiceManagerConfig {
	return ServiceManagerConfig{
		AppURL:  cfg.AppURL,
		Session: cfg.Session,
		Vimeo:   cfg.Vimeo,
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	courseService      CourseService
	moduleService      ModuleService
	lessonService      LessonService
	progressService    ProgressService
	quizService        QuizService
	certificateService CertificateService
	videoService       VideoService
	userService        UserService
	authService        AuthService
	dashboardService   DashboardService
	exportService      ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator,
	publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(ctx context.Context) error {
	renderer, err := NewCertificateRenderer()
	if err != nil {
		return err
	}

	sm.courseService = NewCourseService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Course service initialized")

	sm.moduleService = NewModuleService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Module service initialized")

	sm.lessonService = NewLessonService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("Lesson service initialized")

	sm.progressService = NewProgressService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.logger.Info("Progress service initialized")

	sm.quizService = NewQuizService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.logger.Info("Quiz service initialized")

	sm.certificateService = NewCertificateService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher, renderer, sm.config.AppURL)
	sm.logger.Info("Certificate service initialized")

	sm.videoService = NewVideoService(sm.config.Vimeo, sm.config.VideoHTTPClient, sm.logger, sm.validator)
	sm.logger.Info("Video service initialized")

	sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator)
	sm.logger.Info("User service initialized")

	sm.authService = NewAuthService(sm.repo, sm.db, sm.logger, sm.validator, sm.config.Session)
	sm.logger.Info("Auth service initialized")

	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	sm.exportService = NewExportService(sm.quizService, sm.dashboardService, sm.logger)
	sm.logger.Info("Export service initialized")

	return nil
}

// mustBeInitialized is called with the read lock held
func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.courseService
}

func (sm *serviceManager) Module() ModuleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.moduleService
}

func (sm *serviceManager) Lesson() LessonService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.lessonService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.progressService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.quizService
}

func (sm *serviceManager) Certificate() CertificateService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.certificateService
}

func (sm *serviceManager) Video() VideoService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.videoService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.dashboardService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("repository health check failed: %w", err)
		}
		return nil
	}
	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

// Shutdown releases the repository manager. The database pool, Redis client and
// publisher belong to main and are closed there.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
