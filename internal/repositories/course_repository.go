package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// CourseRepository interface for course operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithModules(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Modules and lessons ordered by position
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	// Delete removes the course together with its modules, lessons and progress records
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	ListWithModules(ctx context.Context, tx *gorm.DB) ([]*models.Course, error)

	// Validation and checks
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	// InvalidateCache drops the cached tree of a course; callers that wrote through an
	// outer transaction call it again once that transaction has committed
	InvalidateCache(ctx context.Context, courseID uint)
}

// ModuleRepository interface for module operations
type ModuleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, module *models.Module) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	GetByIDWithLessons(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	Update(ctx context.Context, tx *gorm.DB, module *models.Module) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Module, error)

	// Ordering
	NextPosition(ctx context.Context, tx *gorm.DB, courseID uint) (int, error)
	UpdatePositions(ctx context.Context, tx *gorm.DB, courseID uint, orderedIDs []uint) error
}

// LessonRepository interface for lesson operations
type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	UpdateVideo(ctx context.Context, tx *gorm.DB, id uint, videoID string, source models.VideoSource, duration int) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	ListByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Lesson, error)
	ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error)

	NextPosition(ctx context.Context, tx *gorm.DB, moduleID uint) (int, error)
}
