package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// ProgressUpsert carries one progress report for a (user, lesson) pair
type ProgressUpsert struct {
	UserID    uint
	LessonID  uint
	CourseID  uint
	Progress  float64
	Completed bool
}

// ProgressRepository interface for lesson progress operations
type ProgressRepository interface {
	// Upsert stores the report atomically: the stored percentage only grows and the
	// completed flag only turns on. It reports whether this call completed the lesson.
	Upsert(ctx context.Context, tx *gorm.DB, report ProgressUpsert) (*models.Progress, bool, error)

	ListByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) ([]*models.Progress, error)
	CompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID, courseID uint) ([]uint, error)

	// Aggregation helpers
	// CourseSummary returns completed/total/percent/lastWatched for one user in one course
	CourseSummary(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.CourseProgress, error)
	CountCompleted(ctx context.Context, tx *gorm.DB, userID, courseID uint) (int64, error)
	LastWatched(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*time.Time, error)
}
