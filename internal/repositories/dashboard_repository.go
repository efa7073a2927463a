package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// DashboardRepository interface for dashboard analytics operations
type DashboardRepository interface {
	// Totals
	CountUsersByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error)
	CountCourses(ctx context.Context, tx *gorm.DB) (int64, error)
	CountLessons(ctx context.Context, tx *gorm.DB) (int64, error)
	CountCompletedLessons(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)

	// Per course lesson totals, ordered by course creation
	LessonTotalsByCourse(ctx context.Context, tx *gorm.DB) ([]models.CourseLessonTotal, error)

	// Raw progress facts for in-memory aggregation
	ProgressFacts(ctx context.Context, tx *gorm.DB, userID *uint) ([]ProgressFact, error)

	// Recent activities
	GetRecentActivities(ctx context.Context, tx *gorm.DB, limit int) ([]models.ProgressActivity, error)
}

// ProgressFact is the projection of a progress row used by dashboard aggregation
type ProgressFact struct {
	UserID    uint      `json:"userId"`
	CourseID  uint      `json:"courseId"`
	LessonID  uint      `json:"lessonId"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}
