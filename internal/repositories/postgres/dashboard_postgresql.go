package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== DASHBOARD STATS =====

func (r *dashboardRepository) CountUsersByRole(ctx context.Context, tx *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) CountCourses(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) CountLessons(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) CountCompletedLessons(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Progress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// ===== AGGREGATION INPUTS =====

func (r *dashboardRepository) LessonTotalsByCourse(ctx context.Context, tx *gorm.DB) ([]models.CourseLessonTotal, error) {
	var totals []models.CourseLessonTotal
	err := r.getDB(tx).WithContext(ctx).
		Table("courses").
		Select("courses.id AS course_id, courses.title AS title, COUNT(lessons.id) AS total_lessons").
		Joins("LEFT JOIN lessons ON lessons.course_id = courses.id").
		Group("courses.id, courses.title, courses.created_at").
		Order("courses.created_at DESC").
		Order("courses.id DESC").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson totals: %w", err)
	}
	return totals, nil
}

// ProgressFacts returns every progress row, or only one user's when userID is set
func (r *dashboardRepository) ProgressFacts(ctx context.Context, tx *gorm.DB, userID *uint) ([]repositories.ProgressFact, error) {
	var rows []models.Progress
	query := r.getDB(tx).WithContext(ctx).
		Select("user_id", "course_id", "lesson_id", "completed", "updated_at")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get progress facts: %w", err)
	}

	facts := make([]repositories.ProgressFact, len(rows))
	for i, row := range rows {
		facts[i] = repositories.ProgressFact{
			UserID:    row.UserID,
			CourseID:  row.CourseID,
			LessonID:  row.LessonID,
			Completed: row.Completed,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return facts, nil
}

// ===== RECENT ACTIVITY =====

func (r *dashboardRepository) GetRecentActivities(ctx context.Context, tx *gorm.DB, limit int) ([]models.ProgressActivity, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []models.Progress
	if err := r.getDB(tx).WithContext(ctx).
		Preload("User").
		Preload("Course").
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}

	activities := make([]models.ProgressActivity, 0, len(rows))
	for _, row := range rows {
		activity := models.ProgressActivity{
			UserID:    row.UserID,
			CourseID:  row.CourseID,
			Completed: row.Completed,
			UpdatedAt: row.UpdatedAt,
		}
		if row.User != nil {
			activity.StudentName = row.User.Name
		}
		if row.Course != nil {
			activity.CourseName = row.Course.Title
		}
		activities = append(activities, activity)
	}
	return activities, nil
}
