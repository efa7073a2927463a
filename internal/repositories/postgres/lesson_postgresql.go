package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/cache"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type LessonPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.helpers.getDB(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.helpers.getDB(tx).WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	result := l.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("id = ?", lesson.ID).
		Updates(map[string]interface{}{
			"title":        lesson.Title,
			"description":  lesson.Description,
			"video_id":     lesson.VideoID,
			"video_source": lesson.VideoSource,
			"duration":     lesson.Duration,
			"is_published": lesson.IsPublished,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update lesson: %w", gorm.ErrRecordNotFound)
	}
	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)
	return nil
}

// UpdateVideo attaches a hosted video to a lesson. A zero duration keeps the stored one.
func (l *LessonPostgreSQL) UpdateVideo(ctx context.Context, tx *gorm.DB, id uint, videoID string, source models.VideoSource, duration int) error {
	db := l.helpers.getDB(tx)

	var lesson models.Lesson
	if err := db.WithContext(ctx).Select("id", "course_id").First(&lesson, id).Error; err != nil {
		return fmt.Errorf("failed to get lesson: %w", err)
	}

	updates := map[string]interface{}{
		"video_id":     videoID,
		"video_source": source,
	}
	if duration > 0 {
		updates["duration"] = duration
	}
	if err := db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update lesson video: %w", err)
	}

	cache.InvalidateCourseCache(ctx, l.cacheManager, lesson.CourseID)
	return nil
}

// Delete removes a lesson and the progress recorded against it, then closes the gap in the module order
func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var courseID uint
	err := l.helpers.inTx(ctx, l.helpers.getDB(tx), func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Select("id", "course_id", "module_id").First(&lesson, id).Error; err != nil {
			return fmt.Errorf("failed to get lesson: %w", err)
		}
		courseID = lesson.CourseID
		if err := l.helpers.deleteLessonsWhere(ctx, tx, "id = ?", id); err != nil {
			return err
		}
		return l.helpers.renumber(ctx, tx, &models.Lesson{}, "module_id", lesson.ModuleID)
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, l.cacheManager, courseID)
	return nil
}

// ListByModule lists a module's lessons in order
func (l *LessonPostgreSQL) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uint) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := l.helpers.getDB(tx).WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("position ASC").
		Order("id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) ListIDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	if err := l.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list lesson ids: %w", err)
	}
	return ids, nil
}

func (l *LessonPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	if err := l.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func (l *LessonPostgreSQL) NextPosition(ctx context.Context, tx *gorm.DB, moduleID uint) (int, error) {
	return l.helpers.nextPosition(ctx, l.helpers.getDB(tx), &models.Lesson{}, "module_id", moduleID)
}
