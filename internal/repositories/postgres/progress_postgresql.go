package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/cache"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Upsert inserts the (user, lesson) row or raises it with conditional updates.
// Concurrent reports never lower the stored value.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, report repositories.ProgressUpsert) (*models.Progress, bool, error) {
	completes := report.Completed || report.Progress >= models.ProgressComplete
	newlyCompleted := false
	var record models.Progress

	err := p.helpers.inTx(ctx, p.helpers.getDB(tx), func(tx *gorm.DB) error {
		row := models.Progress{
			UserID:    report.UserID,
			LessonID:  report.LessonID,
			CourseID:  report.CourseID,
			Progress:  report.Progress,
			Completed: completes,
		}
		result := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
				DoNothing: true,
			}).
			Create(&row)
		if result.Error != nil {
			return fmt.Errorf("failed to insert progress: %w", result.Error)
		}

		if result.RowsAffected == 1 {
			newlyCompleted = completes
		} else {
			now := time.Now()
			if err := tx.WithContext(ctx).
				Model(&models.Progress{}).
				Where("user_id = ? AND lesson_id = ? AND progress < ?", report.UserID, report.LessonID, report.Progress).
				Updates(map[string]interface{}{"progress": report.Progress, "updated_at": now}).Error; err != nil {
				return fmt.Errorf("failed to raise progress: %w", err)
			}

			if completes {
				flip := tx.WithContext(ctx).
					Model(&models.Progress{}).
					Where("user_id = ? AND lesson_id = ? AND completed = ?", report.UserID, report.LessonID, false).
					Updates(map[string]interface{}{"completed": true, "updated_at": now})
				if flip.Error != nil {
					return fmt.Errorf("failed to mark progress completed: %w", flip.Error)
				}
				newlyCompleted = flip.RowsAffected == 1
			}
		}

		if err := tx.WithContext(ctx).
			Where("user_id = ? AND lesson_id = ?", report.UserID, report.LessonID).
			First(&record).Error; err != nil {
			return fmt.Errorf("failed to reload progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, report.UserID, record.CourseID)
	return &record, newlyCompleted, nil
}

func (p *ProgressPostgreSQL) ListByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) ([]*models.Progress, error) {
	var records []*models.Progress
	if err := p.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}
	return records, nil
}

func (p *ProgressPostgreSQL) CompletedLessonIDs(ctx context.Context, tx *gorm.DB, userID, courseID uint) ([]uint, error) {
	var ids []uint
	if err := p.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Order("lesson_id ASC").
		Pluck("lesson_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list completed lessons: %w", err)
	}
	return ids, nil
}

func (p *ProgressPostgreSQL) CountCompleted(ctx context.Context, tx *gorm.DB, userID, courseID uint) (int64, error) {
	var count int64
	if err := p.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// LastWatched returns the latest progress update time, or nil when the user never watched the course
func (p *ProgressPostgreSQL) LastWatched(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*time.Time, error) {
	var latest []models.Progress
	if err := p.helpers.getDB(tx).WithContext(ctx).
		Select("updated_at").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("updated_at DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("failed to get last watched: %w", err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	at := latest[0].UpdatedAt
	return &at, nil
}

// CourseSummary aggregates the user's course progress with caching
func (p *ProgressPostgreSQL) CourseSummary(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.CourseProgress, error) {
	fetch := func() (interface{}, error) {
		total, err := NewLessonPostgreSQL(p.helpers.getDB(tx), p.cacheManager).CountByCourse(ctx, tx, courseID)
		if err != nil {
			return nil, err
		}
		completed, err := p.CountCompleted(ctx, tx, userID, courseID)
		if err != nil {
			return nil, err
		}
		last, err := p.LastWatched(ctx, tx, userID, courseID)
		if err != nil {
			return nil, err
		}
		summary := models.NewCourseProgress(completed, total, last)
		return &summary, nil
	}

	if !p.helpers.useCache(tx) {
		summary, err := fetch()
		if err != nil {
			return nil, err
		}
		return summary.(*models.CourseProgress), nil
	}

	var summary models.CourseProgress
	key := fmt.Sprintf("course:%d:user:%d", courseID, userID)
	if err := p.cacheManager.Progress.CacheOrExecute(ctx, key, &summary, cache.ProgressCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return &summary, nil
}
