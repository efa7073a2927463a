package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/cache"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// orderedTree preloads modules and lessons sorted by position
func orderedTree(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		})
}

// Create creates a new course and invalidates the catalog listings
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.helpers.getDB(tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")
	return nil
}

// GetByID retrieves a course without its modules
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var course models.Course
		if err := c.helpers.getDB(tx).WithContext(ctx).First(&course, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &course, nil
	}

	if !c.helpers.useCache(tx) {
		course, err := fetch()
		if err != nil {
			return nil, err
		}
		return course.(*models.Course), nil
	}

	var course models.Course
	err := c.cacheManager.Course.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &course, cache.CourseCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByIDWithModules retrieves a course with its ordered modules and lessons
func (c *CoursePostgreSQL) GetByIDWithModules(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	fetch := func() (interface{}, error) {
		var course models.Course
		if err := orderedTree(c.helpers.getDB(tx).WithContext(ctx)).First(&course, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get course with modules: %w", err)
		}
		return &course, nil
	}

	if !c.helpers.useCache(tx) {
		course, err := fetch()
		if err != nil {
			return nil, err
		}
		return course.(*models.Course), nil
	}

	var course models.Course
	err := c.cacheManager.Course.CacheOrExecute(ctx, fmt.Sprintf("tree:%d", id), &course, cache.CourseCacheConfig.TTL, fetch)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Update saves the editable course fields and invalidates cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := c.helpers.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"hours":       course.Hours,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update course: %w", gorm.ErrRecordNotFound)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)
	// Validation lookups embed the course title and hours
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Certificate, "code:*")
	return nil
}

// Delete removes a course and everything hanging off it in one transaction
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.helpers.getDB(tx)

	err := c.helpers.inTx(ctx, db, func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Select("id").First(&course, id).Error; err != nil {
			return fmt.Errorf("failed to get course: %w", err)
		}

		if err := c.helpers.deleteLessonsWhere(ctx, tx, "course_id = ?", id); err != nil {
			return err
		}
		// Progress rows of lessons already gone
		if err := tx.Where("course_id = ?", id).Delete(&models.Progress{}).Error; err != nil {
			return fmt.Errorf("failed to delete course progress: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Module{}).Error; err != nil {
			return fmt.Errorf("failed to delete modules: %w", err)
		}

		quizIDs := tx.Model(&models.Quiz{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizResponse{}).Error; err != nil {
			return fmt.Errorf("failed to delete quiz responses: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Quiz{}).Error; err != nil {
			return fmt.Errorf("failed to delete quiz: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
			return fmt.Errorf("failed to delete certificates: %w", err)
		}

		if err := tx.Delete(&models.Course{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Certificate, "code:*")
	return nil
}

// List retrieves courses with filters and pagination
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := c.helpers.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Course{})

	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []*models.Course
	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

// ListWithModules retrieves every course newest first with its ordered tree
func (c *CoursePostgreSQL) ListWithModules(ctx context.Context, tx *gorm.DB) ([]*models.Course, error) {
	fetch := func() (interface{}, error) {
		var courses []*models.Course
		err := orderedTree(c.helpers.getDB(tx).WithContext(ctx)).
			Order("created_at DESC").
			Order("id DESC").
			Find(&courses).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list courses with modules: %w", err)
		}
		return courses, nil
	}

	if !c.helpers.useCache(tx) {
		courses, err := fetch()
		if err != nil {
			return nil, err
		}
		return courses.([]*models.Course), nil
	}

	var courses []*models.Course
	if err := c.cacheManager.Course.CacheOrExecute(ctx, "list:tree", &courses, cache.CourseCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return courses, nil
}

// Exists checks whether a course exists
func (c *CoursePostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := c.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) InvalidateCache(ctx context.Context, courseID uint) {
	cache.InvalidateCourseCache(ctx, c.cacheManager, courseID)
}
