package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/cache"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type ModulePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewModulePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (m *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	if err := m.helpers.getDB(tx).WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("failed to create module: %w", err)
	}
	cache.InvalidateCourseCache(ctx, m.cacheManager, module.CourseID)
	return nil
}

func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.helpers.getDB(tx).WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &module, nil
}

// GetByIDWithLessons retrieves a module with its lessons in order
func (m *ModulePostgreSQL) GetByIDWithLessons(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	var module models.Module
	err := m.helpers.getDB(tx).WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		First(&module, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get module with lessons: %w", err)
	}
	return &module, nil
}

func (m *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	result := m.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", module.ID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"description": module.Description,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update module: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update module: %w", gorm.ErrRecordNotFound)
	}
	cache.InvalidateCourseCache(ctx, m.cacheManager, module.CourseID)
	return nil
}

// Delete removes a module with its lessons and renumbers the remaining siblings
func (m *ModulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var courseID uint
	err := m.helpers.inTx(ctx, m.helpers.getDB(tx), func(tx *gorm.DB) error {
		var module models.Module
		if err := tx.Select("id", "course_id").First(&module, id).Error; err != nil {
			return fmt.Errorf("failed to get module: %w", err)
		}
		courseID = module.CourseID

		if err := m.helpers.deleteLessonsWhere(ctx, tx, "module_id = ?", id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Module{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete module: %w", err)
		}
		return m.helpers.renumber(ctx, tx, &models.Module{}, "course_id", courseID)
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, m.cacheManager, courseID)
	return nil
}

// ListByCourse lists a course's modules in order
func (m *ModulePostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Module, error) {
	var modules []*models.Module
	err := m.helpers.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Order("id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

func (m *ModulePostgreSQL) NextPosition(ctx context.Context, tx *gorm.DB, courseID uint) (int, error) {
	return m.helpers.nextPosition(ctx, m.helpers.getDB(tx), &models.Module{}, "course_id", courseID)
}

// UpdatePositions sets position = index for every id, in one transaction
func (m *ModulePostgreSQL) UpdatePositions(ctx context.Context, tx *gorm.DB, courseID uint, orderedIDs []uint) error {
	err := m.helpers.inTx(ctx, m.helpers.getDB(tx), func(tx *gorm.DB) error {
		for position, id := range orderedIDs {
			result := tx.WithContext(ctx).
				Model(&models.Module{}).
				Where("id = ? AND course_id = ?", id, courseID).
				Update("position", position)
			if result.Error != nil {
				return fmt.Errorf("failed to update module position: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("failed to update module %d position: %w", id, gorm.ErrRecordNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateCourseCache(ctx, m.cacheManager, courseID)
	return nil
}
