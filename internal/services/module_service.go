package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

type moduleService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewModuleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ModuleService {
	return &moduleService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Create appends the module after the course's last one
func (s *moduleService) Create(ctx context.Context, req *CreateModuleRequest) (*models.Module, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	s.logger.Info("Creating module", "course_id", req.CourseID, "title", req.Title)

	var module *models.Module
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		exists, err := s.repo.Course().Exists(ctx, tx, req.CourseID)
		if err != nil {
			return fmt.Errorf("failed to check course: %w", err)
		}
		if !exists {
			return ErrCourseNotFound
		}

		position, err := s.repo.Module().NextPosition(ctx, tx, req.CourseID)
		if err != nil {
			return err
		}

		module = &models.Module{
			CourseID:    req.CourseID,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Position:    position,
		}
		if err := s.repo.Module().Create(ctx, tx, module); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.repo.Course().InvalidateCache(ctx, module.CourseID)

	s.logger.Info("Module created successfully", "module_id", module.ID, "order", module.Position)
	return module, nil
}

func (s *moduleService) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	module, err := s.repo.Module().GetByIDWithLessons(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

func (s *moduleService) Update(ctx context.Context, id uint, req *UpdateModuleRequest) (*models.Module, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	module.Title = strings.TrimSpace(req.Title)
	module.Description = strings.TrimSpace(req.Description)
	if err := s.repo.Module().Update(ctx, nil, module); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to update module: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the module and its lessons, then renumbers the siblings 0..n-1
func (s *moduleService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting module", "module_id", id)

	if err := s.repo.Module().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to delete module: %w", err)
	}
	return nil
}

// Reorder sets order = index for the listed modules, which must be exactly the course's modules
func (s *moduleService) Reorder(ctx context.Context, req *ReorderModulesRequest) error {
	if err := validateRequest(s.validator, req); err != nil {
		return err
	}

	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		exists, err := s.repo.Course().Exists(ctx, tx, req.CourseID)
		if err != nil {
			return fmt.Errorf("failed to check course: %w", err)
		}
		if !exists {
			return ErrCourseNotFound
		}

		modules, err := s.repo.Module().ListByCourse(ctx, tx, req.CourseID)
		if err != nil {
			return err
		}
		existing := make([]uint, len(modules))
		for i, m := range modules {
			existing[i] = m.ID
		}

		if errs := s.validator.Business().ValidateReorder(req.ModuleIDs, existing); len(errs) > 0 {
			return errs
		}

		if err := s.repo.Module().UpdatePositions(ctx, tx, req.CourseID, req.ModuleIDs); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to reorder modules: %w", err)
		}

		s.logger.Info("Modules reordered", "course_id", req.CourseID, "count", len(req.ModuleIDs))
		return nil
	})
	if err != nil {
		return err
	}

	s.repo.Course().InvalidateCache(ctx, req.CourseID)
	return nil
}
