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

type lessonService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLessonService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) LessonService {
	return &lessonService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func videoSourceOrDefault(source string) models.VideoSource {
	if source == "" {
		return models.VideoSourceVimeo
	}
	return models.VideoSource(source)
}

// Create appends a lesson to the module. The course reference is always copied
// from the module so lesson.course_id == module.course_id.
func (s *lessonService) Create(ctx context.Context, moduleID uint, req *CreateLessonRequest) (*models.Lesson, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	s.logger.Info("Creating lesson", "module_id", moduleID, "title", req.Title)

	var lesson *models.Lesson
	err := withTx(ctx, s.db, func(tx *gorm.DB) error {
		module, err := s.repo.Module().GetByID(ctx, tx, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrModuleNotFound
			}
			return fmt.Errorf("failed to get module: %w", err)
		}

		position, err := s.repo.Lesson().NextPosition(ctx, tx, module.ID)
		if err != nil {
			return err
		}

		lesson = &models.Lesson{
			CourseID:    module.CourseID,
			ModuleID:    module.ID,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			VideoID:     strings.TrimSpace(req.VideoID),
			VideoSource: videoSourceOrDefault(req.VideoSource),
			Duration:    req.Duration,
			Position:    position,
		}
		if req.IsPublished != nil {
			lesson.IsPublished = *req.IsPublished
		}

		if err := s.repo.Lesson().Create(ctx, tx, lesson); err != nil {
			return fmt.Errorf("failed to create lesson: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.repo.Course().InvalidateCache(ctx, lesson.CourseID)

	s.logger.Info("Lesson created successfully", "lesson_id", lesson.ID, "course_id", lesson.CourseID)
	return lesson, nil
}

func (s *lessonService) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

func (s *lessonService) ListByModule(ctx context.Context, moduleID uint) ([]*models.Lesson, error) {
	if _, err := s.repo.Module().GetByID(ctx, nil, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	lessons, err := s.repo.Lesson().ListByModule(ctx, nil, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *lessonService) Update(ctx context.Context, id uint, req *UpdateLessonRequest) (*models.Lesson, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	lesson, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = strings.TrimSpace(req.Description)
	lesson.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoSource != "" {
		lesson.VideoSource = models.VideoSource(req.VideoSource)
	}
	if req.Duration != nil {
		lesson.Duration = *req.Duration
	}
	if req.IsPublished != nil {
		lesson.IsPublished = *req.IsPublished
	}

	if err := s.repo.Lesson().Update(ctx, nil, lesson); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("Lesson updated", "lesson_id", id)
	return s.GetByID(ctx, id)
}

// AttachVideo points the lesson at an uploaded video
func (s *lessonService) AttachVideo(ctx context.Context, id uint, req *AttachVideoRequest) (*models.Lesson, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	err := s.repo.Lesson().UpdateVideo(ctx, nil, id, strings.TrimSpace(req.VideoID), videoSourceOrDefault(req.VideoSource), req.Duration)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to attach video: %w", err)
	}

	s.logger.Info("Lesson video attached", "lesson_id", id, "video_id", req.VideoID)
	return s.GetByID(ctx, id)
}

func (s *lessonService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Lesson().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.logger.Info("Lesson deleted", "lesson_id", id)
	return nil
}
