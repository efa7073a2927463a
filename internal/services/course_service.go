package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

// progressFanOut bounds the per-course summary queries run in parallel
const progressFanOut = 8

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseService) Create(ctx context.Context, req *CreateCourseRequest) (*models.Course, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	s.logger.Info("Creating course", "title", req.Title)

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Hours:       models.DefaultCourseHours,
	}
	if req.Hours != nil {
		course.Hours = *req.Hours
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created successfully", "course_id", course.ID)
	return course, nil
}

// GetByID returns the course with modules and lessons in order
func (s *courseService) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithModules(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = strings.TrimSpace(req.Description)
	if req.Hours != nil {
		course.Hours = *req.Hours
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id)
	return s.GetByID(ctx, id)
}

// Delete removes the course and everything hanging off it in one transaction
func (s *courseService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting course", "course_id", id)

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id)
	return nil
}

func (s *courseService) List(ctx context.Context) ([]*models.Course, error) {
	courses, _, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// ListAvailable returns the catalog with the user's progress. Courses already started
// come first, most recently watched first; the rest keep the catalog order.
func (s *courseService) ListAvailable(ctx context.Context, userID uint) ([]*AvailableCourse, error) {
	courses, err := s.repo.Course().ListWithModules(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	result := make([]*AvailableCourse, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressFanOut)

	for i, course := range courses {
		g.Go(func() error {
			summary, err := s.repo.Progress().CourseSummary(gctx, nil, userID, course.ID)
			if err != nil {
				return fmt.Errorf("failed to get progress for course %d: %w", course.ID, err)
			}
			result[i] = &AvailableCourse{
				ID:          course.ID,
				Title:       course.Title,
				Description: course.Description,
				Hours:       course.Hours,
				ModuleCount: len(course.Modules),
				LessonCount: course.LessonCount(),
				Progress:    *summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortByRecentProgress(result)
	return result, nil
}

func sortByRecentProgress(courses []*AvailableCourse) {
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i].Progress, courses[j].Progress
		aStarted, bStarted := a.PercentComplete > 0, b.PercentComplete > 0
		if aStarted != bStarted {
			return aStarted
		}
		if aStarted && a.LastWatched != nil && b.LastWatched != nil {
			return a.LastWatched.After(*b.LastWatched)
		}
		return false
	})
}
