package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

type progressService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Update records a progress report. The stored value only grows; the course comes
// from the lesson and a client supplied course id must agree with it.
func (s *progressService) Update(ctx context.Context, userID uint, req *UpdateProgressRequest) (*models.Progress, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, nil, req.LessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	if req.CourseID != nil && *req.CourseID != lesson.CourseID {
		return nil, badRequest("lesson %d does not belong to course %d", lesson.ID, *req.CourseID)
	}

	record, newlyCompleted, err := s.repo.Progress().Upsert(ctx, nil, repositories.ProgressUpsert{
		UserID:    userID,
		LessonID:  lesson.ID,
		CourseID:  lesson.CourseID,
		Progress:  req.Progress,
		Completed: req.Completed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	s.logger.Debug("Progress saved",
		"user_id", userID,
		"lesson_id", lesson.ID,
		"progress", record.Progress,
		"completed", record.Completed)

	if newlyCompleted {
		s.logger.Info("Lesson completed", "user_id", userID, "lesson_id", lesson.ID, "course_id", lesson.CourseID)
		publishEvent(ctx, s.publisher, s.logger, events.TopicLessonCompleted, events.LessonCompletedEvent{
			UserID:   userID,
			LessonID: lesson.ID,
			CourseID: lesson.CourseID,
		})
	}

	return record, nil
}

func (s *progressService) ListByCourse(ctx context.Context, userID, courseID uint) ([]*models.Progress, error) {
	records, err := s.repo.Progress().ListByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

// CourseProgress returns {completedLessons, totalLessons, percentComplete, lastWatched}
func (s *progressService) CourseProgress(ctx context.Context, userID, courseID uint) (*models.CourseProgress, error) {
	exists, err := s.repo.Course().Exists(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}

	summary, err := s.repo.Progress().CourseSummary(ctx, nil, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return summary, nil
}

// CourseCompletion reports whether every lesson of the course has a completed record
func (s *progressService) CourseCompletion(ctx context.Context, userID, courseID uint) (*CourseCompletion, error) {
	lessonIDs, err := s.repo.Lesson().ListIDsByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course lessons: %w", err)
	}
	completedIDs, err := s.repo.Progress().CompletedLessonIDs(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	if completedIDs == nil {
		completedIDs = []uint{}
	}

	return &CourseCompletion{
		Completed:          allLessonsCompleted(lessonIDs, completedIDs),
		CompletedLessonIDs: completedIDs,
		TotalLessons:       len(lessonIDs),
	}, nil
}

// allLessonsCompleted is a set membership check; a course without lessons is never completed
func allLessonsCompleted(lessonIDs, completedIDs []uint) bool {
	if len(lessonIDs) == 0 {
		return false
	}
	done := make(map[uint]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		done[id] = struct{}{}
	}
	for _, id := range lessonIDs {
		if _, ok := done[id]; !ok {
			return false
		}
	}
	return true
}
