package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

const (
	recentActivityLimit = 10
	activeStudentWindow = 30 * 24 * time.Hour
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// StudentDashboard lists the courses the student has started, most recently watched first
func (s *dashboardService) StudentDashboard(ctx context.Context, userID uint) (*StudentDashboard, error) {
	s.logger.Info("Getting student dashboard", "user_id", userID)

	courses, _, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	items, err := s.courseProgressItems(ctx, userID, courses)
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.Dashboard().CountCompletedLessons(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	stats := StudentStats{
		TotalCourses:     int64(len(courses)),
		CompletedLessons: completed,
	}
	started := make([]CourseProgressItem, 0, len(items))
	for _, item := range items {
		if item.PercentComplete > 0 && item.PercentComplete < models.ProgressComplete {
			stats.InProgress++
		}
		if item.PercentComplete > 0 {
			started = append(started, item)
		}
	}
	sort.SliceStable(started, func(i, j int) bool {
		return timeOrZero(started[i].LastWatched).After(timeOrZero(started[j].LastWatched))
	})

	return &StudentDashboard{CoursesProgress: started, Stats: stats}, nil
}

// AdminDashboard aggregates platform totals, student activity and per course engagement
func (s *dashboardService) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	s.logger.Info("Getting admin dashboard")

	var (
		students     []*models.User
		totalCourses int64
		totalLessons int64
		lessonTotals []models.CourseLessonTotal
		facts        []repositories.ProgressFact
		recent       []models.ProgressActivity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		students, err = s.listStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		if totalCourses, err = s.repo.Dashboard().CountCourses(gctx, nil); err != nil {
			return fmt.Errorf("failed to count courses: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if totalLessons, err = s.repo.Dashboard().CountLessons(gctx, nil); err != nil {
			return fmt.Errorf("failed to count lessons: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if lessonTotals, err = s.repo.Dashboard().LessonTotalsByCourse(gctx, nil); err != nil {
			return fmt.Errorf("failed to get lesson totals: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if facts, err = s.repo.Dashboard().ProgressFacts(gctx, nil, nil); err != nil {
			return fmt.Errorf("failed to get progress facts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if recent, err = s.repo.Dashboard().GetRecentActivities(gctx, nil, recentActivityLimit); err != nil {
			return fmt.Errorf("failed to get recent activities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []models.ProgressActivity{}
	}

	return &AdminDashboard{
		TotalStudents:    int64(len(students)),
		TotalCourses:     totalCourses,
		TotalLessons:     totalLessons,
		TotalCompletions: countCourseCompletions(facts, lessonTotals),
		StudentProgress:  studentActivity(students, facts, time.Now()),
		CourseEngagement: courseEngagement(facts, lessonTotals),
		RecentActivities: recent,
	}, nil
}

func (s *dashboardService) ListStudents(ctx context.Context) ([]*StudentSummary, error) {
	students, err := s.listStudents(ctx)
	if err != nil {
		return nil, err
	}
	totalCourses, err := s.repo.Dashboard().CountCourses(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	facts, err := s.repo.Dashboard().ProgressFacts(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress facts: %w", err)
	}

	byUser := make(map[uint][]repositories.ProgressFact)
	for _, f := range facts {
		byUser[f.UserID] = append(byUser[f.UserID], f)
	}

	summaries := make([]*StudentSummary, len(students))
	for i, student := range students {
		summary := &StudentSummary{
			ID:           student.ID,
			Name:         student.Name,
			Email:        student.Email,
			Status:       student.Status,
			CreatedAt:    student.CreatedAt,
			TotalCourses: totalCourses,
		}
		if summary.Status == "" {
			summary.Status = models.UserActive
		}

		courses := make(map[uint]struct{})
		for _, f := range byUser[student.ID] {
			courses[f.CourseID] = struct{}{}
			if f.Completed {
				summary.TotalLessonsCompleted++
			}
			if summary.LastAccess == nil || f.UpdatedAt.After(*summary.LastAccess) {
				last := f.UpdatedAt
				summary.LastAccess = &last
			}
		}
		summary.CoursesStarted = len(courses)
		summaries[i] = summary
	}
	return summaries, nil
}

// StudentProgress reports every course for one student, including those not started
func (s *dashboardService) StudentProgress(ctx context.Context, studentID uint) (*StudentProgressReport, error) {
	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	courses, _, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	items, err := s.courseProgressItems(ctx, studentID, courses)
	if err != nil {
		return nil, err
	}

	report := &StudentProgressReport{
		Student: student,
		Courses: make([]StudentCourseProgress, len(items)),
	}
	for i, item := range items {
		report.Courses[i] = StudentCourseProgress{
			CourseID:         item.CourseID,
			CourseName:       item.CourseName,
			CompletedLessons: item.CompletedLessons,
			TotalLessons:     item.TotalLessons,
			PercentComplete:  item.PercentComplete,
			LastAccess:       item.LastWatched,
		}
	}
	return report, nil
}

// ===== HELPERS =====

// courseProgressItems computes each course summary concurrently, keeping course order
func (s *dashboardService) courseProgressItems(ctx context.Context, userID uint, courses []*models.Course) ([]CourseProgressItem, error) {
	items := make([]CourseProgressItem, len(courses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressFanOut)
	for i, course := range courses {
		g.Go(func() error {
			summary, err := s.repo.Progress().CourseSummary(gctx, nil, userID, course.ID)
			if err != nil {
				return fmt.Errorf("failed to get progress for course %d: %w", course.ID, err)
			}
			items[i] = CourseProgressItem{
				CourseID:       course.ID,
				CourseName:     course.Title,
				Description:    course.Description,
				CourseProgress: *summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *dashboardService) listStudents(ctx context.Context) ([]*models.User, error) {
	role := models.RoleStudent
	students, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

type userCourseKey struct {
	userID   uint
	courseID uint
}

// countCourseCompletions counts (student, course) pairs with every lesson of a non-empty course completed
func countCourseCompletions(facts []repositories.ProgressFact, totals []models.CourseLessonTotal) int {
	lessonsPerCourse := make(map[uint]int64, len(totals))
	for _, t := range totals {
		lessonsPerCourse[t.CourseID] = t.TotalLessons
	}

	completed := make(map[userCourseKey]int64)
	for _, f := range facts {
		if f.Completed {
			completed[userCourseKey{userID: f.UserID, courseID: f.CourseID}]++
		}
	}

	count := 0
	for key, n := range completed {
		total, ok := lessonsPerCourse[key.courseID]
		if ok && total > 0 && n == total {
			count++
		}
	}
	return count
}

// studentActivity splits students by whether they touched any lesson inside the window
func studentActivity(students []*models.User, facts []repositories.ProgressFact, now time.Time) StudentActivityStats {
	cutoff := now.Add(-activeStudentWindow)
	lastSeen := make(map[uint]time.Time)
	for _, f := range facts {
		if f.UpdatedAt.After(lastSeen[f.UserID]) {
			lastSeen[f.UserID] = f.UpdatedAt
		}
	}

	var stats StudentActivityStats
	for _, student := range students {
		seen, ok := lastSeen[student.ID]
		if ok && !seen.Before(cutoff) {
			stats.Active++
		} else {
			stats.Inactive++
		}
	}
	return stats
}

// courseEngagement reports distinct students per course and the share of their lessons completed
func courseEngagement(facts []repositories.ProgressFact, totals []models.CourseLessonTotal) []CourseEngagement {
	students := make(map[uint]map[uint]struct{})
	completed := make(map[uint]int64)
	for _, f := range facts {
		if students[f.CourseID] == nil {
			students[f.CourseID] = make(map[uint]struct{})
		}
		students[f.CourseID][f.UserID] = struct{}{}
		if f.Completed {
			completed[f.CourseID]++
		}
	}

	engagement := make([]CourseEngagement, len(totals))
	for i, t := range totals {
		enrolled := len(students[t.CourseID])
		engagement[i] = CourseEngagement{
			CourseID:       t.CourseID,
			CourseName:     t.Title,
			TotalStudents:  enrolled,
			CompletionRate: models.Percent(completed[t.CourseID], t.TotalLessons*int64(enrolled)),
		}
	}
	sort.SliceStable(engagement, func(i, j int) bool {
		return engagement[i].TotalStudents > engagement[j].TotalStudents
	})
	return engagement
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
