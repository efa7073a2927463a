package models

import (
	"math"
	"time"
)

// CourseProgress is the per-user completion summary of a course
type CourseProgress struct {
	CompletedLessons int64      `json:"completedLessons"`
	TotalLessons     int64      `json:"totalLessons"`
	PercentComplete  int        `json:"percentComplete"`
	LastWatched      *time.Time `json:"lastWatched"`
}

// ProgressActivity is a progress update joined with the student and course names
type ProgressActivity struct {
	UserID      uint      `json:"userId"`
	StudentName string    `json:"studentName"`
	CourseID    uint      `json:"courseId"`
	CourseName  string    `json:"courseName"`
	Completed   bool      `json:"completed"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseLessonTotal holds the lesson count of one course
type CourseLessonTotal struct {
	CourseID     uint   `json:"courseId"`
	Title        string `json:"title"`
	TotalLessons int64  `json:"totalLessons"`
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Module{},
		&Lesson{},
		&Progress{},
		&Quiz{},
		&QuizResponse{},
		&Certificate{},
	}
}

// NewCourseProgress builds a summary, rounding the percentage and treating an empty course as 0%
func NewCourseProgress(completed, total int64, lastWatched *time.Time) CourseProgress {
	return CourseProgress{
		CompletedLessons: completed,
		TotalLessons:     total,
		PercentComplete:  Percent(completed, total),
		LastWatched:      lastWatched,
	}
}

// Percent returns round(part/total*100), or 0 when total is 0
func Percent(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
