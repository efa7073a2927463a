package models

import "time"

const ProgressComplete = 100.0

// Progress is unique per (user, lesson); Progress never decreases and Completed never resets
type Progress struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	UserID    uint    `json:"userId" gorm:"not null;uniqueIndex:idx_progress_user_lesson;index:idx_progress_user_course"`
	LessonID  uint    `json:"lessonId" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	CourseID  uint    `json:"courseId" gorm:"not null;index:idx_progress_user_course"`
	Progress  float64 `json:"progress" gorm:"not null;default:0;check:chk_progress_range,progress >= 0 AND progress <= 100"`
	Completed bool    `json:"completed" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`

	// Relations
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Progress) TableName() string {
	return "progresses"
}
