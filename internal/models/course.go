package models

import "time"

const DefaultCourseHours = 10

type Course struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null;size:200;index"`
	Description string `json:"description" gorm:"type:text;not null"`
	Hours       int    `json:"hours" gorm:"not null;default:10"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

// LessonCount returns the number of lessons across all loaded modules
func (c *Course) LessonCount() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

type Module struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CourseID    uint   `json:"courseId" gorm:"not null;index:idx_module_course_position"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text;not null"`
	Position    int    `json:"order" gorm:"column:position;not null;default:0;index:idx_module_course_position"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Module) TableName() string {
	return "modules"
}
