package models

import "time"

type VideoSource string

const (
	VideoSourceVimeo      VideoSource = "vimeo"
	VideoSourceYouTube    VideoSource = "youtube"
	VideoSourceCloudinary VideoSource = "cloudinary"
)

// ValidVideoSources lists the hosting providers a lesson video may come from
var ValidVideoSources = []VideoSource{VideoSourceVimeo, VideoSourceYouTube, VideoSourceCloudinary}

func (s VideoSource) IsValid() bool {
	for _, v := range ValidVideoSources {
		if s == v {
			return true
		}
	}
	return false
}

type Lesson struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CourseID    uint        `json:"courseId" gorm:"not null;index:idx_lesson_course_position"`
	ModuleID    uint        `json:"moduleId" gorm:"not null;index:idx_lesson_module_position"`
	Title       string      `json:"title" gorm:"not null;size:200"`
	Description string      `json:"description" gorm:"type:text"`
	VideoID     string      `json:"videoId" gorm:"size:255;index"`
	VideoSource VideoSource `json:"videoSource" gorm:"size:20;not null;default:vimeo"`
	Duration    int         `json:"duration" gorm:"not null;default:0"` // seconds
	Position    int         `json:"order" gorm:"column:position;not null;default:0;index:idx_lesson_course_position;index:idx_lesson_module_position"`
	IsPublished bool        `json:"isPublished" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Lesson) TableName() string {
	return "lessons"
}
