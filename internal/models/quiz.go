package models

import (
	"time"

	"gorm.io/datatypes"
)

// PassingScore is the minimum quiz score that counts as a pass
const PassingScore = 70

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type Quiz struct {
	ID        uint                              `json:"id" gorm:"primaryKey"`
	CourseID  uint                              `json:"courseId" gorm:"not null;uniqueIndex"`
	Questions datatypes.JSONSlice[QuizQuestion] `json:"questions" gorm:"not null"`
	CreatedAt time.Time                         `json:"createdAt"`
	UpdatedAt time.Time                         `json:"updatedAt"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type QuizAnswer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
}

// QuizResponse is one submission attempt; every attempt is kept
type QuizResponse struct {
	ID          uint                            `json:"id" gorm:"primaryKey"`
	QuizID      uint                            `json:"quizId" gorm:"not null;index:idx_quiz_response_user_quiz"`
	UserID      uint                            `json:"userId" gorm:"not null;index:idx_quiz_response_user_quiz"`
	Answers     datatypes.JSONSlice[QuizAnswer] `json:"answers"`
	Score       int                             `json:"score" gorm:"not null"`
	CompletedAt time.Time                       `json:"completedAt" gorm:"not null;index"`
	CreatedAt   time.Time                       `json:"createdAt"`

	// Relations
	Quiz *Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (QuizResponse) TableName() string {
	return "quiz_responses"
}

func (r *QuizResponse) Passed() bool {
	return r.Score >= PassingScore
}
