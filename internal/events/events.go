package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "treinamentos-api"
	EventVersion = "1.0"
)

// Topics
const (
	TopicLessonCompleted   = "lms.lesson.completed"
	TopicQuizSubmitted     = "lms.quiz.submitted"
	TopicCertificateIssued = "lms.certificate.issued"
)

// AllTopics lists every topic the service publishes to
var AllTopics = []string{TopicLessonCompleted, TopicQuizSubmitted, TopicCertificateIssued}

// Event is the envelope shared by every published domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type LessonCompletedEvent struct {
	UserID   uint `json:"user_id"`
	LessonID uint `json:"lesson_id"`
	CourseID uint `json:"course_id"`
}

type QuizSubmittedEvent struct {
	UserID     uint `json:"user_id"`
	QuizID     uint `json:"quiz_id"`
	CourseID   uint `json:"course_id"`
	ResponseID uint `json:"response_id"`
	Score      int  `json:"score"`
	Passed     bool `json:"passed"`
}

type CertificateIssuedEvent struct {
	CertificateID  uint   `json:"certificate_id"`
	UserID         uint   `json:"user_id"`
	CourseID       uint   `json:"course_id"`
	ValidationCode string `json:"validation_code"`
	QuizScore      int    `json:"quiz_score"`
}

// EventPublisher publishes domain events to a topic
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}
