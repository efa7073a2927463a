package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// QuizRepository interface for quiz operations
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	ExistsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (bool, error)
}

// QuizResponseRepository interface for quiz attempt operations
type QuizResponseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *models.QuizResponse) error
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResponse, error)

	// GetLatest returns the most recent attempt of a user for a quiz
	GetLatest(ctx context.Context, tx *gorm.DB, userID, quizID uint) (*models.QuizResponse, error)
	// ListByUserAndQuiz returns attempts in chronological order
	ListByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uint) ([]*models.QuizResponse, error)
	// List returns attempts with user and quiz course preloaded, oldest first
	List(ctx context.Context, tx *gorm.DB, filters QuizResponseFilters) ([]*models.QuizResponse, error)
}
