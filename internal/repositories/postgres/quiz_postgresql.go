package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.helpers.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.getDB(tx).WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		First(&quiz).Error; err != nil {
		return nil, fmt.Errorf("failed to get course quiz: %w", err)
	}
	return &quiz, nil
}

// Update replaces the question list
func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	result := q.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", quiz.ID).
		Update("questions", quiz.Questions)
	if result.Error != nil {
		return fmt.Errorf("failed to update quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update quiz: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (q *QuizPostgreSQL) ExistsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (bool, error) {
	var count int64
	if err := q.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check quiz existence: %w", err)
	}
	return count > 0, nil
}

type QuizResponsePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizResponsePostgreSQL(db *gorm.DB) repositories.QuizResponseRepository {
	return &QuizResponsePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *QuizResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.QuizResponse) error {
	if err := r.helpers.getDB(tx).WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create quiz response: %w", err)
	}
	return nil
}

func (r *QuizResponsePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizResponse, error) {
	var response models.QuizResponse
	if err := r.helpers.getDB(tx).WithContext(ctx).
		Preload("User").
		Preload("Quiz.Course").
		First(&response, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get quiz response: %w", err)
	}
	return &response, nil
}

func (r *QuizResponsePostgreSQL) GetLatest(ctx context.Context, tx *gorm.DB, userID, quizID uint) (*models.QuizResponse, error) {
	var response models.QuizResponse
	if err := r.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("completed_at DESC").
		Order("id DESC").
		First(&response).Error; err != nil {
		return nil, fmt.Errorf("failed to get latest quiz response: %w", err)
	}
	return &response, nil
}

func (r *QuizResponsePostgreSQL) ListByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uint) ([]*models.QuizResponse, error) {
	var responses []*models.QuizResponse
	if err := r.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("completed_at ASC").
		Order("id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list quiz responses: %w", err)
	}
	return responses, nil
}

func (r *QuizResponsePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizResponseFilters) ([]*models.QuizResponse, error) {
	query := r.helpers.getDB(tx).WithContext(ctx).
		Model(&models.QuizResponse{}).
		Preload("User").
		Preload("Quiz.Course")

	if filters.CourseID != nil {
		query = query.Where("quiz_id IN (?)",
			r.helpers.getDB(tx).Model(&models.Quiz{}).Select("id").Where("course_id = ?", *filters.CourseID))
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	var responses []*models.QuizResponse
	if err := query.Order("completed_at ASC").Order("id ASC").Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list quiz responses: %w", err)
	}
	return responses, nil
}
