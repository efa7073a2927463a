package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sortBy"`    // "created_at", "title"
	SortOrder string `json:"sortOrder"` // "asc", "desc"
}

type UserFilters struct {
	Query  string           // Search query for name or email
	Role   *models.UserRole // Optional role filter
	Limit  int              // Page size
	Offset int              // Offset for pagination
}

type QuizResponseFilters struct {
	CourseID *uint `json:"courseId"`
	UserID   *uint `json:"userId"`
}

// ===== SHARED ERROR HELPERS =====

// IsNotFoundError reports whether err wraps gorm's record-not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique constraint violation.
// Requires gorm.Config.TranslateError.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
