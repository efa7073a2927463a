package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// CertificateRepository interface for certificate operations
type CertificateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Certificate, error)
	GetActiveByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Certificate, error)
	// GetActiveByCode returns an active certificate with user and course loaded
	GetActiveByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certificate, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CertificateStatus) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Certificate, error)
}
