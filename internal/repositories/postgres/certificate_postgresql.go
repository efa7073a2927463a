package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/cache"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
)

type CertificatePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCertificatePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CertificateRepository {
	return &CertificatePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts a certificate. Unique violations surface as gorm.ErrDuplicatedKey.
func (c *CertificatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, certificate *models.Certificate) error {
	if err := c.helpers.getDB(tx).WithContext(ctx).Create(certificate).Error; err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

func (c *CertificatePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := c.helpers.getDB(tx).WithContext(ctx).
		Preload("User").
		Preload("Course").
		First(&certificate, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := c.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&certificate).Error; err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) GetActiveByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uint) (*models.Certificate, error) {
	var certificate models.Certificate
	if err := c.helpers.getDB(tx).WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.CertificateActive).
		First(&certificate).Error; err != nil {
		return nil, fmt.Errorf("failed to get active certificate: %w", err)
	}
	return &certificate, nil
}

// GetActiveByCode backs public validation; only positive hits are cached
func (c *CertificatePostgreSQL) GetActiveByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certificate, error) {
	fetch := func() (interface{}, error) {
		var certificate models.Certificate
		if err := c.helpers.getDB(tx).WithContext(ctx).
			Preload("User").
			Preload("Course").
			Where("validation_code = ? AND status = ?", code, models.CertificateActive).
			First(&certificate).Error; err != nil {
			return nil, fmt.Errorf("failed to get certificate by code: %w", err)
		}
		return &certificate, nil
	}

	if !c.helpers.useCache(tx) {
		certificate, err := fetch()
		if err != nil {
			return nil, err
		}
		return certificate.(*models.Certificate), nil
	}

	var certificate models.Certificate
	if err := c.cacheManager.Certificate.CacheOrExecute(ctx, "code:"+code, &certificate, cache.CertificateCacheConfig.TTL, fetch); err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (c *CertificatePostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.CertificateStatus) error {
	db := c.helpers.getDB(tx)

	var certificate models.Certificate
	if err := db.WithContext(ctx).Select("id", "validation_code").First(&certificate, id).Error; err != nil {
		return fmt.Errorf("failed to get certificate: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update certificate status: %w", err)
	}

	cache.InvalidateCertificateCache(ctx, c.cacheManager, certificate.ValidationCode)
	return nil
}

func (c *CertificatePostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Certificate, error) {
	var certificates []*models.Certificate
	if err := c.helpers.getDB(tx).WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certificates).Error; err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certificates, nil
}
