package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

type certificateService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	renderer  *CertificateRenderer
	appURL    string
}

func NewCertificateService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator,
	publisher events.EventPublisher, renderer *CertificateRenderer, appURL string) CertificateService {
	return &certificateService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		renderer:  renderer,
		appURL:    strings.TrimRight(appURL, "/"),
	}
}

// Issue creates the user's certificate for a course. An existing certificate always wins
// with a conflict; otherwise the most recent quiz attempt must have passed.
func (s *certificateService) Issue(ctx context.Context, userID uint, req *IssueCertificateRequest) (*CertificateView, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	s.logger.Info("Issuing certificate", "user_id", userID, "course_id", req.CourseID)

	if _, err := s.repo.Certificate().GetByUserAndCourse(ctx, nil, userID, req.CourseID); err == nil {
		return nil, ErrCertificateAlreadyExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing certificate: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByCourse(ctx, nil, req.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	latest, err := s.repo.QuizResponse().GetLatest(ctx, nil, userID, quiz.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotEligible
		}
		return nil, fmt.Errorf("failed to get latest quiz response: %w", err)
	}
	if !latest.Passed() {
		s.logger.Info("Certificate refused, latest attempt below passing score",
			"user_id", userID, "course_id", req.CourseID, "score", latest.Score)
		return nil, ErrCertificateNotEligible
	}

	code, err := GenerateValidationCode()
	if err != nil {
		return nil, err
	}

	certificate := &models.Certificate{
		UserID:         userID,
		CourseID:       req.CourseID,
		QuizScore:      latest.Score,
		ValidationCode: code,
		Status:         models.CertificateActive,
		IssuedAt:       time.Now().UTC(),
	}
	if err := s.repo.Certificate().Create(ctx, nil, certificate); err != nil {
		// A concurrent issue or a code collision trips a unique index; there is no retry
		if repositories.IsDuplicateError(err) {
			return nil, ErrCertificateAlreadyExists
		}
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	s.logger.Info("Certificate issued", "certificate_id", certificate.ID, "user_id", userID, "course_id", req.CourseID)

	publishEvent(ctx, s.publisher, s.logger, events.TopicCertificateIssued, events.CertificateIssuedEvent{
		CertificateID:  certificate.ID,
		UserID:         userID,
		CourseID:       req.CourseID,
		ValidationCode: code,
		QuizScore:      certificate.QuizScore,
	})

	created, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, certificate.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return buildCertificateView(created), nil
}

// GetForCourse returns the user's active certificate for the course, or nil
func (s *certificateService) GetForCourse(ctx context.Context, userID, courseID uint) (*CertificateView, error) {
	certificate, err := s.repo.Certificate().GetActiveByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return buildCertificateView(certificate), nil
}

func (s *certificateService) ListByUser(ctx context.Context, userID uint) ([]*CertificateView, error) {
	certificates, err := s.repo.Certificate().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	views := make([]*CertificateView, len(certificates))
	for i, c := range certificates {
		views[i] = buildCertificateView(c)
	}
	return views, nil
}

// Validate resolves a public validation code. Revoked and unknown codes look the same.
func (s *certificateService) Validate(ctx context.Context, code string) (*CertificateValidation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, badRequest("validation code is required")
	}

	certificate, err := s.repo.Certificate().GetActiveByCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to validate certificate: %w", err)
	}

	validation := &CertificateValidation{
		ValidationCode: certificate.ValidationCode,
		QuizScore:      certificate.QuizScore,
		IssuedAt:       certificate.IssuedAt,
	}
	if certificate.User != nil {
		validation.StudentName = certificate.User.Name
	}
	if certificate.Course != nil {
		validation.CourseTitle = certificate.Course.Title
		validation.Hours = courseHours(certificate.Course)
	}
	return validation, nil
}

// Download renders the PDF. Only the owner or an admin may fetch it.
func (s *certificateService) Download(ctx context.Context, certificateID uint, requester SessionUser) (*CertificateDocument, error) {
	certificate, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, certificateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	if certificate.UserID != requester.ID && !requester.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if !certificate.IsActive() {
		return nil, ErrCertificateNotFound
	}

	data := CertificateData{
		Score:          certificate.QuizScore,
		CompletedAt:    certificate.IssuedAt,
		ValidationCode: certificate.ValidationCode,
		ValidationURL:  fmt.Sprintf("%s/validate/%s", s.appURL, certificate.ValidationCode),
		Hours:          models.DefaultCourseHours,
	}
	if certificate.User != nil {
		data.StudentName = certificate.User.Name
	}
	if certificate.Course != nil {
		data.CourseTitle = certificate.Course.Title
		data.Hours = courseHours(certificate.Course)
	}

	content, err := s.renderer.RenderPDF(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	s.logger.Info("Certificate rendered", "certificate_id", certificate.ID, "bytes", len(content))
	return &CertificateDocument{
		Filename: CertificateFilename(data.CourseTitle),
		Content:  content,
	}, nil
}

func (s *certificateService) Revoke(ctx context.Context, id uint) error {
	certificate, err := s.repo.Certificate().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCertificateNotFound
		}
		return fmt.Errorf("failed to get certificate: %w", err)
	}
	if !certificate.IsActive() {
		return nil
	}

	if err := s.repo.Certificate().UpdateStatus(ctx, nil, id, models.CertificateRevoked); err != nil {
		return fmt.Errorf("failed to revoke certificate: %w", err)
	}

	s.logger.Warn("Certificate revoked", "certificate_id", id, "user_id", certificate.UserID, "course_id", certificate.CourseID)
	return nil
}

// GenerateValidationCode draws ValidationCodeLength characters from [0-9A-Z]
func GenerateValidationCode() (string, error) {
	alphabet := models.ValidationCodeAlphabet
	upper := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(models.ValidationCodeLength)
	for i := 0; i < models.ValidationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, upper)
		if err != nil {
			return "", fmt.Errorf("failed to generate validation code: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// CertificateFilename is the attachment name for a course's certificate
func CertificateFilename(courseTitle string) string {
	slug := utils.Slugify(courseTitle)
	if slug == "" {
		slug = "curso"
	}
	return fmt.Sprintf("certificado-%s.pdf", slug)
}

func courseHours(course *models.Course) int {
	if course.Hours > 0 {
		return course.Hours
	}
	return models.DefaultCourseHours
}

func buildCertificateView(c *models.Certificate) *CertificateView {
	view := &CertificateView{
		ID:             c.ID,
		UserID:         c.UserID,
		CourseID:       c.CourseID,
		QuizScore:      c.QuizScore,
		ValidationCode: c.ValidationCode,
		Status:         c.Status,
		IssuedAt:       c.IssuedAt,
	}
	if c.Course != nil {
		view.CourseTitle = c.Course.Title
	}
	return view
}
