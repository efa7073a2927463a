package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

const defaultSessionTTL = 24 * time.Hour

// SessionClaims is the payload of the session token
type SessionClaims struct {
	UserID uint            `json:"id"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	secret    []byte
	ttl       time.Duration
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, session config.SessionConfig) AuthService {
	ttl := session.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		secret:    []byte(session.JWTSecret),
		ttl:       ttl,
	}
}

// Login checks the credentials and signs a session token. Unknown emails and wrong
// passwords produce the same error.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Info("Login failed, unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("Login failed, wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.logger.Info("Login refused, user inactive", "user_id", user.ID)
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) IssueToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, algorithm and expiry
func (s *authService) ParseToken(token string) (*SessionUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: session expired", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid session token", ErrUnauthorized)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: invalid session token", ErrUnauthorized)
	}

	return &SessionUser{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

// Me reloads the session's user so that deleted or deactivated accounts lose access
func (s *authService) Me(ctx context.Context, session SessionUser) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, session.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Info("Admin bootstrap skipped, no credentials configured")
		return nil
	}

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, email, nil)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}

	admin := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
	}
	if err := s.repo.User().Create(ctx, nil, admin); err != nil {
		// Another replica seeded it first
		if repositories.IsDuplicateError(err) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("Bootstrap admin created", "user_id", admin.ID, "email", email)
	return nil
}
