package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

const passwordHashCost = bcrypt.DefaultCost

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// HashPassword returns the bcrypt hash stored for a user
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	s.logger.Info("Creating user", "email", email, "role", req.Role)

	exists, err := s.repo.User().ExistsByEmail(ctx, nil, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := models.RoleStudent
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.UserActive,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created successfully", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update replaces name, email and role; the password changes only when a new one is sent
func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest) (*models.User, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	exists, err := s.repo.User().ExistsByEmail(ctx, nil, email, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	if req.Role != "" {
		user.Role = models.UserRole(req.Role)
	}
	user.PasswordHash = ""
	if req.Password != "" {
		if user.PasswordHash, err = HashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		switch {
		case repositories.IsNotFoundError(err):
			return nil, ErrUserNotFound
		case repositories.IsDuplicateError(err):
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id, "password_changed", req.Password != "")
	return s.GetByID(ctx, id)
}

func (s *userService) UpdateStatus(ctx context.Context, id uint, req *UpdateUserStatusRequest) (*models.User, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	if err := s.repo.User().UpdateStatus(ctx, nil, id, models.UserStatus(req.Status)); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	s.logger.Info("User status changed", "user_id", id, "status", req.Status)
	return s.GetByID(ctx, id)
}

// Delete removes a user and everything they own. Admins cannot delete themselves.
func (s *userService) Delete(ctx context.Context, id uint, requesterID uint) error {
	if id == requesterID {
		return badRequest("you cannot delete your own account")
	}

	s.logger.Info("Deleting user", "user_id", id, "requested_by", requesterID)

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted successfully", "user_id", id)
	return nil
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	users, _, err := s.repo.User().List(ctx, nil, repositories.UserFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
