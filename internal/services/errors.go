package services

import (
	"errors"
	"fmt"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

var (
	// Catalog
	ErrCourseNotFound = errors.New("course not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")

	// Quiz
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuizAlreadyExists = errors.New("a quiz already exists for this course")

	// Certificates
	ErrCertificateAlreadyExists = errors.New("certificate already issued for this course")
	ErrCertificateNotEligible   = errors.New("minimum score not reached")
	ErrCertificateNotFound      = errors.New("certificate not found")

	// Users and session
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Generic
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("conflict")
)

// ValidationErrors is re-exported so handlers only depend on this package
type ValidationErrors = validator.ValidationErrors

// VideoProviderError carries an error status returned by the video hosting API
type VideoProviderError struct {
	StatusCode int
	Message    string
}

func (e *VideoProviderError) Error() string {
	return fmt.Sprintf("video provider error (status %d): %s", e.StatusCode, e.Message)
}

func NewVideoProviderError(statusCode int, message string) *VideoProviderError {
	return &VideoProviderError{StatusCode: statusCode, Message: message}
}

// badRequest wraps ErrBadRequest with a caller facing message
func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
