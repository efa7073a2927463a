package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

// ErrorResponse is the body of every non-2xx JSON answer
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the logger and the helpers shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLoggerFromContext(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "path", c.FullPath())
	utils.GetLoggerFromContext(c, h.logger).Error(msg, args...)
}

// parseIDParam reads a positive numeric path parameter. It writes the 400 itself
// and returns 0 when the value is missing or malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// parseIDQuery is parseIDParam for a required query string value
func (h *BaseHandler) parseIDQuery(c *gin.Context, name string) uint {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid or missing " + name,
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// optionalIDQuery returns nil when the parameter is absent
func (h *BaseHandler) optionalIDQuery(c *gin.Context, name string) (*uint, bool) {
	if c.Query(name) == "" {
		return nil, true
	}
	id := h.parseIDQuery(c, name)
	if id == 0 {
		return nil, false
	}
	return &id, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// session returns the authenticated caller, answering 401 when there is none
func (h *BaseHandler) session(c *gin.Context) (services.SessionUser, bool) {
	user, ok := GetSessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return services.SessionUser{}, false
	}
	return user, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
		return
	}

	var providerErr *services.VideoProviderError
	if errors.As(err, &providerErr) {
		status := providerErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		h.LogError(c, err, "Video provider call failed", "status", status)
		c.JSON(status, ErrorResponse{
			Message: "Video provider error",
			Details: providerErr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrModuleNotFound),
		errors.Is(err, services.ErrLessonNotFound),
		errors.Is(err, services.ErrQuizNotFound),
		errors.Is(err, services.ErrCertificateNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrQuizAlreadyExists),
		errors.Is(err, services.ErrCertificateAlreadyExists),
		errors.Is(err, services.ErrEmailAlreadyExists),
		errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrCertificateNotEligible),
		errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrUserInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})

	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Details: err.Error(),
		})
	}
}
