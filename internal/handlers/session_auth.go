package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
)

const (
	ctxUserID    = "user_id"
	ctxUserRole  = "user_role"
	ctxUserEmail = "user_email"
	ctxUserName  = "user_name"
)

// SessionAuthMiddleware authenticates requests with the signed session token
type SessionAuthMiddleware struct {
	auth   services.AuthService
	config config.SessionConfig
}

func NewSessionAuthMiddleware(auth services.AuthService, cfg config.SessionConfig) *SessionAuthMiddleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	return &SessionAuthMiddleware{
		auth:   auth,
		config: cfg,
	}
}

// AuthMiddleware reads the session cookie, falling back to an Authorization bearer token
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "authentication required",
			})
			return
		}

		user, err := m.auth.ParseToken(token)
		if err != nil {
			message := "invalid session"
			if errors.Is(err, services.ErrUnauthorized) {
				message = err.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: message,
			})
			return
		}

		// Claims alone would keep a deactivated or deleted account in for the token's lifetime
		current, err := m.auth.Me(c.Request.Context(), *user)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserInactive):
				c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
			case errors.Is(err, services.ErrUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid session"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal server error",
					Details: err.Error(),
				})
			}
			return
		}

		c.Set(ctxUserID, current.ID)
		c.Set(ctxUserRole, current.Role)
		c.Set(ctxUserEmail, current.Email)
		c.Set(ctxUserName, current.Name)

		c.Next()
	}
}

// RequireRoleMiddleware lets the request through only for the listed roles
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "forbidden",
				Details: err.Error(),
			})
			return
		}

		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

// SetSessionCookie stores the token in the httpOnly session cookie
func (m *SessionAuthMiddleware) SetSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(m.config.CookieName, token, maxAge, "/", "", m.config.CookieSecure, true)
}

func (m *SessionAuthMiddleware) ClearSessionCookie(c *gin.Context) {
	m.SetSessionCookie(c, "", -1)
}

func (m *SessionAuthMiddleware) extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(m.config.CookieName); err == nil && cookie != "" {
		return cookie
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetSessionUser rebuilds the caller from the values AuthMiddleware stored
func GetSessionUser(c *gin.Context) (services.SessionUser, bool) {
	id, err := GetUserIDFromContext(c)
	if err != nil {
		return services.SessionUser{}, false
	}
	role, _ := GetUserRoleFromContext(c)
	return services.SessionUser{
		ID:    id,
		Email: c.GetString(ctxUserEmail),
		Name:  c.GetString(ctxUserName),
		Role:  role,
	}, true
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
