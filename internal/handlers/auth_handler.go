package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
	cookies *SessionAuthMiddleware
}

func NewAuthHandler(service services.AuthService, cookies *SessionAuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		cookies:     cookies,
	}
}

// Login checks the credentials and sets the session cookie
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "Email and password"
// @Success 200 {object} services.LoginResult
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.cookies.SetSessionCookie(c, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	c.JSON(http.StatusOK, result)
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	user, err := h.service.Me(c.Request.Context(), session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
