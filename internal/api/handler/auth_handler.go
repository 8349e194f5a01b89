package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/service"
	"github.com/DRegan-dev/downward/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler identity HTTP handlers
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.Config // nil in tests; cookies are then session cookies
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Register
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// Login issues an access token and sets the refresh token cookie
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, req.RememberMe)
	response.OK(c, result)
}

// RefreshToken rotates the token pair. The refresh token is read from the
// body first, then from the cookie.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "invalid request body")
			return
		}
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.Unauthorized(c, 23004, "refresh token missing")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, false)
	response.OK(c, result)
}

// Logout revokes the current access token and clears the refresh cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := tokenInfo(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		response.InternalError(c)
		return
	}

	h.writeRefreshCookie(c, "", -1)
	response.OK(c, nil)
}

// Me the authenticated account
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, rememberMe bool) {
	maxAge := 0
	if h.cfg != nil {
		ttl := h.cfg.Auth.RefreshTokenTTLDefault
		if rememberMe {
			ttl = h.cfg.Auth.RefreshTokenTTLRemember
		}
		maxAge = int(ttl.Seconds())
	}
	h.writeRefreshCookie(c, token, maxAge)
}

func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	var cookie config.CookieConfig
	if h.cfg != nil {
		cookie = h.cfg.Auth.Cookie
	}
	c.SetSameSite(parseSameSite(cookie.SameSite))
	c.SetCookie(refreshCookieName, value, maxAge, refreshCookiePath, cookie.Domain, cookie.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// handleAuthError maps auth module errors
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 23001, "invalid username or password")
	case errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, 23002, "username already registered")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 23003, "email already registered")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 23004, "invalid refresh token")
	case errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 23005, "refresh token has been revoked")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 23006, "user not found")
	default:
		response.InternalError(c)
	}
}
