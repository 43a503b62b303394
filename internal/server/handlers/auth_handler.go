package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/auth"
)

// LoginService issues session tokens.
type LoginService interface {
	Login(ctx context.Context, username, password string) (auth.Session, error)
}

// AuthHandler handles credential exchange over HTTP.
type AuthHandler struct {
	svc    LoginService
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc LoginService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, session)
	case errors.Is(err, auth.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case auth.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login unavailable"})
	}
}
