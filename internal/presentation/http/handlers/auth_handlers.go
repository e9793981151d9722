package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/application/services"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// AuthHandlers contains the authentication endpoints. Login is the one
// route that runs without tenant middleware: the user's registry row
// determines the tenant.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PostLogin verifies credentials against the global user table and
// returns a session token plus the tenant routing fields the frontend
// needs for subsequent requests.
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("auth_login", "global")
	defer marker.Complete()

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		h.logger.LogError(logging.ChannelAuth, "login", err, "global")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Auth().Info("Login succeeded",
		"username", result.Username, "tenantId", result.DBName, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}
