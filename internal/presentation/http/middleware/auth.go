package middleware

import (
	"net/http"
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/security"
	"github.com/CametIO/camet-analytics-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// AdminOnlyMiddleware guards administrative endpoints. It requires a
// Bearer token issued by the login endpoint and an ADMIN role claim.
func AdminOnlyMiddleware(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFromRequest(c)
		if !ok {
			logger.Auth().Warn("Unauthorized access attempt", "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !strings.EqualFold(session.Role, "ADMIN") {
			logger.Auth().Warn("Non-admin access attempt",
				"path", c.Request.URL.Path, "username", session.Username, "role", session.Role)
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set("session", session)
		c.Next()
	}
}

// sessionFromRequest validates the Authorization header and returns the
// decoded session claims.
func sessionFromRequest(c *gin.Context) (*security.SessionClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}

	claims, err := security.ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "), config.JWTSecret)
	if err != nil {
		return nil, false
	}

	session, err := security.SessionFromClaims(claims)
	if err != nil {
		return nil, false
	}
	return session, true
}

// GetSession retrieves the validated session from gin context.
func GetSession(c *gin.Context) (*security.SessionClaims, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	s, ok := session.(*security.SessionClaims)
	return s, ok
}
