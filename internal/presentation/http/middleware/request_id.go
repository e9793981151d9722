package middleware

import (
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware tags every request with a ULID so log lines from
// different channels can be correlated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = security.GenerateULID()
		}

		c.Set("requestId", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
