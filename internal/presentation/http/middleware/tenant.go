// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the tenant database from the X-Tenant-ID
// header and attaches a full tenant context to the request.
func TenantMiddleware(tenantManager *tenant.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	logger := tenantManager.GetLogger()

	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer marker.Complete()

		marker.AddMetadata("path", c.Request.URL.Path)
		marker.AddMetadata("method", c.Request.Method)

		tenantCtx, err := tenantManager.GetContext(c)
		if err != nil {
			marker.SetSuccess(false)
			marker.SetError(err)

			switch {
			case errors.Is(err, tenant.ErrMissingTenantHeader):
				logger.Tenant().Warn("Request without tenant identity", "path", c.Request.URL.Path)
				c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header or tenant_db query param is required"})
			case errors.Is(err, tenant.ErrUnknownTenant):
				logger.Tenant().Warn("Request for unknown tenant", "path", c.Request.URL.Path, "error", err.Error())
				c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			default:
				logger.Tenant().Error("Tenant context creation failed", "path", c.Request.URL.Path, "error", err.Error())
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize tenant"})
			}
			c.Abort()
			return
		}

		marker.TenantID = tenantCtx.TenantID
		marker.SetSuccess(true)

		logger.Tenant().Debug("Tenant context resolved",
			"tenantId", tenantCtx.TenantID,
			"duration", time.Since(start))

		c.Set("tenant", tenantCtx)

		c.Next()
	}
}

// GetTenantContext retrieves the tenant context from gin context.
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	tenantCtx, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}

	ctx, ok := tenantCtx.(*tenant.Context)
	return ctx, ok
}
