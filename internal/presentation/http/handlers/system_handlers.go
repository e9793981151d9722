package handlers

import (
	"net/http"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SystemHandlers contains liveness, cache administration and performance
// visibility endpoints. These read infrastructure state directly.
type SystemHandlers struct {
	tenantManager *tenant.Manager
	cacheManager  *manager.Manager
	perfTracker   *performance.Tracker
	logger        *logging.ChanneledLogger
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(tenantManager *tenant.Manager, cacheManager *manager.Manager, perfTracker *performance.Tracker, logger *logging.ChanneledLogger) *SystemHandlers {
	return &SystemHandlers{
		tenantManager: tenantManager,
		cacheManager:  cacheManager,
		perfTracker:   perfTracker,
		logger:        logger,
	}
}

// HealthCheck handles GET /api/v1/system/health. No tenant context is
// required, so load balancers can probe it directly.
func (h *SystemHandlers) HealthCheck(c *gin.Context) {
	loaded := h.cacheManager.LoadedTenants()
	if loaded == nil {
		loaded = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"cache_loaded":   len(loaded) > 0,
		"loaded_tenants": loaded,
		"active_tenants": h.tenantManager.GetActiveTenantCount(),
	})
}

// GetCacheInfo handles GET /api/v1/system/cache/info for the request's
// tenant.
func (h *SystemHandlers) GetCacheInfo(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	info := h.cacheManager.Info(tenantCtx.TenantID)
	if info.CurrentTenant == "" {
		c.JSON(http.StatusOK, gin.H{
			"current_tenant": nil,
			"tables":         gin.H{},
			"message":        "No tenant loaded yet",
		})
		return
	}

	c.JSON(http.StatusOK, info)
}

// PostCacheLoad handles POST /api/v1/system/cache/load/:db_name. The
// frontend calls this right after login so the first dashboard render
// hits a warm cache.
func (h *SystemHandlers) PostCacheLoad(c *gin.Context) {
	dbName := c.Param("db_name")
	if _, ok := h.tenantManager.TenantByName(dbName); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	if err := h.cacheManager.LoadForTenant(c.Request.Context(), dbName); err != nil {
		h.logger.LogError(logging.ChannelCache, "cache_load", err, dbName)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "loaded",
		"tenant": dbName,
		"info":   h.cacheManager.Info(dbName),
	})
}

// PostCacheRefresh handles POST /api/v1/system/cache/refresh. A db_name
// query param refreshes one tenant; omitted, every loaded tenant is
// reloaded.
func (h *SystemHandlers) PostCacheRefresh(c *gin.Context) {
	if dbName := c.Query("db_name"); dbName != "" {
		if _, ok := h.tenantManager.TenantByName(dbName); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
		if err := h.cacheManager.Refresh(c.Request.Context(), dbName); err != nil {
			h.logger.LogError(logging.ChannelCache, "cache_refresh", err, dbName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "refreshed",
			"info":   h.cacheManager.Info(dbName),
		})
		return
	}

	loaded := h.cacheManager.LoadedTenants()
	if len(loaded) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no tenant caches loaded"})
		return
	}

	for _, dbName := range loaded {
		if err := h.cacheManager.Refresh(c.Request.Context(), dbName); err != nil {
			h.logger.LogError(logging.ChannelCache, "cache_refresh", err, dbName)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "tenant": dbName})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "refreshed",
		"tenants": loaded,
	})
}

// GetMetrics handles GET /api/v1/system/metrics, a point-in-time
// performance snapshot for the request's tenant.
func (h *SystemHandlers) GetMetrics(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot": h.perfTracker.TakeSnapshot(tenantCtx.TenantID),
		"overall":  h.perfTracker.GetOverallStats(),
	})
}
