package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/CametIO/camet-analytics-go/internal/application/services"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// LayoutHandlers contains the dashboard layout resolution endpoints.
type LayoutHandlers struct {
	layoutService *services.LayoutService
	logger        *logging.ChanneledLogger
}

// NewLayoutHandlers creates layout handlers with injected dependencies
func NewLayoutHandlers(layoutService *services.LayoutService, logger *logging.ChanneledLogger) *LayoutHandlers {
	return &LayoutHandlers{
		layoutService: layoutService,
		logger:        logger,
	}
}

// GetLayoutConfig handles GET /api/v1/layout/config, the full resolved
// layout for a tenant and role.
func (h *LayoutHandlers) GetLayoutConfig(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	tenantID, role, ok := layoutQuery(c)
	if !ok {
		return
	}

	result, err := h.layoutService.GetResolvedLayout(c.Request.Context(), tenantCtx, tenantID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("No dashboard template for tenant_id=%d, role=%s", tenantID, role),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLayoutWidgets handles GET /api/v1/layout/widgets, returning only
// the resolved widget list.
func (h *LayoutHandlers) GetLayoutWidgets(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	tenantID, role, ok := layoutQuery(c)
	if !ok {
		return
	}

	result, err := h.layoutService.GetResolvedLayout(c.Request.Context(), tenantCtx, tenantID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("No dashboard template for tenant_id=%d, role=%s", tenantID, role),
		})
		return
	}

	c.JSON(http.StatusOK, result["widgets"])
}

// GetLayoutFilters handles GET /api/v1/layout/filters, returning the
// enabled filter IDs for a tenant and role.
func (h *LayoutHandlers) GetLayoutFilters(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	tenantID, role, ok := layoutQuery(c)
	if !ok {
		return
	}

	config, err := h.layoutService.GetLayoutConfig(c.Request.Context(), tenantCtx.TenantID, tenantID, role)
	if err != nil {
		respondError(c, err)
		return
	}
	if config == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("No dashboard template for tenant_id=%d, role=%s", tenantID, role),
		})
		return
	}

	filterIDs := config.EnabledFilterIDs
	if filterIDs == nil {
		filterIDs = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"enabled_filter_ids": filterIDs})
}

// layoutQuery reads the required tenant_id and role query params.
func layoutQuery(c *gin.Context) (int, string, bool) {
	raw := c.Query("tenant_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
		return 0, "", false
	}
	tenantID, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id must be an integer"})
		return 0, "", false
	}

	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return 0, "", false
	}

	return tenantID, role, true
}
