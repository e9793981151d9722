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

// FilterHandlers contains the filter catalog endpoints the frontend uses
// to render its filter toolbar.
type FilterHandlers struct {
	filterService *services.FilterService
	logger        *logging.ChanneledLogger
}

// NewFilterHandlers creates filter handlers with injected dependencies
func NewFilterHandlers(filterService *services.FilterService, logger *logging.ChanneledLogger) *FilterHandlers {
	return &FilterHandlers{
		filterService: filterService,
		logger:        logger,
	}
}

// ListFilters handles GET /api/v1/filters. When filter_ids is given
// (from layout_config), only those filters are resolved.
func (h *FilterHandlers) ListFilters(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	var filterIDs []int
	if raw := c.Query("filter_ids"); raw != "" {
		ids, parseErr := parseIntCSV(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "filter_ids must be comma-separated integers"})
			return
		}
		filterIDs = ids
	}

	c.JSON(http.StatusOK, h.filterService.ResolveAll(snap, filterIDs))
}

// GetAreas handles GET /api/v1/filters/areas. Areas come straight from
// the cache so the cascade works even when no area filter row is active.
func (h *FilterHandlers) GetAreas(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	lineID, haveLine := 0, false
	if v := c.Query("line_id"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "line_id must be an integer"})
			return
		}
		lineID, haveLine = n, true
	}

	c.JSON(http.StatusOK, h.filterService.Areas(snap, lineID, haveLine))
}

// GetFilter handles GET /api/v1/filters/:class_name.
func (h *FilterHandlers) GetFilter(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	className := c.Param("class_name")
	resolved, ok := h.filterService.ResolveOne(snap, className)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Filter '%s' not found", className)})
		return
	}

	c.JSON(http.StatusOK, resolved)
}

// GetFilterOptions handles GET /api/v1/filters/:class_name/options.
// Cascade reloads pass the selected parent line as line_id.
func (h *FilterHandlers) GetFilterOptions(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	var parentValues map[string]any
	if v := c.Query("line_id"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "line_id must be an integer"})
			return
		}
		parentValues = map[string]any{"line_id": n}
	}

	className := c.Param("class_name")
	options, ok := h.filterService.Options(snap, className, parentValues)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Filter '%s' not found", className)})
		return
	}

	c.JSON(http.StatusOK, options)
}

// ValidateFilters handles POST /api/v1/filters/validate.
func (h *FilterHandlers) ValidateFilters(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	var params map[string]any
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.filterService.Validate(snap, params))
}
