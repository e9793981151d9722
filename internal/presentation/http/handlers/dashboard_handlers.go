package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/application/services"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// DashboardHandlers contains the dashboard orchestration endpoints.
type DashboardHandlers struct {
	dashboardService *services.DashboardService
	filterService    *services.FilterService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewDashboardHandlers creates dashboard handlers with injected dependencies
func NewDashboardHandlers(dashboardService *services.DashboardService, filterService *services.FilterService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DashboardHandlers {
	return &DashboardHandlers{
		dashboardService: dashboardService,
		filterService:    filterService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// DashboardDataRequest is the body for POST /dashboard/data and
// POST /dashboard/preview. Every filter parameter is optional; the
// filter engine applies defaults during validation.
type DashboardDataRequest struct {
	WidgetIDs []int `json:"widget_ids"`

	LineID            any               `json:"line_id"`
	LineIDs           *string           `json:"line_ids"`
	Daterange         map[string]string `json:"daterange"`
	ShiftID           *int              `json:"shift_id"`
	AreaIDs           []int             `json:"area_ids"`
	ProductIDs        []int             `json:"product_ids"`
	Interval          string            `json:"interval"`
	CurveType         string            `json:"curve_type"`
	DowntimeThreshold *int              `json:"downtime_threshold"`
	ShowDowntime      *bool             `json:"show_downtime"`

	TenantID int    `json:"tenant_id"`
	Role     string `json:"role"`
}

// userParams flattens the body into the filter engine's parameter shape.
// Interval, curve type and the downtime flag always carry a value so the
// widget processors see the same defaults the frontend renders.
func (r DashboardDataRequest) userParams() map[string]any {
	params := map[string]any{
		"interval":      stringOr(r.Interval, "hour"),
		"curve_type":    stringOr(r.CurveType, "smooth"),
		"show_downtime": r.ShowDowntime != nil && *r.ShowDowntime,
	}

	if r.Daterange != nil {
		params["daterange"] = daterangeParam(r.Daterange)
	}
	if r.LineID != nil {
		params["line_id"] = r.LineID
	}
	if r.LineIDs != nil {
		params["line_ids"] = *r.LineIDs
	}
	if r.ShiftID != nil {
		params["shift_id"] = *r.ShiftID
	}
	if r.AreaIDs != nil {
		params["area_ids"] = r.AreaIDs
	}
	if r.ProductIDs != nil {
		params["product_ids"] = r.ProductIDs
	}
	if r.DowntimeThreshold != nil {
		params["downtime_threshold"] = *r.DowntimeThreshold
	}

	return params
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// resolveTenantID prefers the explicit request value and falls back to
// the registry row resolved from the X-Tenant-ID header.
func resolveTenantID(reqTenantID int, tenantCtx *tenant.Context) int {
	if reqTenantID != 0 {
		return reqTenantID
	}
	return tenantCtx.Tenant.TenantID
}

// PostDashboardData handles POST /api/v1/dashboard/data. This is the
// master endpoint the "Apply Filters" button hits: it validates filters,
// fetches detections and downtime, resolves the layout and executes
// every widget in one pass.
func (h *DashboardHandlers) PostDashboardData(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DashboardDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	start := time.Now()
	h.logger.Analytics().Debug("Received dashboard data request",
		"method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	result, err := h.dashboardService.Execute(
		c.Request.Context(),
		tenantCtx,
		req.userParams(),
		resolveTenantID(req.TenantID, tenantCtx),
		stringOr(req.Role, "ADMIN"),
		req.WidgetIDs,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Analytics().Info("Dashboard data request completed",
		"tenantId", tenantCtx.TenantID, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// GetDashboardData handles GET /api/v1/dashboard/data, the fetch
// friendly variant that takes every filter as a query parameter.
func (h *DashboardHandlers) GetDashboardData(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	userParams := map[string]any{"interval": c.DefaultQuery("interval", "hour")}

	if v := c.Query("line_id"); v != "" {
		userParams["line_id"] = v
	}
	if v := c.Query("line_ids"); v != "" {
		userParams["line_ids"] = v
	}
	if v := c.Query("shift_id"); v != "" {
		shiftID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift_id must be an integer"})
			return
		}
		userParams["shift_id"] = shiftID
	}
	if daterange := daterangeFromQuery(c); daterange != nil {
		userParams["daterange"] = daterange
	}
	if v := c.Query("area_ids"); v != "" {
		ids, err := parseIntCSV(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid area_ids format"})
			return
		}
		userParams["area_ids"] = ids
	}
	if v := c.Query("product_ids"); v != "" {
		ids, err := parseIntCSV(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_ids format"})
			return
		}
		userParams["product_ids"] = ids
	}

	var widgetIDs []int
	if v := c.Query("widget_ids"); v != "" {
		ids, err := parseIntCSV(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid widget_ids format"})
			return
		}
		widgetIDs = ids
	}

	tenantID := 0
	if v := c.Query("tenant_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id must be an integer"})
			return
		}
		tenantID = id
	}

	result, err := h.dashboardService.Execute(
		c.Request.Context(),
		tenantCtx,
		userParams,
		resolveTenantID(tenantID, tenantCtx),
		stringOr(c.Query("role"), "ADMIN"),
		widgetIDs,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostDashboardPreview handles POST /api/v1/dashboard/preview. Preview
// skips layout resolution and renders exactly the widgets named in the
// body, for widget configuration screens.
func (h *DashboardHandlers) PostDashboardPreview(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DashboardDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if len(req.WidgetIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "widget_ids is required for preview mode"})
		return
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return
	}

	validation := h.filterService.Validate(snap, req.userParams())
	cleaned := filters.Params(validation.Cleaned)

	widgetNames := make([]string, 0, len(req.WidgetIDs))
	for _, wid := range req.WidgetIDs {
		if entry, ok := snap.WidgetCatalog[wid]; ok {
			widgetNames = append(widgetNames, entry.WidgetName)
		}
	}
	if len(widgetNames) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "None of the specified widget_ids exist in the catalog"})
		return
	}

	result, err := h.dashboardService.ExecuteQuick(c.Request.Context(), tenantCtx, cleaned, widgetNames)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// daterangeFromQuery assembles the daterange dict from individual query
// params. Returns nil when neither date bound is present.
func daterangeFromQuery(c *gin.Context) map[string]any {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate == "" && endDate == "" {
		return nil
	}

	daterange := map[string]any{}
	if startDate != "" {
		daterange["start_date"] = startDate
	}
	if endDate != "" {
		daterange["end_date"] = endDate
	}
	if v := c.Query("start_time"); v != "" {
		daterange["start_time"] = v
	}
	if v := c.Query("end_time"); v != "" {
		daterange["end_time"] = v
	}
	return daterange
}
