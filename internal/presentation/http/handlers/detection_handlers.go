package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/CametIO/camet-analytics-go/internal/application/services"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

const detectionTimeLayout = "2006-01-02 15:04:05"

// DetectionHandlers contains the standalone detection endpoints used for
// debugging, raw queries and data export. The dashboard pipeline calls
// the services directly and never passes through these.
type DetectionHandlers struct {
	detectionService *services.DetectionService
	exportService    *services.ExportService
	partitionService *services.PartitionService
	lineResolver     *services.LineResolver
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewDetectionHandlers creates detection handlers with injected dependencies
func NewDetectionHandlers(detectionService *services.DetectionService, exportService *services.ExportService, partitionService *services.PartitionService, lineResolver *services.LineResolver, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DetectionHandlers {
	return &DetectionHandlers{
		detectionService: detectionService,
		exportService:    exportService,
		partitionService: partitionService,
		lineResolver:     lineResolver,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// DetectionQueryRequest is the body shared by the detection query,
// count, summary and export endpoints.
type DetectionQueryRequest struct {
	LineIDs    []int             `json:"line_ids"`
	LineID     any               `json:"line_id"`
	Daterange  map[string]string `json:"daterange"`
	ShiftID    *int              `json:"shift_id"`
	AreaIDs    []int             `json:"area_ids"`
	ProductIDs []int             `json:"product_ids"`
	Interval   string            `json:"interval"`
}

// cleaned builds the filter dict the resolvers and repositories expect.
func (r DetectionQueryRequest) cleaned() filters.Params {
	cleaned := filters.Params{}
	if r.Daterange != nil {
		cleaned["daterange"] = daterangeParam(r.Daterange)
	}
	if r.ShiftID != nil {
		cleaned["shift_id"] = *r.ShiftID
	}
	if len(r.AreaIDs) > 0 {
		cleaned["area_ids"] = r.AreaIDs
	}
	if len(r.ProductIDs) > 0 {
		cleaned["product_ids"] = r.ProductIDs
	}
	if r.LineID != nil {
		cleaned["line_id"] = r.LineID
	}
	if r.LineIDs != nil {
		cleaned["line_ids"] = r.LineIDs
	}
	if r.Interval != "" {
		cleaned["interval"] = r.Interval
	}
	return cleaned
}

// resolveLines resolves line IDs from cleaned params, answering 400 when
// nothing matches.
func (h *DetectionHandlers) resolveLines(c *gin.Context, tenantCtx *tenant.Context, cleaned filters.Params) ([]int, bool) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	lineIDs := h.lineResolver.Resolve(snap, cleaned)
	if len(lineIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No production lines found for the given parameters"})
		return nil, false
	}
	return lineIDs, true
}

// QueryDetections handles POST /api/v1/detections/query.
func (h *DetectionHandlers) QueryDetections(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DetectionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cleaned := req.cleaned()
	lineIDs, ok := h.resolveLines(c, tenantCtx, cleaned)
	if !ok {
		return
	}

	set, err := h.detectionService.GetEnrichedDetections(c.Request.Context(), tenantCtx, lineIDs, cleaned)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":          detectionRecords(set),
		"total":         set.Len(),
		"lines_queried": lineIDs,
	})
}

// GetLineDetections handles GET /api/v1/detections/:line_id, the
// single-line convenience query.
func (h *DetectionHandlers) GetLineDetections(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	lineID, err := strconv.Atoi(c.Param("line_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_id must be an integer"})
		return
	}

	limit := 1000
	if v := c.Query("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > 100000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100000"})
			return
		}
		limit = n
	}

	cleaned := filters.Params{}
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate != "" || endDate != "" {
		daterange := map[string]any{
			"start_date": "2020-01-01",
			"end_date":   "2099-12-31",
			"start_time": "00:00",
			"end_time":   "23:59",
		}
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
		cleaned["daterange"] = daterange
	}
	if v := c.Query("shift_id"); v != "" {
		shiftID, convErr := strconv.Atoi(v)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift_id must be an integer"})
			return
		}
		cleaned["shift_id"] = shiftID
	}

	set, err := h.detectionService.GetLineDetections(c.Request.Context(), tenantCtx, lineID, cleaned, limit)
	if err != nil {
		if errors.Is(err, services.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Line %d not found in cache", lineID)})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    detectionRecords(set),
		"total":   set.Len(),
		"line_id": lineID,
	})
}

// CountDetections handles POST /api/v1/detections/count. Counts run as
// COUNT(*) per line without fetching rows.
func (h *DetectionHandlers) CountDetections(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DetectionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cleaned := req.cleaned()
	lineIDs, ok := h.resolveLines(c, tenantCtx, cleaned)
	if !ok {
		return
	}

	result, err := h.detectionService.CountDetections(c.Request.Context(), tenantCtx, lineIDs, cleaned)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DetectionSummary handles POST /api/v1/detections/summary, grouping
// counts by area type.
func (h *DetectionHandlers) DetectionSummary(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DetectionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cleaned := req.cleaned()
	lineIDs, ok := h.resolveLines(c, tenantCtx, cleaned)
	if !ok {
		return
	}

	result, err := h.detectionService.GetDetectionSummary(c.Request.Context(), tenantCtx, lineIDs, cleaned)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportDetections handles POST /api/v1/detections/export, streaming the
// enriched result as a CSV or XLSX download.
func (h *DetectionHandlers) ExportDetections(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req DetectionQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cleaned := req.cleaned()
	lineIDs, ok := h.resolveLines(c, tenantCtx, cleaned)
	if !ok {
		return
	}

	set, err := h.detectionService.GetEnrichedDetections(c.Request.Context(), tenantCtx, lineIDs, cleaned)
	if err != nil {
		respondError(c, err)
		return
	}

	if set.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data to export"})
		return
	}

	if c.DefaultQuery("format", "csv") == "xlsx" {
		c.Header("Content-Disposition", "attachment; filename=detecciones.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := h.exportService.WriteXLSX(c.Writer, set); err != nil {
			h.logger.LogError(logging.ChannelAnalytics, "export_xlsx", err, tenantCtx.TenantID)
		}
		return
	}

	c.Header("Content-Disposition", "attachment; filename=detecciones.csv")
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := h.exportService.WriteCSV(c.Writer, set); err != nil {
		h.logger.LogError(logging.ChannelAnalytics, "export_csv", err, tenantCtx.TenantID)
	}
}

// EnsurePartitions handles POST /api/v1/detections/partitions/ensure/:line_id.
// Administrative endpoint, normally driven by the sweep worker.
func (h *DetectionHandlers) EnsurePartitions(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	lineID, err := strconv.Atoi(c.Param("line_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_id must be an integer"})
		return
	}

	monthsAhead := 3
	if v := c.Query("months_ahead"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > 24 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months_ahead must be between 1 and 24"})
			return
		}
		monthsAhead = n
	}

	table, created, err := h.partitionService.EnsureForLine(c.Request.Context(), tenantCtx, lineID, monthsAhead)
	if err != nil {
		if errors.Is(err, services.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Line %d not found", lineID)})
			return
		}
		respondError(c, err)
		return
	}

	if created == nil {
		created = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"table":              table,
		"partitions_created": created,
		"count":              len(created),
	})
}

// ListPartitions handles GET /api/v1/detections/partitions/:line_id.
func (h *DetectionHandlers) ListPartitions(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	lineID, err := strconv.Atoi(c.Param("line_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_id must be an integer"})
		return
	}

	table, partitions, err := h.partitionService.ListForLine(c.Request.Context(), tenantCtx, lineID)
	if err != nil {
		if errors.Is(err, services.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Line %d not found", lineID)})
			return
		}
		respondError(c, err)
		return
	}

	if partitions == nil {
		partitions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"table":      table,
		"partitions": partitions,
		"count":      len(partitions),
	})
}

// detectionRecords flattens an enriched set into JSON records with
// frontend-friendly timestamp formatting.
func detectionRecords(set *detections.EnrichedSet) []map[string]any {
	records := make([]map[string]any, 0, set.Len())
	for _, row := range set.Rows() {
		records = append(records, map[string]any{
			"detection_id":   row.DetectionID,
			"detected_at":    row.DetectedAt.Format(detectionTimeLayout),
			"area_id":        row.AreaID,
			"product_id":     row.ProductID,
			"line_id":        row.LineID,
			"area_name":      row.AreaName,
			"area_type":      row.AreaType,
			"line_name":      row.LineName,
			"line_code":      row.LineCode,
			"product_name":   row.ProductName,
			"product_code":   row.ProductCode,
			"product_weight": row.ProductWeight,
			"product_color":  row.ProductColor,
		})
	}
	return records
}
