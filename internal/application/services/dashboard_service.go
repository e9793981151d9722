package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/domain/widgets"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// DashboardService is the master coordinator of the dashboard
// pipeline: validate filters, resolve lines and widgets, fetch
// detections and downtime, run the widget processors and assemble the
// response. All heavy logic lives in the parts it wires together.
type DashboardService struct {
	lineResolver   *LineResolver
	widgetResolver *WidgetResolver
	detectionSvc   *DetectionService
	downtimeSvc    *DowntimeService
	widgetEngine   *widgets.Engine
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewDashboardService creates the dashboard orchestrator.
func NewDashboardService(
	lineResolver *LineResolver,
	widgetResolver *WidgetResolver,
	detectionSvc *DetectionService,
	downtimeSvc *DowntimeService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *DashboardService {
	return &DashboardService{
		lineResolver:   lineResolver,
		widgetResolver: widgetResolver,
		detectionSvc:   detectionSvc,
		downtimeSvc:    downtimeSvc,
		widgetEngine:   widgets.NewEngine(logger.Analytics()),
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// Execute runs the full pipeline for one dashboard request and returns
// the response document: widget results keyed by widget ID plus the
// request metadata block.
func (s *DashboardService) Execute(ctx context.Context, tenantCtx *tenant.Context, userParams map[string]any, tenantID int, role string, widgetIDs []int) (map[string]any, error) {
	t0 := time.Now()

	marker := s.perfTracker.StartOperation("dashboard_pipeline", tenantCtx.TenantID)
	defer s.perfTracker.CompleteOperation(marker)

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	cleaned := s.validateFilters(snap, userParams)

	lineIDs := s.lineResolver.Resolve(snap, cleaned)
	if len(lineIDs) == 0 {
		marker.SetSuccess(true)
		return EmptyResponse("No production lines found for the given parameters"), nil
	}

	widgetNames, widgetCatalog, err := s.widgetResolver.Resolve(ctx, tenantCtx, tenantID, role, widgetIDs)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if len(widgetNames) == 0 {
		marker.SetSuccess(true)
		return EmptyResponse("No widgets configured for this layout"), nil
	}

	set, downtimeEvents, err := s.buildContext(ctx, tenantCtx, cleaned, lineIDs)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	results := s.executeWidgets(snap, widgetNames, set, downtimeEvents, lineIDs, cleaned, widgetCatalog)
	elapsed := time.Since(t0)

	s.logger.Analytics().Info("Dashboard pipeline complete",
		"elapsedMs", elapsed.Milliseconds(),
		"detections", set.Len(),
		"downtimeEvents", len(downtimeEvents),
		"widgets", len(results),
		"tenantId", tenantCtx.TenantID)

	marker.SetSuccess(true)
	marker.AddMetadata("widget_count", len(results))
	marker.AddRows(int64(set.Len()))
	return assemble(cleaned, lineIDs, set, downtimeEvents, results, elapsed), nil
}

// ExecuteQuick runs the pipeline with pre-validated params and an
// explicit widget name list, skipping validation and layout
// resolution. Used by internal callers and tests.
func (s *DashboardService) ExecuteQuick(ctx context.Context, tenantCtx *tenant.Context, cleaned filters.Params, widgetNames []string) (map[string]any, error) {
	t0 := time.Now()

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, err
	}

	lineIDs := s.lineResolver.Resolve(snap, cleaned)
	if len(lineIDs) == 0 {
		return EmptyResponse("No production lines resolved"), nil
	}

	set, downtimeEvents, err := s.buildContext(ctx, tenantCtx, cleaned, lineIDs)
	if err != nil {
		return nil, err
	}

	results := s.executeWidgets(snap, widgetNames, set, downtimeEvents, lineIDs, cleaned, snap.WidgetCatalog)
	return assemble(cleaned, lineIDs, set, downtimeEvents, results, time.Since(t0)), nil
}

// validateFilters cleans the raw user params best-effort: values that
// fail validation are dropped with a warning and the rest proceed.
func (s *DashboardService) validateFilters(snap *types.Snapshot, userParams map[string]any) filters.Params {
	engine := filters.NewEngine(snap, s.logger.Filter())
	result := engine.ValidateInput(userParams)
	if !result.Valid {
		s.logger.Filter().Warn("Filter validation errors",
			"errors", fmt.Sprintf("%v", result.Errors), "tenantId", snap.DBName)
	}
	return filters.Params(result.Cleaned)
}

// buildContext fetches the enriched detections and the unified
// downtime. The two run sequentially because gap detection feeds on
// the detection timestamps.
func (s *DashboardService) buildContext(ctx context.Context, tenantCtx *tenant.Context, cleaned filters.Params, lineIDs []int) (*detections.EnrichedSet, []detections.DowntimeEvent, error) {
	set, err := s.detectionSvc.GetEnrichedDetections(ctx, tenantCtx, lineIDs, cleaned)
	if err != nil {
		return nil, nil, err
	}

	downtimeEvents, err := s.downtimeSvc.GetDowntime(ctx, tenantCtx, lineIDs, cleaned, set)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Analytics().Info("Data context built",
		"detections", set.Len(), "downtimeEvents", len(downtimeEvents),
		"lines", len(lineIDs), "tenantId", tenantCtx.TenantID)
	return set, downtimeEvents, nil
}

// executeWidgets runs the widget batch over the shared data context.
func (s *DashboardService) executeWidgets(snap *types.Snapshot, widgetNames []string, set *detections.EnrichedSet, downtimeEvents []detections.DowntimeEvent, lineIDs []int, cleaned filters.Params, widgetCatalog map[int]admin.WidgetCatalogEntry) []widgets.Result {
	marker := s.perfTracker.StartOperation("widget_batch", snap.DBName)
	defer s.perfTracker.CompleteOperation(marker)

	results := s.widgetEngine.ProcessWidgets(widgets.BatchInput{
		WidgetNames:  widgetNames,
		Detections:   set,
		Downtime:     downtimeEvents,
		LinesQueried: lineIDs,
		Params:       cleaned,
		Catalog:      widgetCatalog,
		Reference:    referenceData(snap, lineIDs),
	})

	marker.SetSuccess(true)
	marker.AddMetadata("widget_count", len(results))
	return results
}

// referenceData scopes the snapshot maps down to what widget
// processors consume.
func referenceData(snap *types.Snapshot, lineIDs []int) widgets.ReferenceData {
	areasByLine := make(map[int][]catalog.Area, len(lineIDs))
	for _, lineID := range lineIDs {
		areasByLine[lineID] = snap.AreasByLine(lineID)
	}
	return widgets.ReferenceData{
		Lines:       snap.ProductionLines,
		Shifts:      snap.Shifts,
		AreasByLine: areasByLine,
		Incidents:   snap.Incidents,
		Failures:    snap.Failures,
	}
}

// assemble packages widget results and metadata into the response
// contract. Results are keyed by widget ID, falling back to the class
// name for results that never resolved a catalog entry.
func assemble(cleaned filters.Params, lineIDs []int, set *detections.EnrichedSet, downtimeEvents []detections.DowntimeEvent, results []widgets.Result, elapsed time.Duration) map[string]any {
	indexed := make(map[string]widgets.Result, len(results))
	for _, res := range results {
		key := strconv.Itoa(res.WidgetID)
		if res.WidgetID == 0 {
			key = res.WidgetName
		}
		indexed[key] = res
	}

	return map[string]any{
		"widgets": indexed,
		"metadata": map[string]any{
			"total_detections":      set.Len(),
			"total_downtime_events": len(downtimeEvents),
			"lines_queried":         lineIDs,
			"is_multi_line":         len(lineIDs) > 1,
			"widget_count":          len(results),
			"period":                extractPeriod(cleaned),
			"interval":              cleaned.Interval(),
			"elapsed_seconds":       math.Round(elapsed.Seconds()*1000) / 1000,
			"timestamp":             time.Now().Format(time.RFC3339),
		},
	}
}

// EmptyResponse is a valid-but-empty dashboard response used when the
// pipeline cannot proceed (no lines, no widgets).
func EmptyResponse(errMsg string) map[string]any {
	return map[string]any{
		"widgets": map[string]any{},
		"metadata": map[string]any{
			"total_detections":      0,
			"total_downtime_events": 0,
			"lines_queried":         []int{},
			"is_multi_line":         false,
			"widget_count":          0,
			"period":                map[string]string{},
			"interval":              "hour",
			"elapsed_seconds":       0,
			"timestamp":             time.Now().Format(time.RFC3339),
			"error":                 errMsg,
		},
	}
}

// extractPeriod lifts the daterange filter into the metadata period
// block. Optional times appear only when set.
func extractPeriod(cleaned filters.Params) map[string]string {
	raw, ok := cleaned["daterange"].(map[string]any)
	if !ok {
		return map[string]string{}
	}

	period := map[string]string{}
	period["start"], _ = raw["start_date"].(string)
	period["end"], _ = raw["end_date"].(string)
	if startTime, _ := raw["start_time"].(string); startTime != "" {
		period["start_time"] = startTime
	}
	if endTime, _ := raw["end_time"].(string); endTime != "" {
		period["end_time"] = endTime
	}
	return period
}
