package widgets

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/domain/registry"
)

// Processor turns a populated Context into a Result.
type Processor func(*Context) Result

// processors maps registry class names to their implementation.
var processors = map[string]Processor{
	"KpiTotalProduction":       processTotalProduction,
	"KpiTotalWeight":           processTotalWeight,
	"KpiOee":                   processOee,
	"KpiAvailability":          processAvailability,
	"KpiPerformance":           processPerformance,
	"KpiQuality":               processQuality,
	"KpiTotalDowntime":         processTotalDowntime,
	"ProductionTimeChart":      processProductionTimeChart,
	"EntryOutputCompareChart":  processEntryOutputCompareChart,
	"AreaDetectionChart":       processAreaDetectionChart,
	"ProductDistributionChart": processProductDistributionChart,
	"ScatterChart":             processScatterChart,
	"DowntimeTable":            processDowntimeTable,
	"ProductRanking":           processProductRanking,
	"LineStatusIndicator":      processLineStatusIndicator,
	"MetricsSummary":           processMetricsSummary,
	"EventFeed":                processEventFeed,
}

// ReferenceData is the cache-derived metadata a widget batch needs.
// The application layer assembles it from the tenant snapshot.
type ReferenceData struct {
	Lines       map[int]catalog.ProductionLine
	Shifts      map[int]catalog.Shift
	AreasByLine map[int][]catalog.Area
	Incidents   map[int]catalog.Incident
	Failures    map[int]catalog.Failure
}

// BatchInput is one dashboard-worth of widget work.
type BatchInput struct {
	WidgetNames  []string
	Detections   *detections.EnrichedSet
	Downtime     []detections.DowntimeEvent
	LinesQueried []int
	Params       filters.Params
	Catalog      map[int]admin.WidgetCatalogEntry
	Reference    ReferenceData
}

// Engine resolves widget class names to processors, scopes the data
// each widget sees, and shields the batch from per-widget failures.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// ProcessWidgets runs every requested widget and returns one result per
// name, in order. A widget that is unknown or panics yields an error
// result instead of failing the batch.
func (e *Engine) ProcessWidgets(in BatchInput) []Result {
	now := time.Now()
	results := make([]Result, 0, len(in.WidgetNames))
	for _, className := range in.WidgetNames {
		results = append(results, e.processSingle(className, in, now))
	}
	return results
}

func (e *Engine) processSingle(className string, in BatchInput, now time.Time) Result {
	entry, ok := registry.LookupWidget(className)
	if !ok {
		e.logger.Warn("widget not registered", "widget", className)
		return errorResult(className, "Widget not registered")
	}

	widgetID, displayName := resolveCatalogInfo(className, in.Catalog)

	proc, ok := processors[className]
	if !ok {
		e.logger.Error("no processor for registered widget", "widget", className)
		return errorResult(className, fmt.Sprintf("No processor implemented for '%s'", className))
	}

	ctx := &Context{
		WidgetID:     widgetID,
		WidgetName:   className,
		DisplayName:  displayName,
		Data:         in.Detections.Scope(entry.RequiredColumns),
		Downtime:     in.Downtime,
		LinesQueried: in.LinesQueried,
		Params:       in.Params,
		Config:       entry.DefaultConfig,
		Lines:        in.Reference.Lines,
		Shifts:       in.Reference.Shifts,
		AreasByLine:  in.Reference.AreasByLine,
		Incidents:    in.Reference.Incidents,
		Failures:     in.Reference.Failures,
		Now:          now,
	}

	return e.run(proc, ctx, className)
}

// run executes one processor, converting a panic into an error result
// so a single bad widget cannot take down the dashboard.
func (e *Engine) run(proc Processor, ctx *Context, className string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("widget processor panicked", "widget", className, "panic", r)
			res = errorResult(className, fmt.Sprint(r))
		}
	}()
	return proc(ctx)
}

// resolveCatalogInfo finds the widget id and display name in the tenant
// catalog. The display name is the catalog description; widgets missing
// from the catalog fall back to id 0 and their class name.
func resolveCatalogInfo(className string, entries map[int]admin.WidgetCatalogEntry) (int, string) {
	ids := make([]int, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		entry := entries[id]
		if entry.WidgetName == className {
			if entry.Description != "" {
				return id, entry.Description
			}
			return id, className
		}
	}
	return 0, className
}
