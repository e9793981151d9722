package registry

import "github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"

// WidgetCategory groups widgets for rendering and diagnostics.
type WidgetCategory string

const (
	CategoryKPI       WidgetCategory = "kpi"
	CategoryChart     WidgetCategory = "chart"
	CategoryTable     WidgetCategory = "table"
	CategoryRanking   WidgetCategory = "ranking"
	CategoryIndicator WidgetCategory = "indicator"
	CategorySummary   WidgetCategory = "summary"
	CategoryFeed      WidgetCategory = "feed"
)

// SourceType distinguishes widgets fed from tenant detections from
// widgets fed by external providers.
type SourceType string

const (
	SourceInternal SourceType = "internal"
	SourceExternal SourceType = "external"
)

// WidgetEntry is the registry metadata for one widget class.
// RequiredColumns drives data scoping: the processor receives only
// these columns (plus detected_at and line_id); an empty list passes
// the full enriched result through.
type WidgetEntry struct {
	Category        WidgetCategory `json:"category"`
	SourceType      SourceType     `json:"source_type"`
	RequiredColumns []string       `json:"required_columns"`
	APISourceID     string         `json:"api_source_id,omitempty"`
	DefaultConfig   map[string]any `json:"default_config,omitempty"`
}

var widgetRegistry = map[string]WidgetEntry{
	// KPIs
	"KpiTotalProduction": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType},
		DefaultConfig:   map[string]any{"unit": "unidades"},
	},
	"KpiTotalWeight": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType, detections.ColProductWeight},
		DefaultConfig:   map[string]any{"unit": "kg"},
	},
	"KpiOee": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType, detections.ColDetectedAt, detections.ColLineID},
	},
	"KpiTotalDowntime": {
		Category:   CategoryKPI,
		SourceType: SourceInternal,
	},
	"KpiAvailability": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType, detections.ColDetectedAt, detections.ColLineID},
	},
	"KpiPerformance": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType, detections.ColDetectedAt, detections.ColLineID},
	},
	"KpiQuality": {
		Category:        CategoryKPI,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaType, detections.ColLineID},
	},

	// Charts
	"ProductionTimeChart": {
		Category:   CategoryChart,
		SourceType: SourceInternal,
		RequiredColumns: []string{
			detections.ColDetectedAt, detections.ColAreaType, detections.ColLineID,
			detections.ColProductName, detections.ColProductColor,
		},
		DefaultConfig: map[string]any{"curve_type": "smooth"},
	},
	"AreaDetectionChart": {
		Category:        CategoryChart,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColAreaName, detections.ColAreaType},
	},
	"ProductDistributionChart": {
		Category:        CategoryChart,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColProductName, detections.ColProductColor},
	},
	"EntryOutputCompareChart": {
		Category:        CategoryChart,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColDetectedAt, detections.ColAreaType, detections.ColLineID},
	},
	"ScatterChart": {
		Category:   CategoryChart,
		SourceType: SourceInternal,
	},

	// Tables
	"DowntimeTable": {
		Category:   CategoryTable,
		SourceType: SourceInternal,
	},

	// Ranking and status
	"ProductRanking": {
		Category:   CategoryRanking,
		SourceType: SourceInternal,
		RequiredColumns: []string{
			detections.ColProductName, detections.ColProductCode,
			detections.ColProductColor, detections.ColProductWeight, detections.ColAreaType,
		},
	},
	"LineStatusIndicator": {
		Category:        CategoryIndicator,
		SourceType:      SourceInternal,
		RequiredColumns: []string{detections.ColLineID, detections.ColLineName},
	},
	"MetricsSummary": {
		Category:   CategorySummary,
		SourceType: SourceInternal,
		RequiredColumns: []string{
			detections.ColDetectedAt, detections.ColAreaType, detections.ColLineID,
			detections.ColProductName, detections.ColProductWeight,
		},
	},
	"EventFeed": {
		Category:      CategoryFeed,
		SourceType:    SourceInternal,
		DefaultConfig: map[string]any{"max_items": 50},
	},
}

// RenderSpec positions a widget on the dashboard grid. The grid
// auto-packs by Order; hidden widgets leave no gaps. DowntimeOnly
// widgets are hidden when multiple lines are queried.
type RenderSpec struct {
	Render       string `json:"render"`
	ChartType    string `json:"chart_type,omitempty"`
	ChartHeight  string `json:"chart_height,omitempty"`
	ColSpan      int    `json:"col_span"`
	Order        int    `json:"order"`
	DowntimeOnly bool   `json:"downtime_only,omitempty"`
}

// GridColumns is the number of columns in the dashboard grid.
const GridColumns = 4

var widgetRenderMap = map[string]RenderSpec{
	"KpiOee":          {Render: "kpi_oee", ColSpan: 1, Order: 0},
	"KpiAvailability": {Render: "kpi", ColSpan: 1, Order: 1},
	"KpiPerformance":  {Render: "kpi", ColSpan: 1, Order: 2},
	"KpiQuality":      {Render: "kpi", ColSpan: 1, Order: 3},

	"ProductionTimeChart":      {Render: "chart", ChartType: "line_chart", ChartHeight: "400px", ColSpan: 4, Order: 4},
	"ProductDistributionChart": {Render: "chart", ChartType: "pie_chart", ChartHeight: "280px", ColSpan: 2, Order: 5},
	"ProductRanking":           {Render: "table", ColSpan: 2, Order: 6},

	"KpiTotalProduction": {Render: "kpi", ColSpan: 1, Order: 7},
	"KpiTotalWeight":     {Render: "kpi", ColSpan: 1, Order: 8},
	"KpiTotalDowntime":   {Render: "kpi", ColSpan: 1, Order: 9, DowntimeOnly: true},

	"LineStatusIndicator": {Render: "indicator", ColSpan: 1, Order: 10},
	"AreaDetectionChart":  {Render: "chart", ChartType: "bar_chart", ChartHeight: "280px", ColSpan: 1, Order: 11},

	"EntryOutputCompareChart": {Render: "chart", ChartType: "comparison_bar", ChartHeight: "400px", ColSpan: 4, Order: 12},

	"ScatterChart":   {Render: "chart", ChartType: "scatter_chart", ChartHeight: "300px", ColSpan: 1, Order: 13, DowntimeOnly: true},
	"DowntimeTable":  {Render: "table", ColSpan: 2, Order: 14, DowntimeOnly: true},
	"MetricsSummary": {Render: "summary", ColSpan: 2, Order: 15},

	"EventFeed": {Render: "feed", ColSpan: 4, Order: 16},
}

// LookupWidget returns the registry entry for a widget class name.
func LookupWidget(className string) (WidgetEntry, bool) {
	entry, ok := widgetRegistry[className]
	return entry, ok
}

// LookupRenderSpec returns the grid placement for a widget class name.
func LookupRenderSpec(className string) (RenderSpec, bool) {
	spec, ok := widgetRenderMap[className]
	return spec, ok
}

// WidgetClassNames returns every registered widget class name.
func WidgetClassNames() []string {
	names := make([]string, 0, len(widgetRegistry))
	for name := range widgetRegistry {
		names = append(names, name)
	}
	return names
}
