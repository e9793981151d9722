package widgets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
)

func chartDatasets(t *testing.T, res Result) []map[string]any {
	t.Helper()
	datasets, ok := widgetData(t, res)["datasets"].([]map[string]any)
	require.True(t, ok)
	return datasets
}

func TestProcessEntryOutputCompareChart(t *testing.T) {
	ctx := fixtureContext(fixtureSet())

	res := processEntryOutputCompareChart(ctx)
	data := widgetData(t, res)
	assert.Equal(t, 2, res.Metadata["total_points"])
	assert.Equal(t, []string{"05/01 10:00", "05/01 11:00"}, data["labels"])

	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 3)
	assert.Equal(t, "Entrada", datasets[0]["label"])
	assert.Equal(t, []int{4, 0}, datasets[0]["data"], "entrada counts dual lines only")
	assert.Equal(t, "Salida", datasets[1]["label"])
	assert.Equal(t, []int{3, 2}, datasets[1]["data"])
	assert.Equal(t, "Descarte", datasets[2]["label"])
	assert.Equal(t, []int{1, 0}, datasets[2]["data"])

	summary, ok := data["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, summary["entrada"])
	assert.Equal(t, 5, summary["salida"])
	assert.Equal(t, 1, summary["descarte"])
}

func TestProcessEntryOutputCompareChartShiftWindow(t *testing.T) {
	ctx := fixtureContext(fixtureSet())
	ctx.Params = filters.Params{
		"daterange": map[string]any{"start_date": "2026-01-05", "end_date": "2026-01-05"},
		"shift_id":  1,
	}

	res := processEntryOutputCompareChart(ctx)
	data := widgetData(t, res)
	assert.Equal(t, 9, res.Metadata["total_points"], "axis narrows to the shift hours")

	labels, ok := data["labels"].([]string)
	require.True(t, ok)
	require.Len(t, labels, 9)
	assert.Equal(t, "05/01 08:00", labels[0])
	assert.Equal(t, "05/01 16:00", labels[8])

	datasets := chartDatasets(t, res)
	assert.Equal(t, []int{0, 0, 4, 0, 0, 0, 0, 0, 0}, datasets[0]["data"])
	assert.Equal(t, []int{0, 0, 3, 2, 0, 0, 0, 0, 0}, datasets[1]["data"])
}

func TestProcessEntryOutputCompareChartNoAreaType(t *testing.T) {
	set := fixtureSet().Scope([]string{detections.ColDetectedAt})
	res := processEntryOutputCompareChart(fixtureContext(set))
	assert.Equal(t, true, res.Metadata["empty"])
}

func TestProcessAreaDetectionChart(t *testing.T) {
	ctx := fixtureContext(fixtureSet())

	res := processAreaDetectionChart(ctx)
	data := widgetData(t, res)
	assert.Equal(t, 3, res.Metadata["total_points"])
	assert.Equal(t, []string{"Entrada Encajado", "Salida Encajado", "Salida Etiquetado"}, data["labels"])

	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 1)
	assert.Equal(t, "Detecciones por Área", datasets[0]["label"])
	assert.Equal(t, []int{4, 3, 2}, datasets[0]["data"])
	assert.Equal(t, analytics.FallbackPalette[:3], datasets[0]["backgroundColor"])
}

func TestProcessAreaDetectionChartEmpty(t *testing.T) {
	set := fixtureSet().Scope([]string{detections.ColDetectedAt})
	res := processAreaDetectionChart(fixtureContext(set))
	assert.Equal(t, true, res.Metadata["empty"])
}

func TestProcessProductDistributionChart(t *testing.T) {
	ctx := fixtureContext(fixtureSet())

	res := processProductDistributionChart(ctx)
	data := widgetData(t, res)
	assert.Equal(t, []string{"Botella 1L", "Botella 2L"}, data["labels"], "all areas count, sorted by name")

	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 1)
	assert.Equal(t, []int{7, 2}, datasets[0]["data"])
	assert.Equal(t, []string{"#3b82f6", "#22c55e"}, datasets[0]["backgroundColor"])
}

func TestProcessProductDistributionChartNoColorColumn(t *testing.T) {
	set := fixtureSet().Scope([]string{detections.ColProductName})
	res := processProductDistributionChart(fixtureContext(set))

	datasets := chartDatasets(t, res)
	assert.Equal(t, []string{"#888888", "#888888"}, datasets[0]["backgroundColor"])
}

func TestProcessScatterChart(t *testing.T) {
	ctx := fixtureContext(fixtureSet())
	ctx.Downtime = []detections.DowntimeEvent{
		{
			LineID:     1,
			StartTime:  fixtureBase.Add(30 * time.Minute),
			Duration:   600,
			ReasonCode: intPtr(5),
		},
		{
			LineID:    2,
			StartTime: fixtureBase.Add(75 * time.Minute),
			Duration:  90,
			Source:    detections.SourceCalculated,
		},
		{LineID: 1, Duration: 300},
	}

	res := processScatterChart(ctx)
	assert.Equal(t, 2, res.Metadata["total_points"], "zero start times are skipped")

	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 2)

	incidents := datasets[0]
	assert.Equal(t, "Con incidente", incidents["label"])
	points, ok := incidents["data"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, points, 1)
	assert.Equal(t, 10.5, points[0]["x"])
	assert.Equal(t, 10.0, points[0]["y"])
	assert.Equal(t, "Atasco en cinta", points[0]["tooltip"])

	gaps := datasets[1]
	assert.Equal(t, "Detectada (gap)", gaps["label"])
	gapPoints := gaps["data"].([]map[string]any)
	require.Len(t, gapPoints, 1)
	assert.Equal(t, 11.25, gapPoints[0]["x"])
	assert.Equal(t, 1.5, gapPoints[0]["y"])
	assert.Equal(t, "", gapPoints[0]["tooltip"])
}

func TestProcessScatterChartEmpty(t *testing.T) {
	t.Run("no downtime", func(t *testing.T) {
		res := processScatterChart(fixtureContext(fixtureSet()))
		assert.Equal(t, true, res.Metadata["empty"])
	})

	t.Run("only zero start times", func(t *testing.T) {
		ctx := fixtureContext(fixtureSet())
		ctx.Downtime = []detections.DowntimeEvent{{LineID: 1, Duration: 120}}
		res := processScatterChart(ctx)
		assert.Equal(t, true, res.Metadata["empty"])
	})
}

func TestProcessProductionTimeChart(t *testing.T) {
	ctx := fixtureContext(fixtureSet())

	res := processProductionTimeChart(ctx)
	data := widgetData(t, res)
	assert.Equal(t, 2, res.Metadata["total_points"])
	assert.Equal(t, true, res.Metadata["show_downtime"])
	assert.Equal(t, 0, res.Metadata["downtime_count"])
	assert.Equal(t, []string{"05/01 10:00", "05/01 11:00"}, data["labels"])
	assert.Equal(t, "smooth", data["curve_type"])
	assert.NotContains(t, data, "downtime_events")

	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 2, "one dataset per product, sorted by name")

	first := datasets[0]
	assert.Equal(t, "Botella 1L", first["label"])
	assert.Equal(t, []int{7, 0}, first["data"])
	assert.Equal(t, "#3b82f6", first["borderColor"])
	assert.Equal(t, "rgba(59,130,246,0.08)", first["backgroundColor"])
	assert.Equal(t, false, first["fill"])

	second := datasets[1]
	assert.Equal(t, "Botella 2L", second["label"])
	assert.Equal(t, []int{0, 2}, second["data"])
	assert.Equal(t, "#22c55e", second["borderColor"])

	details, ok := data["class_details"].(map[string]map[string]int)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"Botella 1L": 7}, details["05/01 10:00"])
	assert.Equal(t, map[string]int{"Botella 2L": 2}, details["05/01 11:00"])
}

func TestProcessProductionTimeChartDowntimeOverlay(t *testing.T) {
	ctx := fixtureContext(fixtureSet())
	ctx.Downtime = []detections.DowntimeEvent{
		{
			LineID:    1,
			LineName:  "Encajado",
			StartTime: fixtureBase.Add(10 * time.Minute),
			EndTime:   fixtureBase.Add(45 * time.Minute),
			Duration:  2100,
			Source:    detections.SourceCalculated,
		},
		{LineID: 1, StartTime: fixtureBase, Duration: 60},
	}

	res := processProductionTimeChart(ctx)
	assert.Equal(t, 1, res.Metadata["downtime_count"], "open events are not drawable")

	events, ok := widgetData(t, res)["downtime_events"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, events, 1)

	evt := events[0]
	assert.Equal(t, 0, evt["xMin"])
	assert.Equal(t, 1, evt["xMax"], "end snaps to the nearest bucket")
	assert.Equal(t, "10:10", evt["start_time"])
	assert.Equal(t, "10:45", evt["end_time"])
	assert.Equal(t, 35.0, evt["duration_min"])
	assert.Equal(t, false, evt["has_incident"])
	assert.Equal(t, detections.SourceCalculated, evt["source"])
	assert.Equal(t, "Encajado", evt["line_name"])
}

func TestProcessProductionTimeChartShowDowntimeOff(t *testing.T) {
	ctx := fixtureContext(fixtureSet())
	ctx.Params = filters.Params{"show_downtime": false}
	ctx.Downtime = []detections.DowntimeEvent{
		{LineID: 1, StartTime: fixtureBase, EndTime: fixtureBase.Add(time.Minute), Duration: 60},
	}

	res := processProductionTimeChart(ctx)
	assert.Equal(t, false, res.Metadata["show_downtime"])
	assert.Equal(t, 0, res.Metadata["downtime_count"])
	assert.NotContains(t, widgetData(t, res), "downtime_events")
}

func TestProcessProductionTimeChartSingleProduct(t *testing.T) {
	rows := []detections.EnrichedDetection{
		{Detection: detections.Detection{DetectedAt: fixtureBase, LineID: 1}, ProductName: "Botella 1L", ProductColor: "#3b82f6"},
		{Detection: detections.Detection{DetectedAt: fixtureBase.Add(time.Minute), LineID: 1}, ProductName: "Botella 1L", ProductColor: "#3b82f6"},
	}
	ctx := fixtureContext(detections.NewEnrichedSet(rows))

	datasets := chartDatasets(t, processProductionTimeChart(ctx))
	require.Len(t, datasets, 1)
	assert.Equal(t, "Botella 1L", datasets[0]["label"])
	assert.Equal(t, []int{2}, datasets[0]["data"])
	assert.Equal(t, true, datasets[0]["fill"])
}

func TestProcessProductionTimeChartNoProductColumn(t *testing.T) {
	set := fixtureSet().Scope([]string{detections.ColDetectedAt})
	ctx := fixtureContext(set)

	res := processProductionTimeChart(ctx)
	datasets := chartDatasets(t, res)
	require.Len(t, datasets, 1)
	assert.Equal(t, "Producción", datasets[0]["label"])
	assert.Equal(t, []int{7, 2}, datasets[0]["data"])
	assert.Equal(t, "#3b82f6", datasets[0]["borderColor"])

	details := widgetData(t, res)["class_details"].(map[string]map[string]int)
	assert.Empty(t, details)
}

func TestProcessProductionTimeChartStackedFill(t *testing.T) {
	ctx := fixtureContext(fixtureSet())
	ctx.Config = map[string]any{"curve_type": "stacked"}

	res := processProductionTimeChart(ctx)
	assert.Equal(t, "stacked", widgetData(t, res)["curve_type"])

	datasets := chartDatasets(t, res)
	assert.Equal(t, true, datasets[0]["fill"])
	assert.Equal(t, "rgba(59,130,246,0.25)", datasets[0]["backgroundColor"])
}
