package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/domain/widgets"
)

func TestAssembleKeysResultsByWidgetID(t *testing.T) {
	set := detections.NewEnrichedSet([]detections.EnrichedDetection{
		{Detection: detections.Detection{DetectedAt: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), LineID: 1}},
		{Detection: detections.Detection{DetectedAt: time.Date(2026, 1, 5, 10, 1, 0, 0, time.UTC), LineID: 2}},
	})
	results := []widgets.Result{
		{WidgetID: 3, WidgetName: "Producción Total", WidgetType: "kpi"},
		{WidgetID: 0, WidgetName: "GhostWidget", WidgetType: "error"},
	}
	cleaned := filters.Params{
		"daterange": map[string]any{"start_date": "2026-01-05", "end_date": "2026-01-11"},
		"interval":  "day",
	}
	downtime := []detections.DowntimeEvent{{LineID: 1, Duration: 60}}

	resp := assemble(cleaned, []int{1, 2}, set, downtime, results, 1234*time.Millisecond)

	indexed, ok := resp["widgets"].(map[string]widgets.Result)
	require.True(t, ok)
	require.Len(t, indexed, 2)
	assert.Equal(t, "kpi", indexed["3"].WidgetType)
	assert.Equal(t, "error", indexed["GhostWidget"].WidgetType, "unresolved widgets key by class name")

	meta, ok := resp["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, meta["total_detections"])
	assert.Equal(t, 1, meta["total_downtime_events"])
	assert.Equal(t, []int{1, 2}, meta["lines_queried"])
	assert.Equal(t, true, meta["is_multi_line"])
	assert.Equal(t, 2, meta["widget_count"])
	assert.Equal(t, "day", meta["interval"])
	assert.Equal(t, 1.234, meta["elapsed_seconds"])
	assert.Equal(t, map[string]string{"start": "2026-01-05", "end": "2026-01-11"}, meta["period"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestAssembleSingleLine(t *testing.T) {
	resp := assemble(filters.Params{}, []int{1}, detections.EmptyEnrichedSet(), nil, nil, 0)

	meta := resp["metadata"].(map[string]any)
	assert.Equal(t, false, meta["is_multi_line"])
	assert.Equal(t, 0, meta["total_detections"])
	assert.Equal(t, "hour", meta["interval"])
	assert.Equal(t, map[string]string{}, meta["period"])
}

func TestEmptyResponse(t *testing.T) {
	resp := EmptyResponse("No production lines found for the given parameters")

	widgetsBlock, ok := resp["widgets"].(map[string]any)
	require.True(t, ok)
	assert.Empty(t, widgetsBlock)

	meta, ok := resp["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, meta["total_detections"])
	assert.Equal(t, 0, meta["total_downtime_events"])
	assert.Equal(t, []int{}, meta["lines_queried"])
	assert.Equal(t, false, meta["is_multi_line"])
	assert.Equal(t, 0, meta["widget_count"])
	assert.Equal(t, "hour", meta["interval"])
	assert.Equal(t, "No production lines found for the given parameters", meta["error"])
}

func TestExtractPeriod(t *testing.T) {
	withTimes := filters.Params{
		"daterange": map[string]any{
			"start_date": "2026-01-05",
			"end_date":   "2026-01-06",
			"start_time": "06:00",
			"end_time":   "14:00",
		},
	}
	assert.Equal(t, map[string]string{
		"start":      "2026-01-05",
		"end":        "2026-01-06",
		"start_time": "06:00",
		"end_time":   "14:00",
	}, extractPeriod(withTimes))

	noTimes := filters.Params{
		"daterange": map[string]any{"start_date": "2026-01-05", "end_date": "2026-01-06"},
	}
	period := extractPeriod(noTimes)
	assert.NotContains(t, period, "start_time")
	assert.NotContains(t, period, "end_time")

	assert.Equal(t, map[string]string{}, extractPeriod(filters.Params{"daterange": "bogus"}))
	assert.Equal(t, map[string]string{}, extractPeriod(filters.Params{}))
}
