package widgets

import (
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// processEntryOutputCompareChart compares entrada, salida and descarte
// per time bucket. Entrada and descarte only draw from dual-area lines
// since single-area lines cannot measure loss. When a shift is selected
// the x-axis window narrows to the shift's hours per day.
func processEntryOutputCompareChart(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() || !set.Has(detections.ColAreaType) {
		return ctx.emptyResult("chart")
	}

	interval := ctx.Params.Interval()

	dual := make(map[int]bool)
	if set.Has(detections.ColLineID) {
		for _, id := range ctx.DualAreaLines() {
			dual[id] = true
		}
	}

	var relevantTimes, outputTimes, dualInputTimes, dualOutputTimes []time.Time
	for _, r := range set.Rows() {
		switch r.AreaType {
		case detections.AreaTypeInput:
			relevantTimes = append(relevantTimes, r.DetectedAt)
			if dual[r.LineID] {
				dualInputTimes = append(dualInputTimes, r.DetectedAt)
			}
		case detections.AreaTypeOutput:
			relevantTimes = append(relevantTimes, r.DetectedAt)
			outputTimes = append(outputTimes, r.DetectedAt)
			if dual[r.LineID] {
				dualOutputTimes = append(dualOutputTimes, r.DetectedAt)
			}
		}
	}
	if len(relevantTimes) == 0 {
		return ctx.emptyResult("chart")
	}

	start, end, haveRange := ctx.Params.DateRange()
	if haveRange {
		if shiftID, selected := ctx.Params.ShiftID(); selected {
			if shift, ok := ctx.Shifts[shiftID]; ok {
				start = withClock(start, shift.StartMinutes())
				end = withClock(end, shift.EndMinutes())
			}
		}
	}
	index := analytics.SeriesIndex(relevantTimes, start, end, haveRange, interval)
	if len(index) == 0 {
		index = analytics.SeriesIndex(relevantTimes, time.Time{}, time.Time{}, false, interval)
	}
	if len(index) == 0 {
		return ctx.emptyResult("chart")
	}

	entrada := analytics.CountSeries(index, dualInputTimes, interval)
	salida := analytics.CountSeries(index, outputTimes, interval)

	// Descarte is input minus dual output, floored at zero. Without any
	// dual output buckets the series stays flat zero.
	descarte := make([]int, len(index))
	if len(dualOutputTimes) > 0 {
		dualOutput := analytics.CountSeries(index, dualOutputTimes, interval)
		for i := range descarte {
			if d := entrada[i] - dualOutput[i]; d > 0 {
				descarte[i] = d
			}
		}
	}

	data := map[string]any{
		"labels": analytics.FormatLabels(index, interval),
		"datasets": []map[string]any{
			{"label": "Entrada", "data": entrada, "backgroundColor": "#22c55e"},
			{"label": "Salida", "data": salida, "backgroundColor": "#3b82f6"},
			{"label": "Descarte", "data": descarte, "backgroundColor": "#ef4444"},
		},
		"summary": map[string]any{
			"entrada":  sumInts(entrada),
			"salida":   sumInts(salida),
			"descarte": sumInts(descarte),
		},
	}

	res := ctx.result("chart", "chart", data)
	res.Metadata["total_points"] = len(index)
	return res
}

// withClock replaces the time-of-day of t with minutes since midnight.
func withClock(t time.Time, minutes int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), minutes/60, minutes%60, 0, 0, t.Location())
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
