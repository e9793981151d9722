package widgets

import (
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// processProductionTimeChart builds the per-product production line
// chart: one dataset per product over the full queried time range, a
// per-bucket product breakdown for tooltips, and an optional downtime
// annotation overlay.
func processProductionTimeChart(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() {
		return ctx.emptyResult("chart")
	}

	interval := ctx.Params.Interval()
	curveType := ctx.configString("curve_type", "smooth")
	showDowntime := ctx.Params.ShowDowntime()

	rows := set.Rows()
	times := make([]time.Time, len(rows))
	for i, r := range rows {
		times[i] = r.DetectedAt
	}

	// Reindex over the queried range so zero buckets stay visible; fall
	// back to the observed span when the range produces no buckets.
	start, end, haveRange := ctx.Params.DateRange()
	index := analytics.SeriesIndex(times, start, end, haveRange, interval)
	if len(index) == 0 {
		index = analytics.SeriesIndex(times, time.Time{}, time.Time{}, false, interval)
	}
	if len(index) == 0 {
		return ctx.emptyResult("chart")
	}

	var products []string
	if set.Has(detections.ColProductName) {
		seen := make(map[string]bool)
		for _, r := range rows {
			if !seen[r.ProductName] {
				seen[r.ProductName] = true
				products = append(products, r.ProductName)
			}
		}
	}

	datasets := buildProductionDatasets(set, products, index, interval, curveType)
	downtimeEvents := buildDowntimeOverlay(ctx, showDowntime, index)

	data := map[string]any{
		"labels":        analytics.FormatLabels(index, interval),
		"datasets":      datasets,
		"curve_type":    curveType,
		"class_details": buildClassDetails(set, interval),
	}
	if len(downtimeEvents) > 0 {
		data["downtime_events"] = downtimeEvents
	}

	res := ctx.result("chart", "chart", data)
	res.Metadata["total_points"] = len(index)
	res.Metadata["show_downtime"] = showDowntime
	res.Metadata["downtime_count"] = len(downtimeEvents)
	return res
}

func buildProductionDatasets(
	set *detections.EnrichedSet,
	products []string,
	index []time.Time,
	interval, curveType string,
) []map[string]any {
	rows := set.Rows()
	stacked := curveType == "stacked"

	if len(products) > 1 {
		ordered := append([]string(nil), products...)
		sort.Strings(ordered)

		fillAlpha := 0.08
		if stacked {
			fillAlpha = 0.25
		}

		datasets := make([]map[string]any, 0, len(ordered))
		for i, name := range ordered {
			var productTimes []time.Time
			color := ""
			for _, r := range rows {
				if r.ProductName != name {
					continue
				}
				productTimes = append(productTimes, r.DetectedAt)
				if color == "" && set.Has(detections.ColProductColor) {
					color = r.ProductColor
				}
			}
			if color == "" {
				color = analytics.PaletteColor(i)
			}
			datasets = append(datasets, map[string]any{
				"label":           name,
				"data":            analytics.CountSeries(index, productTimes, interval),
				"borderColor":     color,
				"backgroundColor": analytics.Alpha(color, fillAlpha),
				"fill":            stacked,
			})
		}
		return datasets
	}

	color := "#3b82f6"
	if set.Has(detections.ColProductColor) && len(rows) > 0 && rows[0].ProductColor != "" {
		color = rows[0].ProductColor
	}
	label := "Producción"
	if len(products) == 1 {
		label = products[0]
	}
	return []map[string]any{{
		"label":           label,
		"data":            analytics.CountSeries(index, allTimes(rows), interval),
		"borderColor":     color,
		"backgroundColor": analytics.Alpha(color, 0.1),
		"fill":            true,
	}}
}

// buildClassDetails produces the per-bucket product breakdown keyed by
// axis label. Buckets without detections are omitted.
func buildClassDetails(set *detections.EnrichedSet, interval string) map[string]map[string]int {
	details := make(map[string]map[string]int)
	if !set.Has(detections.ColProductName) || !set.Has(detections.ColDetectedAt) {
		return details
	}
	for _, r := range set.Rows() {
		label := analytics.FormatLabel(analytics.BucketStart(r.DetectedAt, interval), interval)
		bucket := details[label]
		if bucket == nil {
			bucket = make(map[string]int)
			details[label] = bucket
		}
		bucket[r.ProductName]++
	}
	return details
}

// buildDowntimeOverlay positions each downtime event on the chart by
// snapping its bounds to the nearest axis labels.
func buildDowntimeOverlay(ctx *Context, showDowntime bool, index []time.Time) []map[string]any {
	if !showDowntime || !ctx.HasDowntime() {
		return nil
	}
	events := make([]map[string]any, 0, len(ctx.Downtime))
	for _, evt := range ctx.Downtime {
		if evt.StartTime.IsZero() || evt.EndTime.IsZero() {
			continue
		}
		hasIncident := evt.ReasonCode != nil && *evt.ReasonCode != 0
		reason := ""
		if hasIncident {
			if incident, ok := ctx.Incidents[*evt.ReasonCode]; ok {
				reason = incident.Description
			}
		}
		source := evt.Source
		if source == "" {
			source = detections.SourceDB
		}
		events = append(events, map[string]any{
			"xMin":         analytics.FindNearestIndex(index, evt.StartTime),
			"xMax":         analytics.FindNearestIndex(index, evt.EndTime),
			"start_time":   evt.StartTime.Format("15:04"),
			"end_time":     evt.EndTime.Format("15:04"),
			"duration_min": round1(evt.Duration / 60.0),
			"reason":       reason,
			"has_incident": hasIncident,
			"source":       source,
			"line_name":    evt.LineName,
		})
	}
	return events
}

func allTimes(rows []detections.EnrichedDetection) []time.Time {
	times := make([]time.Time, len(rows))
	for i, r := range rows {
		times[i] = r.DetectedAt
	}
	return times
}
