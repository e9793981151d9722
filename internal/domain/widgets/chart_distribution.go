package widgets

import (
	"sort"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// processAreaDetectionChart counts detections per area, largest first.
func processAreaDetectionChart(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() || !set.Has(detections.ColAreaName) {
		return ctx.emptyResult("chart")
	}

	counts := make(map[string]int)
	for _, r := range set.Rows() {
		counts[r.AreaName]++
	}

	type areaCount struct {
		name  string
		count int
	}
	ordered := make([]areaCount, 0, len(counts))
	for name, n := range counts {
		ordered = append(ordered, areaCount{name, n})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].name < ordered[j].name
	})

	labels := make([]string, len(ordered))
	data := make([]int, len(ordered))
	for i, a := range ordered {
		labels[i] = a.name
		data[i] = a.count
	}

	colorCount := len(ordered)
	if colorCount > len(analytics.FallbackPalette) {
		colorCount = len(analytics.FallbackPalette)
	}

	res := ctx.result("chart", "chart", map[string]any{
		"labels": labels,
		"datasets": []map[string]any{{
			"label":           "Detecciones por Área",
			"data":            data,
			"backgroundColor": analytics.FallbackPalette[:colorCount],
		}},
	})
	res.Metadata["total_points"] = len(ordered)
	return res
}

// processProductDistributionChart builds pie data per product, colored
// by the product's configured color.
func processProductDistributionChart(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() || !set.Has(detections.ColProductName) {
		return ctx.emptyResult("chart")
	}

	type productKey struct {
		name  string
		color string
	}
	hasColor := set.Has(detections.ColProductColor)
	counts := make(map[productKey]int)
	for _, r := range set.Rows() {
		key := productKey{name: r.ProductName, color: "#888888"}
		if hasColor {
			key.color = r.ProductColor
		}
		counts[key]++
	}

	keys := make([]productKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].color < keys[j].color
	})

	labels := make([]string, len(keys))
	data := make([]int, len(keys))
	colors := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = k.name
		data[i] = counts[k]
		colors[i] = k.color
	}

	res := ctx.result("chart", "chart", map[string]any{
		"labels": labels,
		"datasets": []map[string]any{{
			"data":            data,
			"backgroundColor": colors,
		}},
	})
	res.Metadata["total_points"] = len(keys)
	return res
}

// processScatterChart plots downtime duration against hour of day, with
// separate datasets for operator-confirmed incidents and gap-detected
// stops.
func processScatterChart(ctx *Context) Result {
	if !ctx.HasDowntime() {
		return ctx.emptyResult("chart")
	}

	var withIncident, gapDetected []map[string]any
	for _, evt := range ctx.Downtime {
		if evt.StartTime.IsZero() {
			continue
		}
		hasIncident := evt.ReasonCode != nil && *evt.ReasonCode != 0
		tooltip := ""
		if hasIncident {
			if incident, ok := ctx.Incidents[*evt.ReasonCode]; ok {
				tooltip = incident.Description
			}
		}
		point := map[string]any{
			"x":       round2(float64(evt.StartTime.Hour()) + float64(evt.StartTime.Minute())/60.0),
			"y":       round1(evt.Duration / 60.0),
			"tooltip": tooltip,
		}
		if hasIncident {
			withIncident = append(withIncident, point)
		} else {
			gapDetected = append(gapDetected, point)
		}
	}

	var datasets []map[string]any
	if len(withIncident) > 0 {
		datasets = append(datasets, map[string]any{
			"label":           "Con incidente",
			"data":            withIncident,
			"backgroundColor": "rgba(249,115,22,0.7)",
			"borderColor":     "rgba(249,115,22,1)",
			"pointRadius":     6,
		})
	}
	if len(gapDetected) > 0 {
		datasets = append(datasets, map[string]any{
			"label":           "Detectada (gap)",
			"data":            gapDetected,
			"backgroundColor": "rgba(239,68,68,0.7)",
			"borderColor":     "rgba(239,68,68,1)",
			"pointRadius":     6,
		})
	}
	if len(datasets) == 0 {
		return ctx.emptyResult("chart")
	}

	res := ctx.result("chart", "chart", map[string]any{"datasets": datasets})
	res.Metadata["total_points"] = len(withIncident) + len(gapDetected)
	return res
}
