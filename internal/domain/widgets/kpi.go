package widgets

import (
	"math"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// processTotalProduction counts output detections. Every fact row is one
// unit past a sensor, so the row count is the production count. Sets
// without an area_type column fall back to the total row count.
func processTotalProduction(ctx *Context) Result {
	set := ctx.Data
	var value int
	if !set.Empty() && set.Has(detections.ColAreaType) {
		for _, row := range set.Rows() {
			if row.AreaType == detections.AreaTypeOutput {
				value++
			}
		}
	} else {
		value = set.Len()
	}

	return ctx.result("kpi", "kpi", map[string]any{
		"value": value,
		"unit":  ctx.configString("unit", "unidades"),
		"trend": nil,
	})
}

// processTotalWeight sums product_weight over output detections.
func processTotalWeight(ctx *Context) Result {
	set := ctx.Data
	var total float64
	if !set.Empty() && set.Has(detections.ColProductWeight) {
		restrict := set.Has(detections.ColAreaType)
		for _, row := range set.Rows() {
			if restrict && row.AreaType != detections.AreaTypeOutput {
				continue
			}
			total += row.ProductWeight
		}
	}

	return ctx.result("kpi", "kpi", map[string]any{
		"value": round2(total),
		"unit":  ctx.configString("unit", "kg"),
		"trend": nil,
	})
}

// processTotalDowntime reports the stop count and the summed minutes.
func processTotalDowntime(ctx *Context) Result {
	count := len(ctx.Downtime)
	var totalMinutes float64
	for _, e := range ctx.Downtime {
		totalMinutes += e.Duration / 60.0
	}
	if count > 0 {
		totalMinutes = round1(totalMinutes)
	}

	return ctx.result("kpi", "kpi", map[string]any{
		"value":         count,
		"unit":          "paradas",
		"total_minutes": totalMinutes,
		"trend":         nil,
	})
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func round2(x float64) float64 { return math.Round(x*100) / 100 }
