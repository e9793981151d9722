package widgets

import (
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

var downtimeTableColumns = []map[string]string{
	{"key": "start_time", "label": "Inicio"},
	{"key": "end_time", "label": "Fin"},
	{"key": "duration_min", "label": "Duración (min)"},
	{"key": "failure_type", "label": "Tipo de Falla"},
	{"key": "failure_desc", "label": "Descripción Falla"},
	{"key": "incident_code", "label": "Código Incidente"},
	{"key": "incident_desc", "label": "Incidente"},
	{"key": "line_name", "label": "Línea"},
}

// processDowntimeTable renders one row per downtime event, resolving the
// incident and failure chain from the cache. An empty downtime list
// still yields the column layout so the table renders its header.
func processDowntimeTable(ctx *Context) Result {
	rows := make([]map[string]any, 0, len(ctx.Downtime))
	for _, evt := range ctx.Downtime {
		var incidentCode, incidentDesc, failureType, failureDesc string
		if evt.ReasonCode != nil && *evt.ReasonCode != 0 {
			if incident, ok := ctx.Incidents[*evt.ReasonCode]; ok {
				incidentCode = incident.IncidentCode
				incidentDesc = incident.Description
				if failure, ok := ctx.Failures[incident.FailureID]; ok {
					failureType = failure.TypeFailure
					failureDesc = failure.Description
				}
			}
		}
		rows = append(rows, map[string]any{
			"start_time":    formatTableTime(evt.StartTime),
			"end_time":      formatTableTime(evt.EndTime),
			"duration_min":  round1(evt.Duration / 60.0),
			"failure_type":  failureType,
			"failure_desc":  failureDesc,
			"incident_code": incidentCode,
			"incident_desc": incidentDesc,
			"line_name":     evt.LineName,
		})
	}

	res := ctx.result("table", "table", map[string]any{
		"columns": downtimeTableColumns,
		"rows":    rows,
	})
	res.Metadata["total_rows"] = len(rows)
	return res
}

func formatTableTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// processProductRanking ranks products by output count with summed
// weight and share of total output.
func processProductRanking(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() || !set.Has(detections.ColProductName) {
		return ctx.emptyResult("ranking")
	}

	restrict := set.Has(detections.ColAreaType)
	hasCode := set.Has(detections.ColProductCode)
	hasColor := set.Has(detections.ColProductColor)
	hasWeight := set.Has(detections.ColProductWeight)

	type rankKey struct {
		name  string
		code  string
		color string
	}
	counts := make(map[rankKey]int)
	weights := make(map[rankKey]float64)
	total := 0
	for _, r := range set.Rows() {
		if restrict && r.AreaType != detections.AreaTypeOutput {
			continue
		}
		total++
		key := rankKey{name: r.ProductName}
		if hasCode {
			key.code = r.ProductCode
		}
		if hasColor {
			key.color = r.ProductColor
		}
		counts[key]++
		if hasWeight {
			weights[key] += r.ProductWeight
		}
	}
	if total == 0 {
		return ctx.emptyResult("ranking")
	}

	keys := make([]rankKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i].name < keys[j].name
	})

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		color := k.color
		if color == "" {
			color = "#999"
		}
		rows = append(rows, map[string]any{
			"product_name":  k.name,
			"product_code":  k.code,
			"product_color": color,
			"count":         counts[k],
			"total_weight":  round2(weights[k]),
			"percentage":    round1(float64(counts[k]) / float64(total) * 100),
		})
	}

	columns := []map[string]string{
		{"key": "product_name", "label": "Producto"},
		{"key": "count", "label": "Cantidad"},
		{"key": "total_weight", "label": "Peso (kg)"},
		{"key": "percentage", "label": "% del Total"},
	}

	res := ctx.result("ranking", "table", map[string]any{
		"columns":          columns,
		"rows":             rows,
		"total_production": total,
	})
	res.Metadata["total_rows"] = len(rows)
	return res
}
