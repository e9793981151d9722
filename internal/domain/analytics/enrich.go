// Package analytics holds the pure calculation layer of the dashboard
// pipeline: cache enrichment of raw detection rows, gap-based downtime
// detection, effectiveness (OEE) math, and time series bucketing. All
// functions here take plain maps and slices so they stay free of cache
// and database concerns.
package analytics

import (
	"fmt"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// Enrich left-joins raw detection rows against the cached metadata maps
// and returns the master enriched set consumed by widget processors.
// Unknown area or product IDs map to sentinel values so downstream code
// never deals with missing columns.
func Enrich(
	rows []detections.Detection,
	areas map[int]catalog.Area,
	products map[int]catalog.Product,
	lines map[int]catalog.ProductionLine,
) *detections.EnrichedSet {
	if len(rows) == 0 {
		return detections.EmptyEnrichedSet()
	}

	enriched := make([]detections.EnrichedDetection, len(rows))
	for i, row := range rows {
		e := detections.EnrichedDetection{Detection: row}

		if area, ok := areas[row.AreaID]; ok {
			e.AreaName = area.AreaName
			e.AreaType = area.AreaType
		} else {
			e.AreaName = "Desconocida"
			e.AreaType = "unknown"
		}

		var product catalog.Product
		found := false
		if row.ProductID != nil {
			product, found = products[*row.ProductID]
		}
		if found {
			e.ProductName = product.ProductName
			e.ProductCode = product.ProductCode
			e.ProductWeight = product.ProductWeight
			e.ProductColor = product.ProductColor
			if e.ProductColor == "" {
				e.ProductColor = "#888888"
			}
		} else {
			e.ProductName = "Desconocido"
			e.ProductColor = "#888888"
		}

		if line, ok := lines[row.LineID]; ok {
			e.LineName = line.LineName
			e.LineCode = line.LineCode
		} else {
			e.LineName = "Desconocida"
		}

		enriched[i] = e
	}

	return detections.NewEnrichedSet(enriched)
}

// EnrichDowntime fills line_name on downtime events from the line map.
// Unknown lines get a generic label so tables never render blank rows.
func EnrichDowntime(
	events []detections.DowntimeEvent,
	lines map[int]catalog.ProductionLine,
) []detections.DowntimeEvent {
	for i := range events {
		if line, ok := lines[events[i].LineID]; ok {
			events[i].LineName = line.LineName
		} else {
			events[i].LineName = fmt.Sprintf("Line %d", events[i].LineID)
		}
	}
	return events
}
