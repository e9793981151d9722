package widgets

import (
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// processLineStatusIndicator reports live status per queried line. A
// line is active when its last detection is under ten minutes old.
func processLineStatusIndicator(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() || !set.Has(detections.ColLineName) {
		return ctx.emptyResult("indicator")
	}

	now := ctx.now()
	hasLineID := set.Has(detections.ColLineID)
	hasAreaType := set.Has(detections.ColAreaType)

	lines := make([]map[string]any, 0, len(ctx.LinesQueried))
	for _, lineID := range ctx.LinesQueried {
		meta, ok := ctx.Lines[lineID]
		if !ok {
			continue
		}

		count, outputCount := 0, 0
		var last time.Time
		for _, r := range set.Rows() {
			if hasLineID && r.LineID != lineID {
				continue
			}
			count++
			if r.DetectedAt.After(last) {
				last = r.DetectedAt
			}
			if !hasAreaType || r.AreaType == detections.AreaTypeOutput {
				outputCount++
			}
		}

		status := "no_data"
		lastDetection := "—"
		var minutesSince any
		if count > 0 {
			elapsed := now.Sub(last).Minutes()
			if elapsed < 10 {
				status = "active"
			} else {
				status = "idle"
			}
			lastDetection = last.Format("2006-01-02 15:04")
			minutesSince = round1(elapsed)
		}

		lines = append(lines, map[string]any{
			"line_id":            lineID,
			"line_name":          meta.LineName,
			"line_code":          meta.LineCode,
			"status":             status,
			"detection_count":    count,
			"output_count":       outputCount,
			"last_detection":     lastDetection,
			"minutes_since_last": minutesSince,
		})
	}

	res := ctx.result("indicator", "status", map[string]any{
		"lines":       lines,
		"total_lines": len(lines),
	})
	res.Metadata["total_lines"] = len(lines)
	return res
}

// processMetricsSummary aggregates the headline numbers of the queried
// period into one block.
func processMetricsSummary(ctx *Context) Result {
	set := ctx.Data
	if set.Empty() {
		return ctx.emptyResult("summary")
	}

	rows := set.Rows()
	total := len(rows)
	hasAreaType := set.Has(detections.ColAreaType)
	hasWeight := set.Has(detections.ColProductWeight)

	outputCount := total
	if hasAreaType {
		outputCount = 0
		for _, r := range rows {
			if r.AreaType == detections.AreaTypeOutput {
				outputCount++
			}
		}
	}

	var totalWeight float64
	if hasWeight {
		for _, r := range rows {
			if hasAreaType && r.AreaType != detections.AreaTypeOutput {
				continue
			}
			totalWeight += r.ProductWeight
		}
	}

	first, last := rows[0].DetectedAt, rows[0].DetectedAt
	for _, r := range rows[1:] {
		if r.DetectedAt.Before(first) {
			first = r.DetectedAt
		}
		if r.DetectedAt.After(last) {
			last = r.DetectedAt
		}
	}
	hoursSpan := last.Sub(first).Hours()
	var avgPerHour float64
	if hoursSpan > 0 {
		avgPerHour = round1(float64(outputCount) / hoursSpan)
	}

	uniqueProducts := 0
	if set.Has(detections.ColProductName) {
		seen := make(map[string]bool)
		for _, r := range rows {
			seen[r.ProductName] = true
		}
		uniqueProducts = len(seen)
	}

	downtimeCount := len(ctx.Downtime)
	var downtimeMinutes float64
	for _, e := range ctx.Downtime {
		downtimeMinutes += e.Duration / 60.0
	}
	if downtimeCount > 0 {
		downtimeMinutes = round1(downtimeMinutes)
	}

	return ctx.result("summary", "summary", map[string]any{
		"total_detections": total,
		"output_count":     outputCount,
		"total_weight":     round2(totalWeight),
		"avg_per_hour":     avgPerHour,
		"hours_span":       round1(hoursSpan),
		"unique_products":  uniqueProducts,
		"lines_count":      len(ctx.LinesQueried),
		"downtime_count":   downtimeCount,
		"downtime_minutes": downtimeMinutes,
		"first_detection":  first.Format("2006-01-02 15:04"),
		"last_detection":   last.Format("2006-01-02 15:04"),
	})
}

// processEventFeed merges the most recent detections with all downtime
// events into one reverse-chronological feed capped at max_items.
func processEventFeed(ctx *Context) Result {
	maxItems := ctx.configInt("max_items", 50)

	events := make([]map[string]any, 0, maxItems)

	set := ctx.Data
	if !set.Empty() && set.Has(detections.ColDetectedAt) {
		recent := append([]detections.EnrichedDetection(nil), set.Rows()...)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].DetectedAt.After(recent[j].DetectedAt)
		})
		if len(recent) > maxItems {
			recent = recent[:maxItems]
		}
		for _, r := range recent {
			events = append(events, map[string]any{
				"type":         "detection",
				"timestamp":    r.DetectedAt.Format("2006-01-02 15:04:05"),
				"line_name":    columnValue(set, detections.ColLineName, r.LineName),
				"area_name":    columnValue(set, detections.ColAreaName, r.AreaName),
				"product_name": columnValue(set, detections.ColProductName, r.ProductName),
			})
		}
	}

	for _, evt := range ctx.Downtime {
		if evt.StartTime.IsZero() {
			continue
		}
		source := evt.Source
		if source == "" {
			source = detections.SourceDB
		}
		events = append(events, map[string]any{
			"type":         "downtime",
			"timestamp":    evt.StartTime.Format("2006-01-02 15:04:05"),
			"line_name":    evt.LineName,
			"duration_min": round1(evt.Duration / 60.0),
			"source":       source,
		})
	}

	// Timestamps share one sortable layout, so string order is time order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i]["timestamp"].(string) > events[j]["timestamp"].(string)
	})
	if len(events) > maxItems {
		events = events[:maxItems]
	}

	return ctx.result("feed", "feed", map[string]any{
		"events": events,
		"total":  len(events),
	})
}

func columnValue(set *detections.EnrichedSet, column, value string) string {
	if set.Has(column) {
		return value
	}
	return ""
}
