package analytics

import (
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// CalculateGapDowntimes scans detection timestamps per line and emits a
// downtime event for every run of gaps exceeding the line threshold.
//
// Consecutive above-threshold gaps belong to the same event; a new event
// only begins after production resumes with at least one gap at or below
// the threshold. thresholdOverride (seconds) replaces the per-line value
// when positive. Lines with auto detection disabled, a non-positive
// threshold, or fewer than two detections are skipped.
func CalculateGapDowntimes(
	set *detections.EnrichedSet,
	lineIDs []int,
	lines map[int]catalog.ProductionLine,
	thresholdOverride int,
) []detections.DowntimeEvent {
	if set.Empty() || !set.Has(detections.ColDetectedAt) || !set.Has(detections.ColLineID) {
		return nil
	}

	var events []detections.DowntimeEvent
	for _, lineID := range lineIDs {
		line, ok := lines[lineID]
		if !ok || !line.AutoDetectDowntime {
			continue
		}

		threshold := thresholdOverride
		if threshold <= 0 {
			threshold = line.DowntimeThreshold
		}
		if threshold <= 0 {
			continue
		}

		times := detectionTimes(set, lineID)
		if len(times) < 2 {
			continue
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		gate := float64(threshold)
		var start, end int
		open := false
		for i := 0; i < len(times)-1; i++ {
			gap := times[i+1].Sub(times[i]).Seconds()
			if gap > gate {
				if !open {
					start = i
					open = true
				}
				end = i + 1
				continue
			}
			if open {
				events = append(events, gapEvent(times[start], times[end], lineID))
				open = false
			}
		}
		if open {
			events = append(events, gapEvent(times[start], times[end], lineID))
		}
	}
	return events
}

// RemoveOverlapping drops calculated events whose interval intersects a
// database event on the same line. Database records always win.
func RemoveOverlapping(calculated, db []detections.DowntimeEvent) []detections.DowntimeEvent {
	if len(calculated) == 0 || len(db) == 0 {
		return calculated
	}

	kept := make([]detections.DowntimeEvent, 0, len(calculated))
	for _, calc := range calculated {
		overlaps := false
		for _, recorded := range db {
			if calc.Overlaps(recorded) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, calc)
		}
	}
	return kept
}

func detectionTimes(set *detections.EnrichedSet, lineID int) []time.Time {
	var times []time.Time
	for _, row := range set.Rows() {
		if row.LineID == lineID {
			times = append(times, row.DetectedAt)
		}
	}
	return times
}

func gapEvent(start, end time.Time, lineID int) detections.DowntimeEvent {
	return detections.DowntimeEvent{
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).Seconds(),
		LineID:    lineID,
		Source:    detections.SourceCalculated,
	}
}
