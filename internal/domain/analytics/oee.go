package analytics

import (
	"math"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
)

// OEEInputs carries everything the effectiveness math needs. Callers
// resolve the maps from the metadata cache and compute ScheduledMinutes
// up front so the calculation itself stays deterministic.
type OEEInputs struct {
	Set              *detections.EnrichedSet
	Downtime         []detections.DowntimeEvent
	LinesQueried     []int
	Lines            map[int]catalog.ProductionLine
	DualAreaLines    []int
	ScheduledMinutes float64
}

// OEEResult is the master effectiveness calculation shared by the OEE,
// availability, performance and quality KPIs. Percentages are rounded
// to one decimal.
type OEEResult struct {
	OEE              float64
	Availability     float64
	Performance      float64
	Quality          float64
	ScheduledMinutes float64
	DowntimeMinutes  float64
}

// ComputeOEE runs the full calculation:
//
//	quality      = min(100, output/input·100) over dual-area lines, else 100
//	availability = clamp((scheduled-downtime)/scheduled·100, 0..100)
//	performance  = min(100, output / Σ line.performance·operating ·100)
//	oee          = A·P·Q/10000 when all three are positive
//
// An empty set, or one without the area_type column, yields all zeros.
func ComputeOEE(in OEEInputs) OEEResult {
	var out OEEResult
	if in.Set.Empty() || !in.Set.Has(detections.ColAreaType) {
		return out
	}

	rows := in.Set.Rows()
	salida := 0
	for _, r := range rows {
		if r.AreaType == detections.AreaTypeOutput {
			salida++
		}
	}

	// Quality only means something on lines that record both input and
	// output; single-area lines cannot lose units.
	out.Quality = 100
	if len(in.DualAreaLines) > 0 && in.Set.Has(detections.ColLineID) {
		dual := make(map[int]bool, len(in.DualAreaLines))
		for _, id := range in.DualAreaLines {
			dual[id] = true
		}
		entrada, salidaDual := 0, 0
		for _, r := range rows {
			if !dual[r.LineID] {
				continue
			}
			switch r.AreaType {
			case detections.AreaTypeInput:
				entrada++
			case detections.AreaTypeOutput:
				salidaDual++
			}
		}
		if entrada > 0 {
			out.Quality = math.Min(100, round1(float64(salidaDual)/float64(entrada)*100))
		}
	}

	sched := in.ScheduledMinutes
	var downtimeMin float64
	for _, e := range in.Downtime {
		downtimeMin += e.Duration / 60.0
	}
	if sched > 0 {
		out.Availability = math.Max(0, math.Min(100, round1((sched-downtimeMin)/sched*100)))
	}

	operating := math.Max(0, sched-downtimeMin)
	if operating > 0 && in.Set.Has(detections.ColLineID) {
		var expected float64
		for _, lineID := range in.LinesQueried {
			line, ok := in.Lines[lineID]
			if !ok || line.Performance <= 0 {
				continue
			}
			var lineDowntimeMin float64
			for _, e := range in.Downtime {
				if e.LineID == lineID {
					lineDowntimeMin += e.Duration / 60.0
				}
			}
			expected += line.Performance * math.Max(0, sched-lineDowntimeMin)
		}
		if expected > 0 {
			out.Performance = math.Min(100, round1(float64(salida)/expected*100))
		}
	}

	if out.Availability > 0 && out.Performance > 0 && out.Quality > 0 {
		out.OEE = round1(out.Availability / 100 * out.Performance / 100 * out.Quality / 100 * 100)
	}

	out.ScheduledMinutes = round1(sched)
	out.DowntimeMinutes = round1(downtimeMin)
	return out
}

// ScheduledMinutes returns the scheduled production time for the queried
// period. A selected shift counts alone; otherwise every active shift is
// summed. The daily total is multiplied by the calendar days in the
// range, never less than one day.
func ScheduledMinutes(
	shifts map[int]catalog.Shift,
	shiftID int,
	shiftSelected bool,
	start, end time.Time,
) float64 {
	var selected []catalog.Shift
	if shiftSelected {
		shift, ok := shifts[shiftID]
		if !ok {
			return 0
		}
		selected = append(selected, shift)
	} else {
		for _, shift := range shifts {
			selected = append(selected, shift)
		}
	}
	if len(selected) == 0 {
		return 0
	}

	var daily float64
	for _, shift := range selected {
		daily += float64(shift.DailyMinutes())
	}
	if daily <= 0 {
		return 0
	}

	return daily * float64(CountDays(start, end))
}

// CountDays returns the number of calendar days covered by the range,
// inclusive of both endpoints and never less than one.
func CountDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// LinesWithInputOutput returns the subset of lineIDs whose areas include
// both an input and an output station. Order follows lineIDs.
func LinesWithInputOutput(lineIDs []int, areasByLine map[int][]catalog.Area) []int {
	var result []int
	for _, lineID := range lineIDs {
		hasInput, hasOutput := false, false
		for _, area := range areasByLine[lineID] {
			switch area.AreaType {
			case detections.AreaTypeInput:
				hasInput = true
			case detections.AreaTypeOutput:
				hasOutput = true
			}
		}
		if hasInput && hasOutput {
			result = append(result, lineID)
		}
	}
	return result
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
