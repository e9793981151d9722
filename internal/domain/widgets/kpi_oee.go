package widgets

import (
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
)

// computeOEE is the shared effectiveness calculation behind the OEE,
// availability, performance and quality KPIs.
func computeOEE(ctx *Context) analytics.OEEResult {
	shiftID, shiftSelected := ctx.Params.ShiftID()
	var start, end time.Time
	if s, e, ok := ctx.Params.DateRange(); ok {
		start, end = s, e
	}

	return analytics.ComputeOEE(analytics.OEEInputs{
		Set:              ctx.Data,
		Downtime:         ctx.Downtime,
		LinesQueried:     ctx.LinesQueried,
		Lines:            ctx.Lines,
		DualAreaLines:    ctx.DualAreaLines(),
		ScheduledMinutes: analytics.ScheduledMinutes(ctx.Shifts, shiftID, shiftSelected, start, end),
	})
}

func processOee(ctx *Context) Result {
	calc := computeOEE(ctx)
	return ctx.result("kpi", "kpi", map[string]any{
		"value":             calc.OEE,
		"unit":              "%",
		"availability":      calc.Availability,
		"performance":       calc.Performance,
		"quality":           calc.Quality,
		"scheduled_minutes": calc.ScheduledMinutes,
		"downtime_minutes":  calc.DowntimeMinutes,
		"trend":             nil,
	})
}

func processAvailability(ctx *Context) Result {
	calc := computeOEE(ctx)
	return ctx.result("kpi", "kpi", map[string]any{
		"value":             calc.Availability,
		"unit":              "%",
		"scheduled_minutes": calc.ScheduledMinutes,
		"downtime_minutes":  calc.DowntimeMinutes,
		"trend":             nil,
	})
}

func processPerformance(ctx *Context) Result {
	calc := computeOEE(ctx)
	return ctx.result("kpi", "kpi", map[string]any{
		"value": calc.Performance,
		"unit":  "%",
		"trend": nil,
	})
}

func processQuality(ctx *Context) Result {
	calc := computeOEE(ctx)
	return ctx.result("kpi", "kpi", map[string]any{
		"value": calc.Quality,
		"unit":  "%",
		"trend": nil,
	})
}
