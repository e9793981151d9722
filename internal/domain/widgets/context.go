// Package widgets implements the dashboard widget processors and the
// engine that dispatches them. Processors are dumb: they receive
// pre-scoped detection data, the unified downtime list, cleaned filter
// params and cache-derived reference maps, and return a JSON-ready
// result. They never touch the database or the cache directly.
package widgets

import (
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
)

// Context carries everything a widget needs to process its data. The
// engine populates it per widget; Data is already column-scoped to the
// widget's registry entry.
type Context struct {
	WidgetID    int
	WidgetName  string // registry class name
	DisplayName string

	Data         *detections.EnrichedSet
	Downtime     []detections.DowntimeEvent
	LinesQueried []int
	Params       filters.Params
	Config       map[string]any

	// Reference data resolved from the metadata cache by the caller.
	Lines       map[int]catalog.ProductionLine
	Shifts      map[int]catalog.Shift
	AreasByLine map[int][]catalog.Area
	Incidents   map[int]catalog.Incident
	Failures    map[int]catalog.Failure

	// Now anchors line status math; the engine sets it per batch so all
	// widgets in one request agree on the clock.
	Now time.Time
}

// HasDowntime reports whether any downtime events were supplied.
func (c *Context) HasDowntime() bool { return len(c.Downtime) > 0 }

// DualAreaLines returns the queried lines that record both input and
// output areas.
func (c *Context) DualAreaLines() []int {
	return analytics.LinesWithInputOutput(c.LinesQueried, c.AreasByLine)
}

func (c *Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c *Context) configString(key, fallback string) string {
	if v, ok := c.Config[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (c *Context) configInt(key string, fallback int) int {
	switch v := c.Config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
