// Package catalog defines the tenant-database metadata entities that the
// dashboard pipeline joins against: production lines, areas, products,
// shifts, filters, failures and incidents.
package catalog

import "strconv"

// ProductionLine is a physical production line with its detection table
// naming key (line_name) and OEE-relevant rates.
type ProductionLine struct {
	LineID             int     `json:"line_id"`
	LineName           string  `json:"line_name"`
	LineCode           string  `json:"line_code"`
	IsActive           bool    `json:"is_active"`
	Availability       float64 `json:"availability"`
	Performance        float64 `json:"performance"` // standard rate in units per minute
	DowntimeThreshold  int     `json:"downtime_threshold"` // seconds
	AutoDetectDowntime bool    `json:"auto_detect_downtime"`
}

// Area is a sensor position on a line. AreaType is "input", "output" or
// a site-specific value; a line with both input and output areas is a
// dual-area line and participates in quality math. Coordinates place the
// sensor on the plant layout view.
type Area struct {
	AreaID    int      `json:"area_id"`
	LineID    int      `json:"line_id"`
	AreaName  string   `json:"area_name"`
	AreaType  string   `json:"area_type"`
	AreaOrder int      `json:"area_order"`
	CoordX1   *float64 `json:"coord_x1,omitempty"`
	CoordY1   *float64 `json:"coord_y1,omitempty"`
	CoordX2   *float64 `json:"coord_x2,omitempty"`
	CoordY2   *float64 `json:"coord_y2,omitempty"`
}

// Product is a catalog product with per-unit weight and display color.
type Product struct {
	ProductID       int     `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductCode     string  `json:"product_code"`
	ProductWeight   float64 `json:"product_weight"` // kg per unit
	ProductColor    string  `json:"product_color"`
	ProductionStd   float64 `json:"production_std"`
	ProductPerBatch int     `json:"product_per_batch"`
}

// Shift is a scheduled working window. Times are "HH:MM:SS" strings as
// stored in MySQL TIME columns.
type Shift struct {
	ShiftID         int      `json:"shift_id"`
	ShiftName       string   `json:"shift_name"`
	Description     string   `json:"description"`
	ShiftStatus     bool     `json:"shift_status"`
	DaysImplemented []string `json:"days_implemented,omitempty"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	IsOvernight     bool     `json:"is_overnight"`
}

// parseClockMinutes converts "HH:MM" or "HH:MM:SS" to minutes since
// midnight. Malformed values yield 0.
func parseClockMinutes(clock string) int {
	if len(clock) < 5 {
		return 0
	}
	hh, err := strconv.Atoi(clock[0:2])
	if err != nil {
		return 0
	}
	mm, err := strconv.Atoi(clock[3:5])
	if err != nil {
		return 0
	}
	return hh*60 + mm
}

// StartMinutes returns the shift start as minutes since midnight.
func (s Shift) StartMinutes() int { return parseClockMinutes(s.StartTime) }

// EndMinutes returns the shift end as minutes since midnight.
func (s Shift) EndMinutes() int { return parseClockMinutes(s.EndTime) }

// Overnight reports whether the shift wraps past midnight. The stored
// flag wins; otherwise end <= start implies a wrap.
func (s Shift) Overnight() bool {
	if s.IsOvernight {
		return true
	}
	return s.EndMinutes() <= s.StartMinutes()
}

// DailyMinutes returns the shift duration for a single day. Overnight
// shifts contribute the minutes before and after midnight.
func (s Shift) DailyMinutes() int {
	start := s.StartMinutes()
	end := s.EndMinutes()
	if s.Overnight() {
		return (1440 - start) + end
	}
	return end - start
}

// FilterRow is a tenant-configured dashboard filter. FilterName matches
// a registry entry class name; AdditionalFilter carries per-tenant
// overrides merged into the registry defaults.
type FilterRow struct {
	FilterID         int            `json:"filter_id"`
	FilterName       string         `json:"filter_name"`
	Description      string         `json:"description"`
	FilterStatus     bool           `json:"filter_status"`
	DisplayOrder     int            `json:"display_order"`
	AdditionalFilter map[string]any `json:"additional_filter,omitempty"`
}

// Failure is a downtime failure category.
type Failure struct {
	FailureID   int    `json:"failure_id"`
	TypeFailure string `json:"type_failure"`
	Description string `json:"description"`
}

// Incident is a recorded downtime cause linked to a failure category.
// Downtime reason codes reference incidents by ID.
type Incident struct {
	IncidentID   int    `json:"incident_id"`
	FailureID    int    `json:"failure_id"`
	IncidentCode string `json:"incident_code"`
	Description  string `json:"description"`
	HasSolution  bool   `json:"has_solution"`
	Solution     string `json:"solution,omitempty"`
}
