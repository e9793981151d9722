// Package detections defines the detection fact rows flowing through the
// dashboard pipeline, their cache-enriched form, and downtime events from
// both the database and gap detection.
package detections

import "time"

// Column names of the master enriched schema. Widget data scoping and
// processor fallbacks are expressed against these names.
const (
	ColDetectionID   = "detection_id"
	ColDetectedAt    = "detected_at"
	ColAreaID        = "area_id"
	ColProductID     = "product_id"
	ColLineID        = "line_id"
	ColAreaName      = "area_name"
	ColAreaType      = "area_type"
	ColLineName      = "line_name"
	ColLineCode      = "line_code"
	ColProductName   = "product_name"
	ColProductCode   = "product_code"
	ColProductWeight = "product_weight"
	ColProductColor  = "product_color"
)

// AreaType values with pipeline meaning. Output rows count as produced
// units; lines that carry both input and output areas are dual-area.
const (
	AreaTypeInput  = "input"
	AreaTypeOutput = "output"
)

// Downtime event sources.
const (
	SourceDB         = "db"
	SourceCalculated = "calculated"
)

// Detection is one raw fact row. Each row is a single unit passing a
// sensor, so row counts are production counts. LineID is attached by the
// multi-line fetch; it is not a column of the per-line tables.
type Detection struct {
	DetectionID int64     `json:"detection_id"`
	DetectedAt  time.Time `json:"detected_at"`
	AreaID      int       `json:"area_id"`
	ProductID   *int      `json:"product_id,omitempty"`
	LineID      int       `json:"line_id"`
}

// EnrichedDetection is a detection row left-joined against the metadata
// cache. Unknown IDs carry sentinel names and zero weight.
type EnrichedDetection struct {
	Detection
	AreaName      string  `json:"area_name"`
	AreaType      string  `json:"area_type"`
	LineName      string  `json:"line_name"`
	LineCode      string  `json:"line_code"`
	ProductName   string  `json:"product_name"`
	ProductCode   string  `json:"product_code"`
	ProductWeight float64 `json:"product_weight"`
	ProductColor  string  `json:"product_color"`
}

// masterColumns is the full column set of an enriched result.
var masterColumns = []string{
	ColDetectionID, ColDetectedAt, ColAreaID, ColProductID, ColLineID,
	ColAreaName, ColAreaType, ColLineName, ColLineCode,
	ColProductName, ColProductCode, ColProductWeight, ColProductColor,
}

// EnrichedSet is an enriched detection result with column visibility.
// Widget data scoping narrows the visible columns without copying rows;
// processors consult Has before reading a column-backed field.
type EnrichedSet struct {
	rows    []EnrichedDetection
	columns map[string]bool
}

// NewEnrichedSet wraps rows with the full master column set visible.
func NewEnrichedSet(rows []EnrichedDetection) *EnrichedSet {
	cols := make(map[string]bool, len(masterColumns))
	for _, c := range masterColumns {
		cols[c] = true
	}
	return &EnrichedSet{rows: rows, columns: cols}
}

// EmptyEnrichedSet returns a set with no rows and no visible columns.
func EmptyEnrichedSet() *EnrichedSet {
	return &EnrichedSet{rows: nil, columns: map[string]bool{}}
}

// Rows returns the backing rows. Callers must not mutate them.
func (s *EnrichedSet) Rows() []EnrichedDetection {
	if s == nil {
		return nil
	}
	return s.rows
}

// Len returns the number of rows.
func (s *EnrichedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Empty reports whether the set has no rows.
func (s *EnrichedSet) Empty() bool { return s.Len() == 0 }

// Has reports whether a column is visible in this set.
func (s *EnrichedSet) Has(column string) bool {
	if s == nil {
		return false
	}
	return s.columns[column]
}

// Columns returns the visible column names in master order.
func (s *EnrichedSet) Columns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.columns))
	for _, c := range masterColumns {
		if s.columns[c] {
			out = append(out, c)
		}
	}
	return out
}

// Scope narrows visibility to required plus detected_at and line_id when
// those exist in this set. Requested columns absent from the set are
// dropped. An empty required list keeps the full set.
func (s *EnrichedSet) Scope(required []string) *EnrichedSet {
	if s == nil || len(required) == 0 {
		return s
	}
	cols := make(map[string]bool, len(required)+2)
	for _, c := range required {
		if s.columns[c] {
			cols[c] = true
		}
	}
	for _, c := range []string{ColDetectedAt, ColLineID} {
		if s.columns[c] {
			cols[c] = true
		}
	}
	return &EnrichedSet{rows: s.rows, columns: cols}
}

// DowntimeEvent is a single downtime interval on a line, either recorded
// in the tenant database or derived from detection gaps. Duration is in
// seconds. EventID is zero for calculated events and ReasonCode is nil
// when no incident was recorded.
type DowntimeEvent struct {
	EventID    int64     `json:"event_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   float64   `json:"duration"`
	ReasonCode *int      `json:"reason_code,omitempty"`
	IsManual   bool      `json:"is_manual"`
	LineID     int       `json:"line_id"`
	Source     string    `json:"source"`
	LineName   string    `json:"line_name,omitempty"`
}

// DurationMinutes returns the event duration in minutes.
func (e DowntimeEvent) DurationMinutes() float64 {
	return e.Duration / 60.0
}

// Overlaps reports whether two half-open [start, end) intervals on the
// same line intersect.
func (e DowntimeEvent) Overlaps(other DowntimeEvent) bool {
	if e.LineID != other.LineID {
		return false
	}
	return e.StartTime.Before(other.EndTime) && e.EndTime.After(other.StartTime)
}
