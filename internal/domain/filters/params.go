package filters

import "time"

// Params is a cleaned filter dict as produced by ValidateInput. The
// typed getters tolerate the scalar shapes JSON decoding produces.
type Params map[string]any

// DateRange returns the parsed daterange bounds.
func (p Params) DateRange() (start, end time.Time, ok bool) {
	return DateRangeBounds(p["daterange"])
}

// LineValue returns the raw line_id value ("all", "group_X" or number).
func (p Params) LineValue() any { return p["line_id"] }

// LineIDList returns the explicit line_ids value when present.
func (p Params) LineIDList() any { return p["line_ids"] }

// ShiftID returns the selected shift.
func (p Params) ShiftID() (int, bool) {
	v, ok := p["shift_id"]
	if !ok || v == nil {
		return 0, false
	}
	return toInt(v)
}

// AreaIDs returns the selected area filter values.
func (p Params) AreaIDs() []int { return p.intList("area_ids") }

// ProductIDs returns the selected product filter values.
func (p Params) ProductIDs() []int { return p.intList("product_ids") }

// Interval returns the resampling interval, defaulting to "hour".
func (p Params) Interval() string {
	if s, ok := p["interval"].(string); ok && s != "" {
		return s
	}
	return "hour"
}

// CurveType returns the chart curve type, defaulting to "smooth".
func (p Params) CurveType() string {
	if s, ok := p["curve_type"].(string); ok && s != "" {
		return s
	}
	return "smooth"
}

// DowntimeThreshold returns the user threshold override in seconds.
func (p Params) DowntimeThreshold() (int, bool) {
	v, ok := p["downtime_threshold"]
	if !ok || v == nil {
		return 0, false
	}
	return toInt(v)
}

// ShowDowntime reports whether downtime overlays are requested.
// Defaults to true when the filter is absent.
func (p Params) ShowDowntime() bool {
	v, ok := p["show_downtime"]
	if !ok || v == nil {
		return true
	}
	b, isBool := v.(bool)
	if !isBool {
		return true
	}
	return b
}

// Search returns the free-text search value.
func (p Params) Search() string {
	s, _ := p["search"].(string)
	return s
}

func (p Params) intList(key string) []int {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := toAnyList(v)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		if n, ok := toInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}
