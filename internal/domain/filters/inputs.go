package filters

import (
	"time"
)

// DateRangeFilter validates {start_date, end_date, start_time?,
// end_time?} values. Dates are ISO "2006-01-02"; times are "HH:MM".
type DateRangeFilter struct {
	config Config
}

func (f *DateRangeFilter) Config() Config { return f.config }

func (f *DateRangeFilter) Options(_ map[string]any) []FilterOption { return nil }

// Default returns the last seven days with the configured day bounds.
func (f *DateRangeFilter) Default() any {
	startTime := "00:00"
	endTime := "23:59"
	if v, ok := f.config.UIConfig["default_start_time"].(string); ok {
		startTime = v
	}
	if v, ok := f.config.UIConfig["default_end_time"].(string); ok {
		endTime = v
	}
	end := time.Now()
	start := end.AddDate(0, 0, -7)
	return map[string]any{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"start_time": startTime,
		"end_time":   endTime,
	}
}

func (f *DateRangeFilter) Validate(value any) bool {
	if value == nil {
		return !f.config.Required
	}
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	startRaw, ok := m["start_date"].(string)
	if !ok {
		return false
	}
	endRaw, ok := m["end_date"].(string)
	if !ok {
		return false
	}
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return false
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return false
	}
	if start.After(end) {
		return false
	}
	if start.Equal(end) {
		st := stringOr(m["start_time"], "00:00")
		et := stringOr(m["end_time"], "23:59")
		if st > et {
			return false
		}
	}
	return true
}

func (f *DateRangeFilter) ToSQLClause(value any) (string, []any) {
	if !f.Validate(value) {
		return "", nil
	}
	start, end, ok := DateRangeBounds(value)
	if !ok {
		return "", nil
	}
	return "detected_at BETWEEN ? AND ?", []any{start, end}
}

// DateRangeBounds parses a validated daterange value into concrete
// datetimes. Missing times default to 00:00 and 23:59.
func DateRangeBounds(value any) (start, end time.Time, ok bool) {
	m, isMap := value.(map[string]any)
	if !isMap {
		return time.Time{}, time.Time{}, false
	}
	startRaw, _ := m["start_date"].(string)
	endRaw, _ := m["end_date"].(string)
	startDate, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endDate, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	sh, sm, ok := parseClock(stringOr(m["start_time"], "00:00"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	eh, em, ok := parseClock(stringOr(m["end_time"], "23:59"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	start = time.Date(startDate.Year(), startDate.Month(), startDate.Day(), sh, sm, 0, 0, time.UTC)
	end = time.Date(endDate.Year(), endDate.Month(), endDate.Day(), eh, em, 0, 0, time.UTC)
	return start, end, true
}

// parseClock splits "HH:MM" into hour and minute.
func parseClock(clock string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// TextFilter validates free-text values with optional length bounds
// from ui_config.
type TextFilter struct {
	config Config
}

func (f *TextFilter) Config() Config { return f.config }

func (f *TextFilter) Options(_ map[string]any) []FilterOption { return nil }

func (f *TextFilter) Default() any {
	if s, ok := f.config.DefaultValue.(string); ok {
		return s
	}
	return ""
}

func (f *TextFilter) Validate(value any) bool {
	if value == nil || value == "" {
		return !f.config.Required
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	min := intFromUI(f.config.UIConfig, "min_length", 0)
	max := intFromUI(f.config.UIConfig, "max_length", 1000)
	return len(s) >= min && len(s) <= max
}

func (f *TextFilter) ToSQLClause(value any) (string, []any) {
	s, ok := value.(string)
	if !ok || s == "" {
		return "", nil
	}
	return f.config.ParamName + " LIKE ?", []any{"%" + s + "%"}
}

// NumberFilter validates numeric values against min/max bounds from
// ui_config. Numbers arrive as float64 from JSON but strings are
// accepted too.
type NumberFilter struct {
	config Config
}

func (f *NumberFilter) Config() Config { return f.config }

func (f *NumberFilter) Options(_ map[string]any) []FilterOption { return nil }

func (f *NumberFilter) Default() any {
	if f.config.DefaultValue != nil {
		return f.config.DefaultValue
	}
	return 0
}

func (f *NumberFilter) Validate(value any) bool {
	if value == nil {
		return !f.config.Required
	}
	v, ok := toFloat(value)
	if !ok {
		return false
	}
	if lo, exists := f.config.UIConfig["min"]; exists {
		if loF, ok := toFloat(lo); ok && v < loF {
			return false
		}
	}
	if hi, exists := f.config.UIConfig["max"]; exists {
		if hiF, ok := toFloat(hi); ok && v > hiF {
			return false
		}
	}
	return true
}

// ToSQLClause is empty: numeric filters like the downtime threshold are
// applied during processing, not in the WHERE clause.
func (f *NumberFilter) ToSQLClause(_ any) (string, []any) { return "", nil }

// ToggleFilter validates boolean values.
type ToggleFilter struct {
	config Config
}

func (f *ToggleFilter) Config() Config { return f.config }

func (f *ToggleFilter) Options(_ map[string]any) []FilterOption { return nil }

func (f *ToggleFilter) Default() any {
	if b, ok := f.config.DefaultValue.(bool); ok {
		return b
	}
	return false
}

func (f *ToggleFilter) Validate(value any) bool {
	if value == nil {
		return !f.config.Required
	}
	_, ok := value.(bool)
	return ok
}

func (f *ToggleFilter) ToSQLClause(_ any) (string, []any) { return "", nil }

// intFromUI reads an int-valued ui_config key with a fallback.
func intFromUI(ui map[string]any, key string, fallback int) int {
	if ui == nil {
		return fallback
	}
	if v, ok := ui[key]; ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return fallback
}
