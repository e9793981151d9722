// Package registry holds the compile-time filter and widget registries.
// Tenant database rows reference these entries by class name only; the
// registry is the authoritative source of type information. Adding a
// filter or widget means one entry here, one processor, one DB row.
package registry

// FilterType selects the validation and option-loading behavior of a
// filter entry.
type FilterType string

const (
	FilterDateRange   FilterType = "daterange"
	FilterDropdown    FilterType = "dropdown"
	FilterMultiselect FilterType = "multiselect"
	FilterText        FilterType = "text"
	FilterNumber      FilterType = "number"
	FilterToggle      FilterType = "toggle"
)

// Option is a selectable value with its display label.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// FilterEntry is the registry metadata for one filter class.
type FilterEntry struct {
	FilterType    FilterType     `json:"filter_type"`
	ParamName     string         `json:"param_name"`
	OptionsSource string         `json:"options_source,omitempty"` // cache key, "" for static filters
	DefaultValue  any            `json:"default_value,omitempty"`
	Placeholder   string         `json:"placeholder,omitempty"`
	Required      bool           `json:"required"`
	DependsOn     string         `json:"depends_on,omitempty"` // parent param_name for cascading filters
	UIConfig      map[string]any `json:"ui_config,omitempty"`
}

var filterRegistry = map[string]FilterEntry{
	"DateRangeFilter": {
		FilterType: FilterDateRange,
		ParamName:  "daterange",
		Required:   true,
		UIConfig: map[string]any{
			"show_time":          true,
			"default_start_time": "00:00",
			"default_end_time":   "23:59",
		},
	},
	"ProductionLineFilter": {
		FilterType:    FilterDropdown,
		ParamName:     "line_id",
		OptionsSource: "production_lines",
		Placeholder:   "Seleccionar línea",
		Required:      true,
		UIConfig:      map[string]any{"supports_groups": true},
	},
	"ShiftFilter": {
		FilterType:    FilterDropdown,
		ParamName:     "shift_id",
		OptionsSource: "shifts",
		Placeholder:   "Todos los turnos",
	},
	"AreaFilter": {
		FilterType:    FilterMultiselect,
		ParamName:     "area_ids",
		OptionsSource: "areas",
		DefaultValue:  []any{},
		Placeholder:   "Todas las áreas",
		DependsOn:     "line_id",
	},
	"ProductFilter": {
		FilterType:    FilterMultiselect,
		ParamName:     "product_ids",
		OptionsSource: "products",
		DefaultValue:  []any{},
		Placeholder:   "Todos los productos",
	},
	"IntervalFilter": {
		FilterType:   FilterDropdown,
		ParamName:    "interval",
		DefaultValue: "hour",
		Required:     true,
		UIConfig: map[string]any{
			"static_options": []Option{
				{Value: "hour", Label: "Por hora"},
				{Value: "day", Label: "Por día"},
				{Value: "week", Label: "Por semana"},
				{Value: "month", Label: "Por mes"},
			},
		},
	},
	"CurveTypeFilter": {
		FilterType:   FilterDropdown,
		ParamName:    "curve_type",
		DefaultValue: "smooth",
		UIConfig: map[string]any{
			"static_options": []Option{
				{Value: "smooth", Label: "Suavizado"},
				{Value: "linear", Label: "Lineal"},
				{Value: "stepped", Label: "Escalonado"},
				{Value: "stacked", Label: "Apilado"},
			},
		},
	},
	"DowntimeThresholdFilter": {
		FilterType:   FilterNumber,
		ParamName:    "downtime_threshold",
		DefaultValue: 300,
		Placeholder:  "Segundos",
		DependsOn:    "line_id",
		UIConfig:     map[string]any{"min": 0, "step": 10, "unit": "s"},
	},
	"ShowDowntimeFilter": {
		FilterType:   FilterToggle,
		ParamName:    "show_downtime",
		DefaultValue: true,
		UIConfig:     map[string]any{"label": "Mostrar paradas"},
	},
	"SearchFilter": {
		FilterType:   FilterText,
		ParamName:    "search",
		DefaultValue: "",
		Placeholder:  "Buscar…",
		UIConfig:     map[string]any{"debounce_ms": 300},
	},
}

// LookupFilter returns the registry entry for a filter class name.
func LookupFilter(className string) (FilterEntry, bool) {
	entry, ok := filterRegistry[className]
	return entry, ok
}

// FilterClassNames returns every registered filter class name.
func FilterClassNames() []string {
	names := make([]string, 0, len(filterRegistry))
	for name := range filterRegistry {
		names = append(names, name)
	}
	return names
}
