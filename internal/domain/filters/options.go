package filters

import (
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/domain/registry"
)

// DropdownFilter validates a single value against its option list.
// Options load from the reference snapshot or from static ui_config
// entries; production line options include group aliases.
type DropdownFilter struct {
	config Config
	ref    Reference

	cachedOptions []FilterOption
	optionsLoaded bool
}

func (f *DropdownFilter) Config() Config { return f.config }

func (f *DropdownFilter) Default() any { return f.config.DefaultValue }

// Options returns the selectable options. Results without a cascade
// parent are cached for the lifetime of this instance.
func (f *DropdownFilter) Options(parentValues map[string]any) []FilterOption {
	if parentValues == nil && f.optionsLoaded {
		return f.cachedOptions
	}
	opts := f.loadOptions(parentValues)
	if parentValues == nil {
		f.cachedOptions = opts
		f.optionsLoaded = true
	}
	return opts
}

func (f *DropdownFilter) Validate(value any) bool {
	if value == nil {
		return !f.config.Required
	}
	for _, o := range f.Options(nil) {
		if sameValue(o.Value, value) {
			return true
		}
	}
	return false
}

// ToSQLClause emits "{param} = ?". Group values on the line selector
// expand to "line_id IN (…)" over the group's member lines.
func (f *DropdownFilter) ToSQLClause(value any) (string, []any) {
	if value == nil {
		return "", nil
	}

	if f.config.OptionsSource == "production_lines" {
		for _, o := range f.Options(nil) {
			if !sameValue(o.Value, value) {
				continue
			}
			if isGroup, _ := o.Extra["is_group"].(bool); isGroup {
				if ids, ok := o.Extra["line_ids"].([]int); ok {
					return inClause("line_id", ids)
				}
			}
			break
		}
	}

	return f.config.ParamName + " = ?", []any{value}
}

func (f *DropdownFilter) loadOptions(parentValues map[string]any) []FilterOption {
	if static, ok := f.config.UIConfig["static_options"].([]registry.Option); ok {
		opts := make([]FilterOption, 0, len(static))
		for _, o := range static {
			opts = append(opts, FilterOption{Value: o.Value, Label: o.Label})
		}
		return opts
	}

	if f.ref == nil {
		return nil
	}

	switch f.config.OptionsSource {
	case "production_lines":
		return f.loadProductionLineOptions()
	case "shifts":
		return f.loadShiftOptions()
	case "areas":
		return f.loadAreaOptions(parentValues)
	case "products":
		return f.loadProductOptions()
	default:
		return nil
	}
}

// loadProductionLineOptions builds the line selector: an "all" shortcut
// when more than one line is active, then group aliases from filter
// rows, then the individual lines.
func (f *DropdownFilter) loadProductionLineOptions() []FilterOption {
	lineIDs := f.ref.ActiveLineIDs()
	var options []FilterOption

	if len(lineIDs) > 1 {
		options = append(options, FilterOption{
			Value: "all",
			Label: "Todas las líneas",
			Extra: map[string]any{"is_group": true, "line_ids": lineIDs},
		})
	}

	for _, g := range LineGroups(f.ref.ActiveFilters()) {
		options = append(options, FilterOption{
			Value: g.Key,
			Label: g.Alias,
			Extra: map[string]any{"is_group": true, "line_ids": g.LineIDs},
		})
	}

	for _, id := range lineIDs {
		line, ok := f.ref.Line(id)
		if !ok {
			continue
		}
		options = append(options, FilterOption{
			Value: id,
			Label: line.LineName,
			Extra: map[string]any{
				"is_group":           false,
				"line_ids":           nil,
				"line_code":          line.LineCode,
				"downtime_threshold": line.DowntimeThreshold,
			},
		})
	}

	return options
}

func (f *DropdownFilter) loadShiftOptions() []FilterOption {
	shifts := f.ref.ActiveShifts()
	options := make([]FilterOption, 0, len(shifts))
	for _, s := range shifts {
		options = append(options, FilterOption{
			Value: s.ShiftID,
			Label: s.ShiftName,
			Extra: map[string]any{"start_time": s.StartTime, "end_time": s.EndTime},
		})
	}
	return options
}

func (f *DropdownFilter) loadAreaOptions(parentValues map[string]any) []FilterOption {
	areas := f.ref.AllAreas()

	if f.config.DependsOn == "line_id" && parentValues != nil {
		if lid, ok := toInt(parentValues["line_id"]); ok {
			filtered := areas[:0:0]
			for _, a := range areas {
				if a.LineID == lid {
					filtered = append(filtered, a)
				}
			}
			areas = filtered
		}
	}

	options := make([]FilterOption, 0, len(areas))
	for _, a := range areas {
		options = append(options, FilterOption{
			Value: a.AreaID,
			Label: a.AreaName,
			Extra: map[string]any{"area_type": a.AreaType, "line_id": a.LineID},
		})
	}
	return options
}

func (f *DropdownFilter) loadProductOptions() []FilterOption {
	products := f.ref.AllProducts()
	options := make([]FilterOption, 0, len(products))
	for _, p := range products {
		options = append(options, FilterOption{
			Value: p.ProductID,
			Label: p.ProductName,
			Extra: map[string]any{
				"product_code":   p.ProductCode,
				"product_weight": p.ProductWeight,
				"product_color":  p.ProductColor,
			},
		})
	}
	return options
}

// MultiselectFilter validates a list of values against the same option
// loaders as DropdownFilter.
type MultiselectFilter struct {
	DropdownFilter
}

func (f *MultiselectFilter) Default() any {
	d := f.config.DefaultValue
	if d == nil {
		return []any{}
	}
	if list, ok := toAnyList(d); ok {
		return list
	}
	return []any{d}
}

func (f *MultiselectFilter) Validate(value any) bool {
	if value == nil {
		return !f.config.Required
	}
	list, ok := toAnyList(value)
	if !ok {
		return false
	}
	if len(list) == 0 {
		return !f.config.Required
	}
	opts := f.Options(nil)
	for _, v := range list {
		found := false
		for _, o := range opts {
			if sameValue(o.Value, v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *MultiselectFilter) ToSQLClause(value any) (string, []any) {
	list, ok := toAnyList(value)
	if !ok || len(list) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(list))
	for i := range list {
		placeholders[i] = "?"
	}
	return f.config.ParamName + " IN (" + strings.Join(placeholders, ", ") + ")", list
}

// inClause expands an integer list into "col IN (?, …)" with args.
func inClause(column string, values []int) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return column + " IN (" + strings.Join(placeholders, ", ") + ")", args
}

// toAnyList normalizes the list shapes JSON decoding and internal
// callers produce.
func toAnyList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// toInt coerces decoded JSON scalars to int.
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
