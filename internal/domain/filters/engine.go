package filters

import (
	"fmt"
	"log/slog"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/registry"
)

// Reference is the slice of cached reference data the filter engine
// needs. The metadata cache snapshot satisfies it.
type Reference interface {
	ActiveFilters() []catalog.FilterRow
	ActiveLineIDs() []int
	Line(lineID int) (catalog.ProductionLine, bool)
	ActiveShifts() []catalog.Shift
	AllAreas() []catalog.Area
	AllProducts() []catalog.Product
}

// Engine instantiates configured filters from cached rows plus the
// registry, resolves their options, and validates user input. Adding a
// filter type requires a registry entry, a Filter implementation and a
// DB row; the engine discovers it by class name.
type Engine struct {
	ref    Reference
	logger *slog.Logger
}

// NewEngine creates a filter engine over a reference snapshot.
func NewEngine(ref Reference, logger *slog.Logger) *Engine {
	return &Engine{ref: ref, logger: logger}
}

// build instantiates the concrete filter for one row. Rows whose class
// name is missing from the registry, or whose type has no
// implementation, are skipped with a warning.
func (e *Engine) build(row catalog.FilterRow) Filter {
	entry, ok := registry.LookupFilter(row.FilterName)
	if !ok {
		if e.logger != nil {
			e.logger.Warn("Filter class not in registry, skipped", "className", row.FilterName)
		}
		return nil
	}

	config := mergeConfig(row, entry)

	switch config.FilterType {
	case registry.FilterDateRange:
		return &DateRangeFilter{config: config}
	case registry.FilterDropdown:
		return &DropdownFilter{config: config, ref: e.ref}
	case registry.FilterMultiselect:
		return &MultiselectFilter{DropdownFilter{config: config, ref: e.ref}}
	case registry.FilterText:
		return &TextFilter{config: config}
	case registry.FilterNumber:
		return &NumberFilter{config: config}
	case registry.FilterToggle:
		return &ToggleFilter{config: config}
	default:
		if e.logger != nil {
			e.logger.Warn("No filter implementation for type", "filterType", config.FilterType)
		}
		return nil
	}
}

// All instantiates the active filters ordered by display_order. When
// filterIDs is non-nil only rows with a whitelisted filter_id are
// included; this is how layout_config narrows the filter set.
func (e *Engine) All(filterIDs []int) []Filter {
	var whitelist map[int]bool
	if filterIDs != nil {
		whitelist = make(map[int]bool, len(filterIDs))
		for _, id := range filterIDs {
			whitelist[id] = true
		}
	}

	var instances []Filter
	for _, row := range e.ref.ActiveFilters() {
		if whitelist != nil && !whitelist[row.FilterID] {
			continue
		}
		if f := e.build(row); f != nil {
			instances = append(instances, f)
		}
	}
	return instances
}

// ResolveAll returns the JSON-ready filters with resolved options.
func (e *Engine) ResolveAll(parentValues map[string]any, filterIDs []int) []Resolved {
	all := e.All(filterIDs)
	out := make([]Resolved, 0, len(all))
	for _, f := range all {
		out = append(out, resolve(f, parentValues))
	}
	return out
}

// ResolveOne resolves a single filter by class name.
func (e *Engine) ResolveOne(className string, parentValues map[string]any) (Resolved, bool) {
	f, ok := e.ByName(className)
	if !ok {
		return Resolved{}, false
	}
	return resolve(f, parentValues), true
}

// ByName finds one filter by its class name.
func (e *Engine) ByName(className string) (Filter, bool) {
	for _, f := range e.All(nil) {
		if f.Config().ClassName == className {
			return f, true
		}
	}
	return nil, false
}

// ByParam finds one filter by its HTTP parameter name.
func (e *Engine) ByParam(paramName string) (Filter, bool) {
	for _, f := range e.All(nil) {
		if f.Config().ParamName == paramName {
			return f, true
		}
	}
	return nil, false
}

// ValidateInput validates user parameters against every active filter.
// Missing values fall back to the filter default. Cleaned values are
// returned even when other parameters fail so callers can proceed
// best-effort.
func (e *Engine) ValidateInput(userParams map[string]any) ValidationResult {
	errors := make(map[string]string)
	cleaned := make(map[string]any)

	for _, f := range e.All(nil) {
		pname := f.Config().ParamName
		raw, provided := userParams[pname]
		if !provided || raw == nil {
			raw = f.Default()
		}

		if !f.Validate(raw) {
			errors[pname] = fmt.Sprintf("Valor inválido para %s", f.Config().ClassName)
			continue
		}
		cleaned[pname] = raw
	}

	return ValidationResult{
		Valid:   len(errors) == 0,
		Errors:  errors,
		Cleaned: cleaned,
	}
}
