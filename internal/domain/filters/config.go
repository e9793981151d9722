package filters

import (
	"fmt"
	"strconv"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/registry"
)

// Config is the merged configuration for one filter instance, combining
// the tenant's filter row with its registry entry.
type Config struct {
	FilterID      int                 `json:"filter_id"`
	ClassName     string              `json:"class_name"`
	FilterType    registry.FilterType `json:"filter_type"`
	ParamName     string              `json:"param_name"`
	DisplayOrder  int                 `json:"display_order"`
	Description   string              `json:"description"`
	Placeholder   string              `json:"placeholder,omitempty"`
	DefaultValue  any                 `json:"default_value,omitempty"`
	Required      bool                `json:"required"`
	OptionsSource string              `json:"options_source,omitempty"`
	DependsOn     string              `json:"depends_on,omitempty"`
	UIConfig      map[string]any      `json:"ui_config,omitempty"`
}

// mergeConfig builds a Config from a cached filter row and its registry
// entry.
func mergeConfig(row catalog.FilterRow, entry registry.FilterEntry) Config {
	return Config{
		FilterID:      row.FilterID,
		ClassName:     row.FilterName,
		FilterType:    entry.FilterType,
		ParamName:     entry.ParamName,
		DisplayOrder:  row.DisplayOrder,
		Description:   row.Description,
		Placeholder:   entry.Placeholder,
		DefaultValue:  entry.DefaultValue,
		Required:      entry.Required,
		OptionsSource: entry.OptionsSource,
		DependsOn:     entry.DependsOn,
		UIConfig:      entry.UIConfig,
	}
}

// Filter is the behavior contract every configured filter satisfies.
// Validate accepts decoded JSON values; Options resolves selectable
// values, honoring cascade parents where the filter declares one.
// ToSQLClause emits this filter's WHERE fragment with ordered bind
// args, or ("", nil) when the filter does not contribute to SQL; the
// query builders remain the authoritative path for assembled
// statements.
type Filter interface {
	Config() Config
	Validate(value any) bool
	Default() any
	Options(parentValues map[string]any) []FilterOption
	ToSQLClause(value any) (string, []any)
}

// FilterOption is one selectable option with optional extra metadata.
type FilterOption struct {
	Value any            `json:"value"`
	Label string         `json:"label"`
	Extra map[string]any `json:"extra,omitempty"`
}

// Resolved is the JSON-ready form of a filter: its configuration plus
// resolved options and effective default.
type Resolved struct {
	Config
	Options      []FilterOption `json:"options"`
	DefaultValue any            `json:"default_value"`
}

// resolve serializes a filter with its options for the frontend.
func resolve(f Filter, parentValues map[string]any) Resolved {
	opts := f.Options(parentValues)
	if opts == nil {
		opts = []FilterOption{}
	}
	return Resolved{Config: f.Config(), Options: opts, DefaultValue: f.Default()}
}

// ValidationResult carries per-parameter errors plus the cleaned values.
// Cleaned is populated for every valid parameter even when other
// parameters fail, so callers can proceed best-effort.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Errors  map[string]string `json:"errors"`
	Cleaned map[string]any    `json:"cleaned"`
}

// sameValue compares a user value against an option value, tolerating
// the numeric and string forms JSON decoding produces.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if fmt.Sprint(a) == fmt.Sprint(b) {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

// toFloat coerces decoded JSON scalars to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
