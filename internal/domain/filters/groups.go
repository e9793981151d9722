// Package filters implements the configurable dashboard filters: merged
// registry and database configuration, per-type validation, option
// resolution from cached reference data, and user input cleaning.
package filters

import (
	"strconv"
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
)

// LineGroup is a named set of production lines parsed from a filter
// row's additional_filter JSON. Single groups are keyed
// "group_{filter_id}"; entries of a groups array are keyed
// "group_{filter_id}_{index}".
type LineGroup struct {
	Key     string `json:"key"`
	Alias   string `json:"alias"`
	LineIDs []int  `json:"line_ids"`
}

// LineGroups collects every line group defined across the given filter
// rows, in row order. Supported additional_filter shapes:
//
//	{"alias": "Fraccionado", "line_ids": [2,3,4]}
//	{"groups": [{"alias": "A", "line_ids": [1,2]}, ...]}
func LineGroups(rows []catalog.FilterRow) []LineGroup {
	var groups []LineGroup
	for _, row := range rows {
		af := row.AdditionalFilter
		if af == nil {
			continue
		}

		// Single-group shape requires both alias and line_ids.
		if alias, hasAlias := af["alias"].(string); hasAlias {
			if ids, ok := parseLineIDs(af["line_ids"]); ok {
				groups = append(groups, LineGroup{
					Key:     "group_" + strconv.Itoa(row.FilterID),
					Alias:   alias,
					LineIDs: ids,
				})
				continue
			}
		}

		rawGroups, ok := af["groups"].([]any)
		if !ok {
			continue
		}
		for idx, rawGroup := range rawGroups {
			g, ok := rawGroup.(map[string]any)
			if !ok {
				continue
			}
			ids, ok := parseLineIDs(g["line_ids"])
			if !ok {
				continue
			}
			alias, _ := g["alias"].(string)
			if alias == "" {
				continue
			}
			groups = append(groups, LineGroup{
				Key:     "group_" + strconv.Itoa(row.FilterID) + "_" + strconv.Itoa(idx),
				Alias:   alias,
				LineIDs: ids,
			})
		}
	}
	return groups
}

// SplitGroupKey parses a group value: "group_{fid}" yields (fid, -1)
// and "group_{fid}_{idx}" yields (fid, idx).
func SplitGroupKey(key string) (fid, idx int, ok bool) {
	parts := strings.Split(key, "_")
	switch len(parts) {
	case 2:
		fid, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, false
		}
		return fid, -1, true
	case 3:
		fid, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, false
		}
		idx, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, false
		}
		return fid, idx, true
	default:
		return 0, 0, false
	}
}

// GroupLineIDs extracts line IDs from a filter row's additional_filter.
// idx -1 selects the single-group shape; otherwise the idx-th entry of
// the groups array. Unlike option building, no alias is required here.
func GroupLineIDs(row catalog.FilterRow, idx int) ([]int, bool) {
	af := row.AdditionalFilter
	if af == nil {
		return nil, false
	}
	if idx < 0 {
		return parseLineIDs(af["line_ids"])
	}
	rawGroups, ok := af["groups"].([]any)
	if !ok || idx >= len(rawGroups) {
		return nil, false
	}
	g, ok := rawGroups[idx].(map[string]any)
	if !ok {
		return nil, false
	}
	return parseLineIDs(g["line_ids"])
}

// parseLineIDs coerces a decoded JSON value into a list of ints.
func parseLineIDs(raw any) ([]int, bool) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	ids := make([]int, 0, len(list))
	for _, v := range list {
		switch n := v.(type) {
		case float64:
			ids = append(ids, int(n))
		case int:
			ids = append(ids, n)
		case string:
			parsed, err := strconv.Atoi(n)
			if err != nil {
				return nil, false
			}
			ids = append(ids, parsed)
		default:
			return nil, false
		}
	}
	return ids, true
}
