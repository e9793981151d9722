// Package services contains the application layer: resolvers and
// orchestrators that glue the cached metadata, the filter engine, the
// persistence repositories and the widget processors into the dashboard
// pipeline and its standalone endpoints.
package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
)

// LineResolver interprets the line_id / line_ids filter values and
// returns concrete production line IDs. Unresolvable values fall back
// to every active line rather than an empty result, so a bad selector
// degrades to the widest dashboard instead of a blank one.
type LineResolver struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewLineResolver creates the line resolver.
func NewLineResolver(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *LineResolver {
	return &LineResolver{logger: logger, perfTracker: perfTracker}
}

// Resolve extracts line IDs from the cleaned filter params.
//
// Priority: explicit line_ids (list or CSV string), then line_id
// ("all", "group_{fid}", "group_{fid}_{idx}" or a number), then all
// active lines from the snapshot.
func (r *LineResolver) Resolve(snap *types.Snapshot, cleaned filters.Params) []int {
	marker := r.perfTracker.StartOperation("resolve_lines", snap.DBName)
	defer r.perfTracker.CompleteOperation(marker)

	ids := r.resolve(snap, cleaned)

	marker.SetSuccess(true)
	marker.AddMetadata("line_count", len(ids))
	return ids
}

func (r *LineResolver) resolve(snap *types.Snapshot, cleaned filters.Params) []int {
	if ids, ok := parseLineIDValues(cleaned.LineIDList()); ok {
		return ids
	}

	raw := cleaned.LineValue()
	if raw == nil {
		return snap.ActiveLineIDs()
	}

	if s, ok := raw.(string); ok {
		if s == "all" {
			return snap.ActiveLineIDs()
		}
		if strings.HasPrefix(s, "group_") {
			return r.resolveGroup(snap, s)
		}
	}

	if n, ok := coerceInt(raw); ok {
		return []int{n}
	}

	r.logger.Analytics().Warn("Cannot parse line_id, falling back to all active lines",
		"value", fmt.Sprintf("%v", raw), "tenantId", snap.DBName)
	return snap.ActiveLineIDs()
}

// resolveGroup maps a group selector to the line IDs stored in the
// filter row's additional_filter JSON. Any miss along the way falls
// back to all active lines.
func (r *LineResolver) resolveGroup(snap *types.Snapshot, key string) []int {
	fid, idx, ok := filters.SplitGroupKey(key)
	if !ok {
		return snap.ActiveLineIDs()
	}

	row, ok := snap.Filter(fid)
	if !ok {
		r.logger.Analytics().Warn("Group references unknown filter, falling back to all active lines",
			"group", key, "tenantId", snap.DBName)
		return snap.ActiveLineIDs()
	}

	ids, ok := filters.GroupLineIDs(row, idx)
	if !ok {
		r.logger.Analytics().Warn("Group carries no line_ids, falling back to all active lines",
			"group", key, "tenantId", snap.DBName)
		return snap.ActiveLineIDs()
	}
	return ids
}

// parseLineIDValues coerces an explicit line_ids value. Accepts a JSON
// array of numbers or a CSV string; anything else reports no value so
// resolution continues with line_id.
func parseLineIDValues(raw any) ([]int, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		parts := strings.Split(v, ",")
		ids := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, false
			}
			ids = append(ids, n)
		}
		return ids, true
	case []int:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		ids := make([]int, 0, len(v))
		for _, item := range v {
			n, ok := coerceInt(item)
			if !ok {
				return nil, false
			}
			ids = append(ids, n)
		}
		return ids, true
	default:
		return nil, false
	}
}

// coerceInt accepts the integer shapes JSON decoding and query strings
// produce.
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
