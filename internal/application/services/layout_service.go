package services

import (
	"context"
	"encoding/json"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// LayoutService resolves per-role dashboard layouts from the
// dashboard_template table. The layout_config JSON names the widget
// and filter IDs a role sees:
//
//	{"widgets": [1, 2, 3], "filters": [1, 2]}
type LayoutService struct {
	layouts     *globaldb.LayoutRepository
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewLayoutService creates the layout service.
func NewLayoutService(layouts *globaldb.LayoutRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *LayoutService {
	return &LayoutService{layouts: layouts, logger: logger, perfTracker: perfTracker}
}

// ResolvedWidget is a catalog entry resolved for a layout response.
type ResolvedWidget struct {
	WidgetID    int    `json:"widget_id"`
	WidgetName  string `json:"widget_name"`
	Description string `json:"description"`
}

// GetLayoutConfig loads and parses the template for (tenant_id, role).
// Role matching is case-insensitive. Returns nil when no template row
// exists.
func (s *LayoutService) GetLayoutConfig(ctx context.Context, dbName string, tenantID int, role string) (*admin.LayoutConfig, error) {
	marker := s.perfTracker.StartOperation("layout_fetch", dbName)
	defer s.perfTracker.CompleteOperation(marker)

	template, err := s.layouts.GetTemplate(ctx, tenantID, role)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if template == nil {
		marker.SetSuccess(true)
		return nil, nil
	}

	cfg := parseLayoutConfig(template.LayoutConfig)
	marker.SetSuccess(true)
	marker.AddMetadata("widget_count", len(cfg.EnabledWidgetIDs))
	return &cfg, nil
}

// ResolveWidgets maps widget IDs to their catalog entries, preserving
// the layout's order. Unknown IDs are logged and skipped.
func (s *LayoutService) ResolveWidgets(snap *types.Snapshot, widgetIDs []int) []ResolvedWidget {
	resolved := make([]ResolvedWidget, 0, len(widgetIDs))
	for _, wid := range widgetIDs {
		entry, ok := snap.Widget(wid)
		if !ok {
			s.logger.Analytics().Warn("Widget not in catalog", "widgetId", wid, "tenantId", snap.DBName)
			continue
		}
		resolved = append(resolved, ResolvedWidget{
			WidgetID:    entry.WidgetID,
			WidgetName:  entry.WidgetName,
			Description: entry.Description,
		})
	}
	return resolved
}

// GetResolvedLayout runs the full pipeline for the layout endpoint:
// load config, resolve widget metadata, return the response shape.
// Returns nil when no template exists for the tenant and role.
func (s *LayoutService) GetResolvedLayout(ctx context.Context, tenantCtx *tenant.Context, tenantID int, role string) (map[string]any, error) {
	cfg, err := s.GetLayoutConfig(ctx, tenantCtx.TenantID, tenantID, role)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, err
	}

	widgets := s.ResolveWidgets(snap, cfg.EnabledWidgetIDs)
	return map[string]any{
		"tenant_id":          tenantID,
		"role":               role,
		"enabled_widget_ids": cfg.EnabledWidgetIDs,
		"enabled_filter_ids": cfg.EnabledFilterIDs,
		"widgets":            widgets,
	}, nil
}

// parseLayoutConfig decodes the layout_config JSON column. Malformed
// or empty JSON yields an empty config rather than an error, so a bad
// template degrades to the no-widgets response.
func parseLayoutConfig(raw json.RawMessage) admin.LayoutConfig {
	cfg := admin.LayoutConfig{}
	if len(raw) == 0 {
		return cfg
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return cfg
	}

	cfg.Raw = decoded
	cfg.EnabledWidgetIDs = intListFrom(decoded["widgets"])
	cfg.EnabledFilterIDs = intListFrom(decoded["filters"])
	return cfg
}

// intListFrom coerces a decoded JSON array into ints, skipping
// anything that is not a number.
func intListFrom(raw any) []int {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		if n, ok := coerceInt(v); ok {
			out = append(out, n)
		}
	}
	return out
}
