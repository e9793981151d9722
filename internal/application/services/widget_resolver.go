package services

import (
	"context"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// WidgetResolver translates (tenant_id, role, optional widget_ids)
// into the widget class names a dashboard request should render.
// Explicit widget IDs bypass the layout lookup; otherwise the
// dashboard_template for the tenant and role decides.
type WidgetResolver struct {
	layouts     *LayoutService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewWidgetResolver creates the widget resolver.
func NewWidgetResolver(layouts *LayoutService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *WidgetResolver {
	return &WidgetResolver{layouts: layouts, logger: logger, perfTracker: perfTracker}
}

// Resolve returns widget class names in layout order plus the catalog
// used to index results. An empty name list means the caller should
// answer with the empty dashboard response.
func (r *WidgetResolver) Resolve(ctx context.Context, tenantCtx *tenant.Context, tenantID int, role string, widgetIDs []int) ([]string, map[int]admin.WidgetCatalogEntry, error) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, nil, err
	}

	marker := r.perfTracker.StartOperation("resolve_widgets", tenantCtx.TenantID)
	defer r.perfTracker.CompleteOperation(marker)

	if len(widgetIDs) > 0 {
		names := r.idsToNames(snap, widgetIDs)
		marker.SetSuccess(true)
		marker.AddMetadata("source", "explicit")
		return names, snap.WidgetCatalog, nil
	}

	cfg, err := r.layouts.GetLayoutConfig(ctx, tenantCtx.TenantID, tenantID, role)
	if err != nil {
		marker.SetError(err)
		return nil, nil, err
	}
	if cfg == nil || len(cfg.EnabledWidgetIDs) == 0 {
		r.logger.Analytics().Warn("No layout for tenant and role",
			"tenantId", tenantID, "role", role, "db", tenantCtx.TenantID)
		marker.SetSuccess(true)
		return nil, snap.WidgetCatalog, nil
	}

	names := r.idsToNames(snap, cfg.EnabledWidgetIDs)
	marker.SetSuccess(true)
	marker.AddMetadata("source", "layout")
	return names, snap.WidgetCatalog, nil
}

// idsToNames maps widget IDs to class names, dropping unknown IDs with
// a warning so one stale layout entry never sinks the dashboard.
func (r *WidgetResolver) idsToNames(snap *types.Snapshot, widgetIDs []int) []string {
	names := make([]string, 0, len(widgetIDs))
	for _, wid := range widgetIDs {
		entry, ok := snap.Widget(wid)
		if !ok {
			r.logger.Analytics().Warn("Widget not in catalog", "widgetId", wid, "tenantId", snap.DBName)
			continue
		}
		names = append(names, entry.WidgetName)
	}
	return names
}
