package services

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

type snapshotLoaderFunc func(context.Context, string) (*types.Snapshot, error)

func (f snapshotLoaderFunc) LoadSnapshot(ctx context.Context, dbName string) (*types.Snapshot, error) {
	return f(ctx, dbName)
}

func widgetTestSnapshot() *types.Snapshot {
	snap := testSnapshot()
	snap.WidgetCatalog = map[int]admin.WidgetCatalogEntry{
		1: {WidgetID: 1, WidgetName: "KpiOee"},
		7: {WidgetID: 7, WidgetName: "MetricsSummary", Description: "Resumen de métricas"},
	}
	return snap
}

func testTenantContext(t *testing.T, snap *types.Snapshot) *tenant.Context {
	t.Helper()
	logger := testServiceLogger(t)

	m := manager.NewManager(snapshotLoaderFunc(func(context.Context, string) (*types.Snapshot, error) {
		return snap, nil
	}), logger)
	require.NoError(t, m.LoadForTenant(context.Background(), snap.DBName))

	return &tenant.Context{
		TenantID:     snap.DBName,
		CacheManager: m,
		Logger:       logger,
		PerfTracker:  performance.NewTracker(nil),
	}
}

func newTestWidgetResolver(t *testing.T) (*WidgetResolver, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := testServiceLogger(t)
	tracker := performance.NewTracker(nil)
	layouts := NewLayoutService(globaldb.NewLayoutRepository(&database.DB{DB: mockDB}, logger), logger, tracker)

	return NewWidgetResolver(layouts, logger, tracker), mock
}

func TestWidgetResolverExplicitIDs(t *testing.T) {
	resolver, mock := newTestWidgetResolver(t)
	tenantCtx := testTenantContext(t, widgetTestSnapshot())

	names, catalog, err := resolver.Resolve(context.Background(), tenantCtx, 3, "viewer", []int{7, 99, 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"MetricsSummary", "KpiOee"}, names, "unknown ids drop, order holds")
	assert.Len(t, catalog, 2)

	assert.NoError(t, mock.ExpectationsWereMet(), "explicit ids never hit the template table")
}

func TestWidgetResolverLayoutPath(t *testing.T) {
	resolver, mock := newTestWidgetResolver(t)
	tenantCtx := testTenantContext(t, widgetTestSnapshot())

	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_template")).
		WithArgs(3, "viewer").
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "tenant_id", "role_access", "layout_config"}).
			AddRow(12, 3, "viewer", []byte(`{"widgets":[1,7],"filters":[1]}`)))

	names, _, err := resolver.Resolve(context.Background(), tenantCtx, 3, "viewer", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"KpiOee", "MetricsSummary"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWidgetResolverNoTemplate(t *testing.T) {
	resolver, mock := newTestWidgetResolver(t)
	tenantCtx := testTenantContext(t, widgetTestSnapshot())

	mock.ExpectQuery(regexp.QuoteMeta("FROM dashboard_template")).
		WithArgs(3, "viewer").
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "tenant_id", "role_access", "layout_config"}))

	names, catalog, err := resolver.Resolve(context.Background(), tenantCtx, 3, "viewer", nil)
	require.NoError(t, err)
	assert.Empty(t, names, "no template means the empty dashboard response")
	assert.NotNil(t, catalog)
}

func TestWidgetResolverCacheNotLoaded(t *testing.T) {
	resolver, _ := newTestWidgetResolver(t)

	m := manager.NewManager(snapshotLoaderFunc(func(context.Context, string) (*types.Snapshot, error) {
		return nil, assert.AnError
	}), testServiceLogger(t))
	tenantCtx := &tenant.Context{
		TenantID:     "tenant_test",
		CacheManager: m,
		Logger:       testServiceLogger(t),
		PerfTracker:  performance.NewTracker(nil),
	}

	_, _, err := resolver.Resolve(context.Background(), tenantCtx, 3, "viewer", []int{1})
	assert.ErrorIs(t, err, manager.ErrCacheNotLoaded)
}
