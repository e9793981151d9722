package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

var detectionColumns = []string{"detection_id", "detected_at", "area_id", "product_id"}

var downtimeEventColumns = []string{
	"event_id", "last_detection_id", "start_time", "end_time",
	"duration_seconds", "reason_code", "reason", "is_manual", "created_at",
}

var layoutTemplateColumns = []string{"template_id", "tenant_id", "role_access", "layout_config"}

func testHandlerLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	require.NoError(t, err)
	return logger
}

type snapshotLoaderFunc func(context.Context, string) (*types.Snapshot, error)

func (f snapshotLoaderFunc) LoadSnapshot(ctx context.Context, dbName string) (*types.Snapshot, error) {
	return f(ctx, dbName)
}

// handlerSnapshot carries one active line with its areas, products,
// shifts, filter rows and a two-widget catalog, enough cached state for
// every endpoint under test.
func handlerSnapshot() *types.Snapshot {
	return &types.Snapshot{
		DBName: "tenant_acme",
		ProductionLines: map[int]catalog.ProductionLine{
			1: {LineID: 1, LineName: "Encajado", LineCode: "ENC", IsActive: true, DowntimeThreshold: 300, AutoDetectDowntime: true},
		},
		Areas: map[int]catalog.Area{
			10: {AreaID: 10, LineID: 1, AreaName: "Entrada Encajado", AreaType: detections.AreaTypeInput, AreaOrder: 1},
			11: {AreaID: 11, LineID: 1, AreaName: "Salida Encajado", AreaType: detections.AreaTypeOutput, AreaOrder: 2},
		},
		Products: map[int]catalog.Product{
			100: {ProductID: 100, ProductName: "Botella 1L", ProductCode: "B1L", ProductWeight: 1.5, ProductColor: "#3b82f6"},
		},
		Shifts: map[int]catalog.Shift{
			1: {ShiftID: 1, ShiftName: "Mañana", StartTime: "08:00:00", EndTime: "16:00:00"},
		},
		Filters: map[int]catalog.FilterRow{
			1: {FilterID: 1, FilterName: "DateRangeFilter", FilterStatus: true, DisplayOrder: 1},
			2: {FilterID: 2, FilterName: "ProductionLineFilter", FilterStatus: true, DisplayOrder: 2},
			4: {FilterID: 4, FilterName: "AreaFilter", FilterStatus: true, DisplayOrder: 3},
		},
		WidgetCatalog: map[int]admin.WidgetCatalogEntry{
			1: {WidgetID: 1, WidgetName: "KpiOee"},
			7: {WidgetID: 7, WidgetName: "MetricsSummary", Description: "Resumen de métricas"},
		},
	}
}

// loadedTenantContext publishes snap through a real cache manager so
// Snapshot() behaves exactly as in production.
func loadedTenantContext(t *testing.T, snap *types.Snapshot) *tenant.Context {
	t.Helper()
	logger := testHandlerLogger(t)

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

// coldTenantContext has a cache manager with nothing published, for
// the cache-miss paths.
func coldTenantContext(t *testing.T) *tenant.Context {
	t.Helper()
	logger := testHandlerLogger(t)

	m := manager.NewManager(snapshotLoaderFunc(func(context.Context, string) (*types.Snapshot, error) {
		return nil, assert.AnError
	}), logger)

	return &tenant.Context{
		TenantID:     "tenant_frio",
		CacheManager: m,
		Logger:       logger,
		PerfTracker:  performance.NewTracker(nil),
	}
}

// sqlTenantContext attaches a sqlmock-backed database for endpoints
// that hit the tenant schema.
func sqlTenantContext(t *testing.T, snap *types.Snapshot) (*tenant.Context, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	tenantCtx := loadedTenantContext(t, snap)
	tenantCtx.Database = &database.DB{DB: mockDB}
	return tenantCtx, mock
}

// withTenant injects the tenant context the way the tenant middleware
// does, so handler tests skip header detection.
func withTenant(tenantCtx *tenant.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
