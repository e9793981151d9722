package metadata

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

type staticProvider struct {
	db  *database.DB
	err error
}

func (p *staticProvider) TenantDB(ctx context.Context, dbName string) (*database.DB, error) {
	return p.db, p.err
}

func newTestLoader(t *testing.T) (*Loader, sqlmock.Sqlmock, sqlmock.Sqlmock) {
	t.Helper()

	tenantDB, tenantMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { tenantDB.Close() })

	globalDB, globalMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { globalDB.Close() })

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	require.NoError(t, err)

	loader := NewLoader(
		&staticProvider{db: &database.DB{DB: tenantDB}},
		&database.DB{DB: globalDB},
		logger,
		performance.NewTracker(nil),
	)
	return loader, tenantMock, globalMock
}

func expectReferenceTables(tenantMock, globalMock sqlmock.Sqlmock) {
	tenantMock.ExpectQuery(regexp.QuoteMeta("FROM production_line WHERE is_active = 1")).
		WillReturnRows(sqlmock.NewRows([]string{
			"line_id", "line_name", "line_code", "is_active",
			"availability", "performance", "downtime_threshold", "auto_detect_downtime",
		}).
			AddRow(1, "Encajado", "ENC", true, 85.5, 92.0, 300, true).
			AddRow(2, "Etiquetado", nil, true, nil, nil, nil, nil))

	tenantMock.ExpectQuery(regexp.QuoteMeta("coord_x1, coord_y1, coord_x2, coord_y2 FROM area")).
		WillReturnRows(sqlmock.NewRows([]string{
			"area_id", "line_id", "area_name", "area_type", "area_order",
			"coord_x1", "coord_y1", "coord_x2", "coord_y2",
		}).
			AddRow(10, 1, "Entrada Encajado", "input", 1, 0.1, 0.2, 0.8, 0.9).
			AddRow(11, 1, "Salida Encajado", nil, nil, nil, nil, nil, nil))

	tenantMock.ExpectQuery(regexp.QuoteMeta("production_std, product_per_batch FROM product")).
		WillReturnRows(sqlmock.NewRows([]string{
			"product_id", "product_name", "product_code",
			"product_weight", "product_color", "production_std", "product_per_batch",
		}).
			AddRow(100, "Botella 1L", "B1L", 1.5, "#3b82f6", 1200.0, 12).
			AddRow(101, "Garrafa 5L", nil, nil, nil, nil, nil))

	tenantMock.ExpectQuery(regexp.QuoteMeta("FROM shift WHERE shift_status = 1")).
		WillReturnRows(sqlmock.NewRows([]string{
			"shift_id", "shift_name", "description", "shift_status",
			"days_implemented", "start_time", "end_time", "is_overnight",
		}).
			AddRow(1, "Mañana", "Turno de mañana", true, []byte(`["monday","tuesday"]`), "06:00:00", "14:00:00", false).
			AddRow(2, "Noche", nil, true, []byte(`{"monday":true,"friday":true}`), "22:00:00", "06:00:00", true))

	tenantMock.ExpectQuery(regexp.QuoteMeta("FROM filter WHERE filter_status = 1 ORDER BY display_order")).
		WillReturnRows(sqlmock.NewRows([]string{
			"filter_id", "filter_name", "description", "filter_status",
			"display_order", "additional_filter",
		}).
			AddRow(1, "DateRangeFilter", nil, true, 1, nil).
			AddRow(2, "ProductionLineFilter", "Selector de línea", true, 2, []byte(`{"alias":"Envasado"}`)).
			AddRow(3, "AreaFilter", nil, true, 3, []byte(`{malformado`)))

	tenantMock.ExpectQuery(regexp.QuoteMeta("SELECT failure_id, type_failure, description FROM failure")).
		WillReturnRows(sqlmock.NewRows([]string{"failure_id", "type_failure", "description"}).
			AddRow(2, "Mecánica", "Fallo mecánico").
			AddRow(4, "Eléctrica", nil))

	tenantMock.ExpectQuery(regexp.QuoteMeta("has_solution, solution FROM incident")).
		WillReturnRows(sqlmock.NewRows([]string{
			"incident_id", "failure_id", "incident_code", "description", "has_solution", "solution",
		}).
			AddRow(5, 2, "INC-05", "Atasco en cinta", true, "Reiniciar cinta").
			AddRow(9, 4, nil, nil, nil, nil))

	globalMock.ExpectQuery(regexp.QuoteMeta("SELECT widget_id, widget_name, description FROM widget_catalog")).
		WillReturnRows(sqlmock.NewRows([]string{"widget_id", "widget_name", "description"}).
			AddRow(1, "KpiOee", "OEE global").
			AddRow(7, "MetricsSummary", nil))
}

func TestLoadSnapshot(t *testing.T) {
	loader, tenantMock, globalMock := newTestLoader(t)
	expectReferenceTables(tenantMock, globalMock)

	snap, err := loader.LoadSnapshot(context.Background(), "tenant_acme")
	require.NoError(t, err)

	assert.Equal(t, "tenant_acme", snap.DBName)
	assert.WithinDuration(t, time.Now(), snap.LoadedAt, 5*time.Second)

	require.Len(t, snap.ProductionLines, 2)
	line := snap.ProductionLines[1]
	assert.Equal(t, "Encajado", line.LineName)
	assert.Equal(t, "ENC", line.LineCode)
	assert.Equal(t, 300, line.DowntimeThreshold)
	assert.True(t, line.AutoDetectDowntime)
	assert.InDelta(t, 85.5, line.Availability, 0.001)

	nullLine := snap.ProductionLines[2]
	assert.Empty(t, nullLine.LineCode)
	assert.Zero(t, nullLine.DowntimeThreshold)
	assert.False(t, nullLine.AutoDetectDowntime)

	require.Len(t, snap.Areas, 2)
	area := snap.Areas[10]
	assert.Equal(t, "input", area.AreaType)
	assert.Equal(t, 1, area.AreaOrder)
	require.NotNil(t, area.CoordX1)
	assert.InDelta(t, 0.1, *area.CoordX1, 0.001)
	assert.Nil(t, snap.Areas[11].CoordX1)
	assert.Empty(t, snap.Areas[11].AreaType)

	require.Len(t, snap.Products, 2)
	product := snap.Products[100]
	assert.Equal(t, "B1L", product.ProductCode)
	assert.InDelta(t, 1.5, product.ProductWeight, 0.001)
	assert.Equal(t, 12, product.ProductPerBatch)
	assert.Empty(t, snap.Products[101].ProductColor)

	require.Len(t, snap.Shifts, 2)
	assert.Equal(t, []string{"monday", "tuesday"}, snap.Shifts[1].DaysImplemented)
	assert.Equal(t, []string{"friday", "monday"}, snap.Shifts[2].DaysImplemented,
		"object form yields sorted day names")
	assert.True(t, snap.Shifts[2].IsOvernight)

	require.Len(t, snap.Filters, 3)
	assert.Equal(t, "Envasado", snap.Filters[2].AdditionalFilter["alias"])
	assert.Nil(t, snap.Filters[3].AdditionalFilter, "malformed additional_filter is dropped")

	require.Len(t, snap.Failures, 2)
	assert.Equal(t, "Mecánica", snap.Failures[2].TypeFailure)

	require.Len(t, snap.Incidents, 2)
	assert.True(t, snap.Incidents[5].HasSolution)
	assert.Equal(t, "Reiniciar cinta", snap.Incidents[5].Solution)
	assert.False(t, snap.Incidents[9].HasSolution)

	require.Len(t, snap.WidgetCatalog, 2)
	assert.Equal(t, "KpiOee", snap.WidgetCatalog[1].WidgetName)
	assert.Empty(t, snap.WidgetCatalog[7].Description)

	assert.NoError(t, tenantMock.ExpectationsWereMet())
	assert.NoError(t, globalMock.ExpectationsWereMet())
}

func TestLoadSnapshotTenantUnavailable(t *testing.T) {
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	require.NoError(t, err)

	loader := NewLoader(&staticProvider{err: assert.AnError}, nil, logger, performance.NewTracker(nil))

	_, err = loader.LoadSnapshot(context.Background(), "tenant_caido")
	require.Error(t, err)
	assert.ErrorContains(t, err, "tenant database tenant_caido unavailable")
}

func TestLoadSnapshotPropagatesQueryError(t *testing.T) {
	loader, tenantMock, _ := newTestLoader(t)

	tenantMock.ExpectQuery(regexp.QuoteMeta("FROM production_line WHERE is_active = 1")).
		WillReturnError(assert.AnError)

	_, err := loader.LoadSnapshot(context.Background(), "tenant_acme")
	require.Error(t, err)
	assert.ErrorContains(t, err, "loading production_line")
}

func TestParseDaysImplemented(t *testing.T) {
	assert.Nil(t, parseDaysImplemented(nil))
	assert.Nil(t, parseDaysImplemented([]byte(`not json`)))
	assert.Equal(t, []string{"monday", "friday"}, parseDaysImplemented([]byte(`["monday","friday"]`)))
	assert.Equal(t, []string{"friday", "monday"}, parseDaysImplemented([]byte(`{"monday":1,"friday":1}`)))
}
