package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

var pipelineColumns = []string{"detection_id", "detected_at", "area_id", "product_id"}

func pipelineSnapshot() *types.Snapshot {
	return &types.Snapshot{
		DBName: "tenant_test",
		ProductionLines: map[int]catalog.ProductionLine{
			1: {
				LineID: 1, LineName: "Encajado", LineCode: "ENC",
				AutoDetectDowntime: true, DowntimeThreshold: 300,
			},
		},
		Areas: map[int]catalog.Area{
			10: {AreaID: 10, LineID: 1, AreaName: "Entrada Encajado", AreaType: detections.AreaTypeInput},
		},
		Products: map[int]catalog.Product{
			100: {ProductID: 100, ProductName: "Botella 1L", ProductCode: "B1L", ProductWeight: 1.5, ProductColor: "#3b82f6"},
		},
		Shifts: map[int]catalog.Shift{
			1: {ShiftID: 1, ShiftName: "Mañana", StartTime: "08:00:00", EndTime: "16:00:00"},
		},
	}
}

func newPipelineContext(t *testing.T) (*tenant.Context, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	tenantCtx := testTenantContext(t, pipelineSnapshot())
	tenantCtx.Database = &database.DB{DB: mockDB}
	return tenantCtx, mock
}

func newTestDetectionService(t *testing.T) *DetectionService {
	t.Helper()
	return NewDetectionService(NewTableResolver(testServiceLogger(t)), testServiceLogger(t), performance.NewTracker(nil))
}

func TestGetEnrichedDetections(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM detection_line_encajado").
		WillReturnRows(sqlmock.NewRows(pipelineColumns).
			AddRow(1, at, 10, 100).
			AddRow(2, at.Add(time.Minute), 99, nil))

	set, err := svc.GetEnrichedDetections(context.Background(), tenantCtx, []int{1}, filters.Params{})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	rows := set.Rows()
	assert.Equal(t, "Entrada Encajado", rows[0].AreaName)
	assert.Equal(t, detections.AreaTypeInput, rows[0].AreaType)
	assert.Equal(t, "Botella 1L", rows[0].ProductName)
	assert.Equal(t, 1.5, rows[0].ProductWeight)
	assert.Equal(t, "Encajado", rows[0].LineName)
	assert.Equal(t, 1, rows[0].LineID)

	assert.Equal(t, "Desconocida", rows[1].AreaName, "unknown areas get sentinels")
	assert.Equal(t, "unknown", rows[1].AreaType)
	assert.Equal(t, "Desconocido", rows[1].ProductName)
	assert.Equal(t, "#888888", rows[1].ProductColor)
}

func TestGetEnrichedDetectionsNoLines(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)

	set, err := svc.GetEnrichedDetections(context.Background(), tenantCtx, nil, filters.Params{})
	require.NoError(t, err)
	assert.True(t, set.Empty())
	assert.NoError(t, mock.ExpectationsWereMet(), "no lines means no queries")
}

func TestGetEnrichedDetectionsNoRows(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery("FROM detection_line_encajado").
		WillReturnRows(sqlmock.NewRows(pipelineColumns))

	set, err := svc.GetEnrichedDetections(context.Background(), tenantCtx, []int{1}, filters.Params{})
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

func TestGetLineDetections(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM detection_line_encajado").
		WithArgs(int64(0), 50).
		WillReturnRows(sqlmock.NewRows(pipelineColumns).AddRow(1, at, 10, 100))

	set, err := svc.GetLineDetections(context.Background(), tenantCtx, 1, filters.Params{}, 50)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, 1, set.Rows()[0].LineID)
	assert.Equal(t, "Encajado", set.Rows()[0].LineName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLineDetectionsUnknownLine(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, _ := newPipelineContext(t)

	_, err := svc.GetLineDetections(context.Background(), tenantCtx, 99, filters.Params{}, 50)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestDetectionServiceCount(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(42))

	count, err := svc.CountDetections(context.Background(), tenantCtx, []int{1, 99}, filters.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), count.Total)
	assert.Equal(t, map[int]int64{1: 42}, count.PerLine, "lines without a table stay out of the map")
}

func TestGetDetectionSummary(t *testing.T) {
	svc := newTestDetectionService(t)
	tenantCtx, mock := newPipelineContext(t)
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM detection_line_encajado").
		WillReturnRows(sqlmock.NewRows(pipelineColumns).
			AddRow(1, at, 10, 100).
			AddRow(2, at.Add(time.Minute), 99, nil))

	summary, err := svc.GetDetectionSummary(context.Background(), tenantCtx, []int{1}, filters.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary["total"])
	assert.Equal(t, map[string]int{"input": 1, "unknown": 1}, summary["by_area_type"])
	assert.Equal(t, []int{1}, summary["lines_queried"])
}

func TestResolveShift(t *testing.T) {
	snap := pipelineSnapshot()

	shift := resolveShift(snap, filters.Params{"shift_id": 1.0})
	require.NotNil(t, shift)
	assert.Equal(t, "Mañana", shift.ShiftName)

	assert.Nil(t, resolveShift(snap, filters.Params{}))
	assert.Nil(t, resolveShift(snap, filters.Params{"shift_id": 99.0}), "unknown shifts mean no clause")
}
