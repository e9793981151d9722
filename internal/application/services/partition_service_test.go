package services

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/notifications"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

const partitionListSQL = "FROM INFORMATION_SCHEMA.PARTITIONS"

func newTestPartitionService(t *testing.T) *PartitionService {
	t.Helper()
	logger := testServiceLogger(t)
	return NewPartitionService(nil, NewTableResolver(logger), notifications.NewService(logger), logger, performance.NewTracker(nil))
}

func partitionNameRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"PARTITION_NAME"})
	for _, name := range names {
		rows.AddRow(name)
	}
	return rows
}

func TestEnsureForLineUnknownLine(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	_, _, err := svc.EnsureForLine(context.Background(), tenantCtx, 99, 3)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureForLineUnpartitionedTable(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows())

	table, created, err := svc.EnsureForLine(context.Background(), tenantCtx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "detection_line_encajado", table)
	assert.Empty(t, created, "unpartitioned tables are left to the DBA")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureForLineCreatesPartitions(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows("pmax"))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))

	table, created, err := svc.EnsureForLine(context.Background(), tenantCtx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "detection_line_encajado", table)
	require.Len(t, created, 2, "current month plus one ahead")
	for _, name := range created {
		assert.Regexp(t, `^p\d{6}$`, name)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureForLineDefaultsMonthsAhead(t *testing.T) {
	prev := config.PartitionMonthsAhead
	config.PartitionMonthsAhead = 1
	t.Cleanup(func() { config.PartitionMonthsAhead = prev })

	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows("pmax"))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))

	_, created, err := svc.EnsureForLine(context.Background(), tenantCtx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForLine(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows("p202601", "p202602", "pmax"))

	table, parts, err := svc.ListForLine(context.Background(), tenantCtx, 1)
	require.NoError(t, err)
	assert.Equal(t, "detection_line_encajado", table)
	assert.Equal(t, []string{"p202601", "p202602", "pmax"}, parts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForLineUnknownLine(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	_, _, err := svc.ListForLine(context.Background(), tenantCtx, 99)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepTenant(t *testing.T) {
	prev := config.PartitionMonthsAhead
	config.PartitionMonthsAhead = 1
	t.Cleanup(func() { config.PartitionMonthsAhead = prev })

	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows("pmax"))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("REORGANIZE PARTITION pmax INTO").WillReturnResult(sqlmock.NewResult(0, 0))

	// p200001 sits past any plausible retention cutoff.
	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows("p200001", "pmax"))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE detection_line_encajado DROP PARTITION p200001")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.SweepTenant(context.Background(), tenantCtx)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepTenantKeepsFirstError(t *testing.T) {
	snap := pipelineSnapshot()
	snap.ProductionLines[2] = catalog.ProductionLine{
		LineID: 2, LineName: "Paletizado", LineCode: "PAL",
		AutoDetectDowntime: true, DowntimeThreshold: 300,
	}

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	tenantCtx := testTenantContext(t, snap)
	tenantCtx.Database = &database.DB{DB: mockDB}
	svc := newTestPartitionService(t)

	// Line 1 fails at the ensure step, line 2 still gets swept.
	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnError(assert.AnError)
	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_paletizado").
		WillReturnRows(partitionNameRows())
	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_paletizado").
		WillReturnRows(partitionNameRows())

	err = svc.SweepTenant(context.Background(), tenantCtx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "ensure detection_line_encajado")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepTenantRetentionError(t *testing.T) {
	svc := newTestPartitionService(t)
	tenantCtx, mock := newPipelineContext(t)

	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnRows(partitionNameRows())
	mock.ExpectQuery(regexp.QuoteMeta(partitionListSQL)).
		WithArgs("detection_line_encajado").
		WillReturnError(assert.AnError)

	err := svc.SweepTenant(context.Background(), tenantCtx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "retention detection_line_encajado")
	assert.NoError(t, mock.ExpectationsWereMet())
}
