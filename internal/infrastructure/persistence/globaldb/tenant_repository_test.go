package globaldb

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
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

var tenantColumns = []string{"tenant_id", "company_name", "associated_since", "is_active", "config_tenant"}

func newTestGlobalDB(t *testing.T) (*database.DB, sqlmock.Sqlmock, *logging.ChanneledLogger) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{DefaultLevel: slog.LevelError})
	require.NoError(t, err)

	return &database.DB{DB: mockDB}, mock, logger
}

func TestGetActiveTenants(t *testing.T) {
	db, mock, logger := newTestGlobalDB(t)
	repo := NewTenantRepository(db, logger)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT tenant_id, company_name, associated_since, is_active, config_tenant FROM tenant WHERE is_active = 1")).
		WillReturnRows(sqlmock.NewRows(tenantColumns).
			AddRow(3, "Acme SA", since, true, []byte(`{"db_name":"tenant_acme"}`)).
			AddRow(4, "Beta SL", nil, true, []byte(`{malformado`)).
			AddRow(5, "Gamma SC", since, true, nil))

	tenants, err := repo.GetActiveTenants(context.Background())
	require.NoError(t, err)
	require.Len(t, tenants, 3)

	assert.Equal(t, "Acme SA", tenants[0].CompanyName)
	assert.Equal(t, "tenant_acme", tenants[0].DBName())
	assert.Equal(t, since, tenants[0].AssociatedSince)

	assert.Nil(t, tenants[1].ConfigTenant, "malformed config_tenant is dropped, not fatal")
	assert.True(t, tenants[1].AssociatedSince.IsZero())
	assert.Nil(t, tenants[2].ConfigTenant)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTenantByID(t *testing.T) {
	db, mock, logger := newTestGlobalDB(t)
	repo := NewTenantRepository(db, logger)

	mock.ExpectQuery("FROM tenant WHERE tenant_id = \\?").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(tenantColumns).
			AddRow(3, "Acme SA", time.Now(), true, []byte(`{"db_name":"tenant_acme"}`)))

	tenant, err := repo.GetTenantByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, 3, tenant.TenantID)
	assert.Equal(t, "tenant_acme", tenant.DBName())
}

func TestGetTenantByIDAbsent(t *testing.T) {
	db, mock, logger := newTestGlobalDB(t)
	repo := NewTenantRepository(db, logger)

	mock.ExpectQuery("FROM tenant WHERE tenant_id = \\?").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(tenantColumns))

	tenant, err := repo.GetTenantByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, tenant)
}

func TestGetTemplate(t *testing.T) {
	db, mock, logger := newTestGlobalDB(t)
	repo := NewLayoutRepository(db, logger)

	layoutJSON := []byte(`{"enabled_widget_ids":[1,7]}`)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT template_id, tenant_id, role_access, layout_config FROM dashboard_template WHERE tenant_id = ? AND LOWER(role_access) = LOWER(?)")).
		WithArgs(3, "Viewer").
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "tenant_id", "role_access", "layout_config"}).
			AddRow(12, 3, "viewer", layoutJSON))

	tpl, err := repo.GetTemplate(context.Background(), 3, "Viewer")
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, 12, tpl.TemplateID)
	assert.Equal(t, "viewer", tpl.RoleAccess)
	assert.JSONEq(t, string(layoutJSON), string(tpl.LayoutConfig))
}

func TestGetTemplateAbsent(t *testing.T) {
	db, mock, logger := newTestGlobalDB(t)
	repo := NewLayoutRepository(db, logger)

	mock.ExpectQuery("FROM dashboard_template").
		WithArgs(3, "viewer").
		WillReturnRows(sqlmock.NewRows([]string{"template_id", "tenant_id", "role_access", "layout_config"}))

	tpl, err := repo.GetTemplate(context.Background(), 3, "viewer")
	require.NoError(t, err)
	assert.Nil(t, tpl)
}
