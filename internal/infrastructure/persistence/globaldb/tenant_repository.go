// Package globaldb provides repositories over the global administration
// database: the tenant registry, dashboard users and per-role dashboard
// templates.
package globaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

// TenantRepository reads the tenant registry.
type TenantRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewTenantRepository creates a tenant repository over the global DB.
func NewTenantRepository(db *database.DB, logger *logging.ChanneledLogger) *TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

// GetActiveTenants returns every active tenant with its parsed
// config_tenant JSON.
func (r *TenantRepository) GetActiveTenants(ctx context.Context) ([]admin.Tenant, error) {
	start := time.Now()

	const sqlStr = `SELECT tenant_id, company_name, associated_since, is_active, config_tenant
		FROM tenant WHERE is_active = 1`

	rows, err := r.db.QueryContext(ctx, sqlStr)
	if err != nil {
		r.logger.Database().Error("Failed to query tenant registry", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	var tenants []admin.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "TENANT_REGISTRY_LIST", time.Since(start), "global")
	return tenants, nil
}

// GetTenantByID returns one tenant, or nil when absent.
func (r *TenantRepository) GetTenantByID(ctx context.Context, tenantID int) (*admin.Tenant, error) {
	const sqlStr = `SELECT tenant_id, company_name, associated_since, is_active, config_tenant
		FROM tenant WHERE tenant_id = ?`

	row := r.db.QueryRowContext(ctx, sqlStr, tenantID)
	t, err := scanTenant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (admin.Tenant, error) {
	var t admin.Tenant
	var associatedSince sql.NullTime
	var configRaw []byte

	if err := row.Scan(&t.TenantID, &t.CompanyName, &associatedSince, &t.IsActive, &configRaw); err != nil {
		return admin.Tenant{}, err
	}

	t.AssociatedSince = associatedSince.Time
	if len(configRaw) > 0 {
		var cfg map[string]any
		if err := json.Unmarshal(configRaw, &cfg); err == nil {
			t.ConfigTenant = cfg
		}
	}
	return t, nil
}
