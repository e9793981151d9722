package globaldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

// LayoutRepository reads per-role dashboard templates.
type LayoutRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewLayoutRepository creates a layout repository over the global DB.
func NewLayoutRepository(db *database.DB, logger *logging.ChanneledLogger) *LayoutRepository {
	return &LayoutRepository{db: db, logger: logger}
}

// GetTemplate returns the dashboard template for (tenant_id, role). Role
// matching is case-insensitive. Returns (nil, nil) when no template row
// exists.
func (r *LayoutRepository) GetTemplate(ctx context.Context, tenantID int, role string) (*admin.DashboardTemplate, error) {
	start := time.Now()

	const sqlStr = `SELECT template_id, tenant_id, role_access, layout_config
		FROM dashboard_template
		WHERE tenant_id = ? AND LOWER(role_access) = LOWER(?)`

	var t admin.DashboardTemplate
	var layoutRaw []byte

	err := r.db.QueryRowContext(ctx, sqlStr, tenantID, role).Scan(
		&t.TemplateID, &t.TenantID, &t.RoleAccess, &layoutRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Dashboard template lookup failed",
			"tenantId", tenantID, "role", role, "error", err.Error())
		return nil, err
	}

	t.LayoutConfig = layoutRaw

	database.CheckAndLogSlowQuery(r.logger, "LAYOUT_TEMPLATE_LOOKUP", time.Since(start), "global")
	return &t, nil
}
