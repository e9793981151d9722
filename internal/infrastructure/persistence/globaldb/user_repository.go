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

// UserRepository reads dashboard users for authentication.
type UserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewUserRepository creates a user repository over the global DB.
func NewUserRepository(db *database.DB, logger *logging.ChanneledLogger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// GetUserByUsername returns a user joined with its active tenant, or
// (nil, nil) when the username is unknown or the tenant is inactive.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*admin.User, *admin.Tenant, error) {
	start := time.Now()

	const sqlStr = "SELECT u.user_id, u.tenant_id, u.username, u.email, u.password, u.role, u.permissions, u.created_at, " +
		"t.company_name, t.associated_since, t.is_active, t.config_tenant " +
		"FROM `user` u JOIN tenant t ON t.tenant_id = u.tenant_id " +
		"WHERE u.username = ? AND t.is_active = 1"

	var u admin.User
	var t admin.Tenant
	var permissionsRaw, configRaw []byte
	var createdAt, associatedSince sql.NullTime

	err := r.db.QueryRowContext(ctx, sqlStr, username).Scan(
		&u.UserID, &u.TenantID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &permissionsRaw, &createdAt,
		&t.CompanyName, &associatedSince, &t.IsActive, &configRaw)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		r.logger.Database().Error("User lookup failed", "error", err.Error())
		return nil, nil, err
	}

	u.CreatedAt = createdAt.Time
	if len(permissionsRaw) > 0 {
		var perms []string
		if err := json.Unmarshal(permissionsRaw, &perms); err == nil {
			u.Permissions = perms
		}
	}

	t.TenantID = u.TenantID
	t.AssociatedSince = associatedSince.Time
	if len(configRaw) > 0 {
		var cfg map[string]any
		if err := json.Unmarshal(configRaw, &cfg); err == nil {
			t.ConfigTenant = cfg
		}
	}

	database.CheckAndLogSlowQuery(r.logger, "USER_LOOKUP", time.Since(start), "global")
	return &u, &t, nil
}

// RecordLogin appends a row to the user_login audit table. Failures are
// logged, not surfaced; auditing must not break authentication.
func (r *UserRepository) RecordLogin(ctx context.Context, userID int, username, ipAddress, userAgent string) {
	const sqlStr = `INSERT INTO user_login (user_id, username, ip_address, user_agent, login_at)
		VALUES (?, ?, ?, ?, NOW())`

	if _, err := r.db.ExecContext(ctx, sqlStr, userID, username, ipAddress, userAgent); err != nil {
		r.logger.Auth().Warn("Failed to record login", "userId", userID, "error", err.Error())
	}
}
