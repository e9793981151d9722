// Package tenant resolves per-tenant database credentials.
package tenant

import (
	"fmt"
	"strconv"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/security"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// resolveDSN builds the MySQL DSN for a tenant database. Connection
// overrides come from the tenant's config_tenant document; anything
// absent falls back to the shared tenant database settings from the
// environment.
func resolveDSN(t admin.Tenant, logger *logging.ChanneledLogger) (string, error) {
	dbName := t.DBName()
	if dbName == "" {
		return "", fmt.Errorf("tenant %d carries no db_name", t.TenantID)
	}

	host := config.TenantDBHost
	port := config.TenantDBPort
	user := config.TenantDBUser
	password := config.TenantDBPassword

	if v, ok := t.ConfigTenant["db_host"].(string); ok && v != "" {
		host = v
	}
	if v, ok := t.ConfigTenant["db_port"]; ok {
		port = coercePort(v, port)
	}
	if v, ok := t.ConfigTenant["db_user"].(string); ok && v != "" {
		user = v
	}
	if v, ok := t.ConfigTenant["db_password"].(string); ok && v != "" {
		password = decryptCredential(v, logger)
	}

	return database.DSN(user, password, host, port, dbName), nil
}

// decryptCredential decrypts a stored credential when an AES key is
// configured. Values that fail to decrypt are used as-is so plaintext
// registrations keep working.
func decryptCredential(stored string, logger *logging.ChanneledLogger) string {
	if config.AESKey == "" {
		return stored
	}
	plain, err := security.Decrypt(stored, config.AESKey)
	if err != nil {
		if logger != nil {
			logger.Tenant().Debug("Tenant credential is not AES-encrypted, using raw value")
		}
		return stored
	}
	return plain
}

// coercePort reads the JSON port value, which may arrive as a number or
// a string depending on how the tenant was registered.
func coercePort(v any, fallback int) int {
	switch p := v.(type) {
	case float64:
		return int(p)
	case string:
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	return fallback
}
