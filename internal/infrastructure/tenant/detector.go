// Package tenant provides tenant detection and validation.
package tenant

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
)

// ErrMissingTenantHeader reports a request that carries no tenant identity.
var ErrMissingTenantHeader = errors.New("missing X-Tenant-ID header")

// Detector resolves the tenant database name from HTTP requests.
type Detector struct {
	manager *Manager
	logger  *logging.ChanneledLogger
}

// NewDetector creates a detector bound to a manager's registry.
func NewDetector(manager *Manager, logger *logging.ChanneledLogger) *Detector {
	return &Detector{manager: manager, logger: logger}
}

// DetectTenant extracts the tenant database name from the request and
// validates it against the registry. The header is authoritative; the
// query parameter exists for clients that cannot set custom headers.
func (d *Detector) DetectTenant(c *gin.Context) (string, error) {
	tenantID := c.GetHeader("X-Tenant-ID")
	if tenantID == "" {
		tenantID = c.Query("tenant_db")
	}
	if tenantID == "" {
		return "", ErrMissingTenantHeader
	}

	if _, exists := d.manager.TenantByName(tenantID); !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}

	return tenantID, nil
}
