// Package tenant provides tenant context management for multi-tenant support.
package tenant

import (
	"fmt"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/interfaces"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/detections"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/partitions"
)

// Context holds tenant-specific request state. TenantID is the tenant
// database name, which keys all multi-tenant routing.
type Context struct {
	TenantID     string
	Tenant       admin.Tenant
	Database     *database.DB
	CacheManager interfaces.MetadataCache
	Logger       *logging.ChanneledLogger
	PerfTracker  *performance.Tracker
}

// Close releases per-request state. Pools are shared across requests
// and owned by the manager, so there is nothing to release here.
func (ctx *Context) Close() error {
	return nil
}

// GetTenantID returns the tenant database name for this context.
func (ctx *Context) GetTenantID() string {
	return ctx.TenantID
}

// Snapshot returns the published metadata snapshot for this tenant.
func (ctx *Context) Snapshot() (*types.Snapshot, error) {
	snap, ok := ctx.CacheManager.Snapshot(ctx.TenantID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", manager.ErrCacheNotLoaded, ctx.TenantID)
	}
	return snap, nil
}

// =============================================================================
// Repository Factory Methods
// =============================================================================

// DetectionRepo returns a detection repository bound to this tenant.
func (ctx *Context) DetectionRepo() *detections.DetectionRepository {
	return detections.NewDetectionRepository(ctx.TenantID, ctx.Database, ctx.Logger, ctx.PerfTracker)
}

// DowntimeRepo returns a downtime repository bound to this tenant.
func (ctx *Context) DowntimeRepo() *detections.DowntimeRepository {
	return detections.NewDowntimeRepository(ctx.TenantID, ctx.Database, ctx.Logger, ctx.PerfTracker)
}

// PartitionManager returns a partition manager bound to this tenant.
func (ctx *Context) PartitionManager() *partitions.Manager {
	return partitions.NewManager(ctx.TenantID, ctx.Database, ctx.Logger, ctx.PerfTracker)
}
