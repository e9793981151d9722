// Package interfaces defines the metadata cache contracts used by the
// dashboard pipeline.
package interfaces

import (
	"context"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
)

// MetadataCache serves per-tenant reference data snapshots. Readers get
// the last published snapshot without blocking; loads are serialized.
type MetadataCache interface {
	LoadForTenant(ctx context.Context, dbName string) error
	Refresh(ctx context.Context, dbName string) error
	Snapshot(dbName string) (*types.Snapshot, bool)
	Info(dbName string) types.CacheInfo
	Invalidate(dbName string)
	Clear()
	LoadedTenants() []string
}

// SnapshotLoader builds a complete snapshot for one tenant database.
// Implementations fetch the tenant reference tables and the global
// widget catalog.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, dbName string) (*types.Snapshot, error)
}
