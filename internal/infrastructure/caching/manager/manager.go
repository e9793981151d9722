// Package manager provides the metadata cache with tenant-scoped snapshot
// loading and lock-free reads.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/interfaces"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/stores"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
)

// ErrCacheNotLoaded is returned when a snapshot is requested for a
// tenant that has not been loaded yet.
var ErrCacheNotLoaded = errors.New("metadata cache not loaded for tenant")

var _ interfaces.MetadataCache = (*Manager)(nil)

// Manager coordinates snapshot loading. Reads go straight to the store;
// loads for the same tenant are serialized so concurrent first requests
// trigger a single database pass.
type Manager struct {
	store  *stores.MetadataStore
	loader interfaces.SnapshotLoader
	logger *logging.ChanneledLogger

	loadMu sync.Mutex
}

// NewManager creates a metadata cache manager around a snapshot loader.
func NewManager(loader interfaces.SnapshotLoader, logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing metadata cache manager")
	}
	return &Manager{
		store:  stores.NewMetadataStore(logger),
		loader: loader,
		logger: logger,
	}
}

// LoadForTenant loads the snapshot for a tenant database if it is not
// already published. Subsequent calls for the same tenant are no-ops.
func (m *Manager) LoadForTenant(ctx context.Context, dbName string) error {
	if _, ok := m.store.Get(dbName); ok {
		return nil
	}
	return m.load(ctx, dbName)
}

// Refresh force-reloads the snapshot for a tenant database.
func (m *Manager) Refresh(ctx context.Context, dbName string) error {
	return m.load(ctx, dbName)
}

func (m *Manager) load(ctx context.Context, dbName string) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	// Another request may have finished the load while we waited.
	if snap, ok := m.store.Get(dbName); ok && time.Since(snap.LoadedAt) < time.Second {
		return nil
	}

	start := time.Now()
	snap, err := m.loader.LoadSnapshot(ctx, dbName)
	if err != nil {
		if m.logger != nil {
			m.logger.LogError(logging.ChannelCache, "metadata_load", err, dbName)
		}
		return fmt.Errorf("load metadata snapshot for %s: %w", dbName, err)
	}

	m.store.Set(dbName, snap)

	if m.logger != nil {
		m.logger.LogTenantOperation("metadata_load", dbName, true, time.Since(start))
	}
	return nil
}

// Snapshot returns the published snapshot for a tenant database.
func (m *Manager) Snapshot(dbName string) (*types.Snapshot, bool) {
	return m.store.Get(dbName)
}

// MustSnapshot returns the published snapshot or ErrCacheNotLoaded.
func (m *Manager) MustSnapshot(dbName string) (*types.Snapshot, error) {
	snap, ok := m.store.Get(dbName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheNotLoaded, dbName)
	}
	return snap, nil
}

// Info summarizes the cached tables for a tenant database.
func (m *Manager) Info(dbName string) types.CacheInfo {
	snap, ok := m.store.Get(dbName)
	if !ok {
		return types.CacheInfo{Tables: map[string]types.TableInfo{}}
	}

	loadedAt := snap.LoadedAt.Format(time.RFC3339)
	age := float64(int(snap.AgeSeconds()*10)) / 10

	tables := map[string]types.TableInfo{
		"production_lines": {Count: len(snap.ProductionLines), LoadedAt: loadedAt, AgeSeconds: age},
		"areas":            {Count: len(snap.Areas), LoadedAt: loadedAt, AgeSeconds: age},
		"products":         {Count: len(snap.Products), LoadedAt: loadedAt, AgeSeconds: age},
		"shifts":           {Count: len(snap.Shifts), LoadedAt: loadedAt, AgeSeconds: age},
		"filters":          {Count: len(snap.Filters), LoadedAt: loadedAt, AgeSeconds: age},
		"failures":         {Count: len(snap.Failures), LoadedAt: loadedAt, AgeSeconds: age},
		"incidents":        {Count: len(snap.Incidents), LoadedAt: loadedAt, AgeSeconds: age},
		"widget_catalog":   {Count: len(snap.WidgetCatalog), LoadedAt: loadedAt, AgeSeconds: age},
	}

	return types.CacheInfo{CurrentTenant: snap.DBName, Tables: tables}
}

// Invalidate drops the snapshot for a tenant database. The next request
// for that tenant reloads it.
func (m *Manager) Invalidate(dbName string) {
	m.store.Delete(dbName)
	if m.logger != nil {
		m.logger.Cache().Info("Invalidated metadata snapshot", "dbName", dbName)
	}
}

// Clear drops all snapshots.
func (m *Manager) Clear() {
	m.store.Clear()
	if m.logger != nil {
		m.logger.Cache().Info("Cleared all metadata snapshots")
	}
}

// LoadedTenants returns the tenant db_names with published snapshots.
func (m *Manager) LoadedTenants() []string {
	return m.store.TenantNames()
}
