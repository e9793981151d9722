// Package stores provides the snapshot store backing the metadata cache.
package stores

import (
	"sync"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
)

// MetadataStore holds one published snapshot per tenant database.
// Snapshots are immutable; Set replaces the pointer so readers either
// see the old complete snapshot or the new complete one.
type MetadataStore struct {
	mu        sync.RWMutex
	snapshots map[string]*types.Snapshot
	logger    *logging.ChanneledLogger
}

// NewMetadataStore creates an empty snapshot store.
func NewMetadataStore(logger *logging.ChanneledLogger) *MetadataStore {
	return &MetadataStore{
		snapshots: make(map[string]*types.Snapshot),
		logger:    logger,
	}
}

// Get returns the published snapshot for a tenant database.
func (s *MetadataStore) Get(dbName string) (*types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[dbName]
	return snap, ok
}

// Set publishes a snapshot, replacing any previous one for the tenant.
func (s *MetadataStore) Set(dbName string, snap *types.Snapshot) {
	s.mu.Lock()
	s.snapshots[dbName] = snap
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Cache().Info("Published metadata snapshot",
			"dbName", dbName,
			"productionLines", len(snap.ProductionLines),
			"areas", len(snap.Areas),
			"products", len(snap.Products),
			"shifts", len(snap.Shifts),
			"filters", len(snap.Filters),
			"widgetCatalog", len(snap.WidgetCatalog),
		)
	}
}

// Delete removes the snapshot for a tenant database.
func (s *MetadataStore) Delete(dbName string) {
	s.mu.Lock()
	delete(s.snapshots, dbName)
	s.mu.Unlock()
}

// Clear removes all snapshots.
func (s *MetadataStore) Clear() {
	s.mu.Lock()
	s.snapshots = make(map[string]*types.Snapshot)
	s.mu.Unlock()
}

// TenantNames returns the db_names with a published snapshot.
func (s *MetadataStore) TenantNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	return names
}
