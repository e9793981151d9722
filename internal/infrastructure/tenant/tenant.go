// Package tenant manages the tenant registry and per-tenant database
// pools, isolating multi-tenancy logic from the rest of the application.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/interfaces"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
)

// ErrUnknownTenant reports a tenant database name with no registry entry.
var ErrUnknownTenant = errors.New("unknown tenant")

// Manager coordinates tenant detection, registry lookups and tenant
// database pools. The registry is loaded from the global tenant table
// and keyed by each tenant's database name, which is the routing key
// carried on every request.
type Manager struct {
	repo         *globaldb.TenantRepository
	detector     *Detector
	cacheManager interfaces.MetadataCache
	perfTracker  *performance.Tracker

	registry   map[string]admin.Tenant
	registryMu sync.RWMutex

	pools       map[string]*database.DB
	poolMutexes sync.Map // Per-tenant mutexes for pool creation
	poolsMu     sync.RWMutex

	logger *logging.ChanneledLogger
}

// NewManager creates a tenant manager backed by the global tenant table.
func NewManager(repo *globaldb.TenantRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Manager {
	m := &Manager{
		repo:        repo,
		perfTracker: perfTracker,
		registry:    make(map[string]admin.Tenant),
		pools:       make(map[string]*database.DB),
		logger:      logger,
	}
	m.detector = NewDetector(m, logger)
	return m
}

// SetCacheManager wires the metadata cache after construction. The
// cache's snapshot loader needs this manager's tenant pools, so the two
// are built in sequence and joined here.
func (m *Manager) SetCacheManager(cache interfaces.MetadataCache) {
	m.cacheManager = cache
}

// GetCacheManager returns the metadata cache for external access.
func (m *Manager) GetCacheManager() interfaces.MetadataCache {
	return m.cacheManager
}

// GetDetector returns the detector for middleware access.
func (m *Manager) GetDetector() *Detector {
	return m.detector
}

// GetLogger returns the logger for middleware access.
func (m *Manager) GetLogger() *logging.ChanneledLogger {
	return m.logger
}

// GetPerfTracker returns the performance tracker for middleware access.
func (m *Manager) GetPerfTracker() *performance.Tracker {
	return m.perfTracker
}

// RefreshRegistry reloads the active tenant rows from the global
// database. Tenants without a db_name binding are skipped; they cannot
// serve requests until an operator completes their registration.
func (m *Manager) RefreshRegistry(ctx context.Context) error {
	tenants, err := m.repo.GetActiveTenants(ctx)
	if err != nil {
		return fmt.Errorf("refreshing tenant registry: %w", err)
	}

	registry := make(map[string]admin.Tenant, len(tenants))
	for _, t := range tenants {
		dbName := t.DBName()
		if dbName == "" {
			if m.logger != nil {
				m.logger.Tenant().Warn("Tenant carries no db_name, skipping",
					"tenantId", t.TenantID, "company", t.CompanyName)
			}
			continue
		}
		registry[dbName] = t
	}

	m.registryMu.Lock()
	m.registry = registry
	m.registryMu.Unlock()

	if m.logger != nil {
		m.logger.Tenant().Info("Tenant registry refreshed", "tenantCount", len(registry))
	}
	return nil
}

// TenantByName returns the registry row for a tenant database name.
func (m *Manager) TenantByName(dbName string) (admin.Tenant, bool) {
	m.registryMu.RLock()
	defer m.registryMu.RUnlock()
	t, ok := m.registry[dbName]
	return t, ok
}

// TenantNames returns the registered tenant database names, sorted.
func (m *Manager) TenantNames() []string {
	m.registryMu.RLock()
	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	m.registryMu.RUnlock()

	sort.Strings(names)
	return names
}

// GetActiveTenantCount returns the number of registered tenants.
func (m *Manager) GetActiveTenantCount() int {
	m.registryMu.RLock()
	defer m.registryMu.RUnlock()
	return len(m.registry)
}

// TenantDB returns the connection pool for a tenant database, creating
// it on first use. Pools are shared across requests and live until
// shutdown.
func (m *Manager) TenantDB(ctx context.Context, dbName string) (*database.DB, error) {
	m.poolsMu.RLock()
	if db, ok := m.pools[dbName]; ok {
		m.poolsMu.RUnlock()
		return db, nil
	}
	m.poolsMu.RUnlock()

	tenant, ok := m.TenantByName(dbName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, dbName)
	}

	mutexInterface, _ := m.poolMutexes.LoadOrStore(dbName, &sync.Mutex{})
	tenantMutex := mutexInterface.(*sync.Mutex)

	tenantMutex.Lock()
	defer tenantMutex.Unlock()

	// Another request may have created the pool while we waited.
	m.poolsMu.RLock()
	if db, ok := m.pools[dbName]; ok {
		m.poolsMu.RUnlock()
		return db, nil
	}
	m.poolsMu.RUnlock()

	dsn, err := resolveDSN(tenant, m.logger)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnectionWithLogger(dsn, dbName, m.logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to tenant database %s: %w", dbName, err)
	}

	m.poolsMu.Lock()
	m.pools[dbName] = db
	m.poolsMu.Unlock()

	return db, nil
}

// GetContext resolves the tenant for an HTTP request and returns its
// context.
func (m *Manager) GetContext(c *gin.Context) (*Context, error) {
	dbName, err := m.detector.DetectTenant(c)
	if err != nil {
		return nil, err
	}
	return m.NewContextFromID(c.Request.Context(), dbName)
}

// NewContextFromID creates a tenant context from a tenant database
// name. Background workers use this where no HTTP request exists.
func (m *Manager) NewContextFromID(ctx context.Context, dbName string) (*Context, error) {
	tenant, ok := m.TenantByName(dbName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, dbName)
	}

	db, err := m.TenantDB(ctx, dbName)
	if err != nil {
		return nil, err
	}

	return &Context{
		TenantID:     dbName,
		Tenant:       tenant,
		Database:     db,
		CacheManager: m.cacheManager,
		Logger:       m.logger,
		PerfTracker:  m.perfTracker,
	}, nil
}

// PreActivateAllTenants loads the registry and connects every tenant
// database during startup so the first request doesn't pay for pool
// creation.
func (m *Manager) PreActivateAllTenants(ctx context.Context) error {
	if err := m.RefreshRegistry(ctx); err != nil {
		return err
	}

	var failed []string
	for _, dbName := range m.TenantNames() {
		db, err := m.TenantDB(ctx, dbName)
		if err != nil {
			if m.logger != nil {
				m.logger.LogError(logging.ChannelTenant, "pre_activation", err, dbName)
			}
			failed = append(failed, dbName)
			continue
		}
		if err := database.TestConnectionWithLogger(db.DB, dbName, m.logger); err != nil {
			failed = append(failed, dbName)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("pre-activation failed for tenants: %v", failed)
	}
	return nil
}

// ValidatePreActivation verifies every registered tenant has a live
// pool after pre-activation.
func (m *Manager) ValidatePreActivation() error {
	names := m.TenantNames()
	if len(names) == 0 {
		if m.logger != nil {
			m.logger.Tenant().Warn("No tenants registered")
		}
		return nil
	}

	var missing []string
	m.poolsMu.RLock()
	for _, name := range names {
		if _, ok := m.pools[name]; !ok {
			missing = append(missing, name)
		}
	}
	m.poolsMu.RUnlock()

	if len(missing) > 0 {
		return fmt.Errorf("validation failed, %d tenants without a pool: %v", len(missing), missing)
	}

	if m.logger != nil {
		m.logger.Tenant().Info("Pre-activation validated", "tenantCount", len(names))
	}
	return nil
}

// Close closes all tenant pools.
func (m *Manager) Close() error {
	m.poolsMu.Lock()
	defer m.poolsMu.Unlock()

	for name, db := range m.pools {
		if err := db.Close(); err != nil && m.logger != nil {
			m.logger.Tenant().Warn("Failed to close tenant pool", "dbName", name, "error", err.Error())
		}
	}
	m.pools = make(map[string]*database.DB)
	return nil
}

// SetLogger sets the logger after container initialization.
func (m *Manager) SetLogger(logger *logging.ChanneledLogger) {
	m.logger = logger
	if m.detector != nil {
		m.detector.logger = logger
	}
}
