// Package performance provides performance monitoring data structures and
// utilities for tracking operation timings across the analytics backend.
package performance

import (
	"runtime"
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation   string         `json:"operation"`       // e.g., "dashboard:execute", "detections:fetch"
	TenantID    string         `json:"tenantId"`        // Tenant identifier for multi-tenant isolation
	StartTime   time.Time      `json:"startTime"`       // When the operation started
	EndTime     time.Time      `json:"endTime"`         // When the operation completed
	Duration    time.Duration  `json:"duration"`        // Total operation duration
	Success     bool           `json:"success"`         // Whether the operation completed successfully
	Error       string         `json:"error,omitempty"` // Error message if operation failed
	Metadata    map[string]any `json:"metadata"`        // Additional operation-specific data
	MemoryUsage int64          `json:"memoryUsage"`     // Memory allocated during operation (bytes)
	RowsRead    int64          `json:"rowsRead"`        // Rows pulled from the database during operation
	CacheHits   int            `json:"cacheHits"`       // Number of cache hits during operation
	CacheMisses int            `json:"cacheMisses"`     // Number of cache misses during operation
	Completed   bool           `json:"completed"`       // Whether Complete() has been called
}

// Complete marks the operation as finished and calculates final metrics
func (m *Marker) Complete() {
	if m.Completed {
		return // Prevent double completion
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsage = int64(memStats.Alloc)
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// AddRows increments the rows-read counter
func (m *Marker) AddRows(n int64) {
	m.RowsRead += n
}

// AddCacheHit increments the cache hit counter
func (m *Marker) AddCacheHit() {
	m.CacheHits++
}

// AddCacheMiss increments the cache miss counter
func (m *Marker) AddCacheMiss() {
	m.CacheMisses++
}

// GetCacheHitRatio returns the cache hit ratio (0.0 to 1.0)
func (m *Marker) GetCacheHitRatio() float64 {
	total := m.CacheHits + m.CacheMisses
	if total == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(total)
}

// QueryPerformanceTracker contains markers for database-heavy operations
type QueryPerformanceTracker struct {
	DetectionFetch *Marker `json:"detectionFetch,omitempty"`
	DowntimeFetch  *Marker `json:"downtimeFetch,omitempty"`
	MetadataLoad   *Marker `json:"metadataLoad,omitempty"`
	LayoutFetch    *Marker `json:"layoutFetch,omitempty"`
}

// PipelinePerformanceTracker contains markers for dashboard pipeline stages
type PipelinePerformanceTracker struct {
	LineResolution      *Marker `json:"lineResolution,omitempty"`
	WidgetResolution    *Marker `json:"widgetResolution,omitempty"`
	DowntimeCalculation *Marker `json:"downtimeCalculation,omitempty"`
	WidgetProcessing    *Marker `json:"widgetProcessing,omitempty"`
	ResponseAssembly    *Marker `json:"responseAssembly,omitempty"`
}

// PartitionPerformanceTracker contains markers for partition maintenance
type PartitionPerformanceTracker struct {
	EnsurePartitions *Marker `json:"ensurePartitions,omitempty"`
	DropPartitions   *Marker `json:"dropPartitions,omitempty"`
	SweepRun         *Marker `json:"sweepRun,omitempty"`
}

// TenantPerformanceTracker contains markers for tenant-related operations
type TenantPerformanceTracker struct {
	TenantActivation    *Marker `json:"tenantActivation,omitempty"`
	DatabaseConnection  *Marker `json:"databaseConnection,omitempty"`
	CacheInitialization *Marker `json:"cacheInitialization,omitempty"`
	ConfigurationLoad   *Marker `json:"configurationLoad,omitempty"`
}

// SystemPerformanceTracker contains markers for system-wide operations
type SystemPerformanceTracker struct {
	ApplicationStartup   *Marker `json:"applicationStartup,omitempty"`
	DIContainerBuild     *Marker `json:"diContainerBuild,omitempty"`
	ServerInitialization *Marker `json:"serverInitialization,omitempty"`
	GracefulShutdown     *Marker `json:"gracefulShutdown,omitempty"`
}

// PerformanceSnapshot represents a point-in-time view of system performance
type PerformanceSnapshot struct {
	Timestamp           time.Time                    `json:"timestamp"`
	TenantID            string                       `json:"tenantId"`
	Query               *QueryPerformanceTracker     `json:"query,omitempty"`
	Pipeline            *PipelinePerformanceTracker  `json:"pipeline,omitempty"`
	Partition           *PartitionPerformanceTracker `json:"partition,omitempty"`
	Tenant              *TenantPerformanceTracker    `json:"tenant,omitempty"`
	System              *SystemPerformanceTracker    `json:"system,omitempty"`
	OverallHealth       HealthStatus                 `json:"overallHealth"`
	ActiveOperations    int                          `json:"activeOperations"`
	CompletedOperations int                          `json:"completedOperations"`
}

// HealthStatus represents the overall health of a system component
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"   // All operations performing within normal parameters
	HealthDegraded  HealthStatus = "degraded"  // Some operations showing performance issues
	HealthUnhealthy HealthStatus = "unhealthy" // Significant performance problems detected
	HealthUnknown   HealthStatus = "unknown"   // Unable to determine health status
)

// PerformanceAlert represents a performance threshold violation
type PerformanceAlert struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	TenantID     string         `json:"tenantId"`
	Severity     AlertSeverity  `json:"severity"`
	Operation    string         `json:"operation"`
	Threshold    time.Duration  `json:"threshold"`
	Actual       time.Duration  `json:"actual"`
	Message      string         `json:"message"`
	Metadata     map[string]any `json:"metadata"`
	Acknowledged bool           `json:"acknowledged"`
}

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"     // Informational alert
	AlertWarning  AlertSeverity = "warning"  // Performance degradation detected
	AlertCritical AlertSeverity = "critical" // Serious performance issue
	AlertFatal    AlertSeverity = "fatal"    // System-threatening performance problem
)
