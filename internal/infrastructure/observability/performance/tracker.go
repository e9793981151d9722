// Package performance provides performance tracking and monitoring capabilities
// for analytics operations with multi-tenant support.
package performance

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers      map[string]*Marker     // Active and completed markers by unique ID
	snapshots    []*PerformanceSnapshot // Historical performance snapshots
	alerts       []*PerformanceAlert    // Active performance alerts
	thresholds   *AlertThresholds       // Configurable alert thresholds
	notifier     func(*PerformanceAlert)
	lastNotified map[string]time.Time // Last notification per tenant and operation
	mu           sync.RWMutex         // Protects concurrent access
	started      time.Time            // When tracking started
	config       *TrackerConfig       // Tracker configuration
}

// notifyCooldown caps outbound alerts at one per tenant and operation
// per window.
const notifyCooldown = 15 * time.Minute

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers          int           `json:"maxMarkers"`          // Maximum number of markers to retain
	MaxSnapshots        int           `json:"maxSnapshots"`        // Maximum number of snapshots to retain
	MaxAlerts           int           `json:"maxAlerts"`           // Maximum number of alerts to retain
	SnapshotInterval    time.Duration `json:"snapshotInterval"`    // How often to take performance snapshots
	CleanupInterval     time.Duration `json:"cleanupInterval"`     // How often to clean up old data
	EnableDetailedStats bool          `json:"enableDetailedStats"` // Whether to collect detailed memory stats
	EnableAlerts        bool          `json:"enableAlerts"`        // Whether to generate performance alerts
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:          10000,
		MaxSnapshots:        100,
		MaxAlerts:           500,
		SnapshotInterval:    time.Minute * 5,
		CleanupInterval:     time.Minute * 10,
		EnableDetailedStats: config.DetailedPerfLogging,
		EnableAlerts:        true,
	}
}

// AlertThresholds defines performance thresholds for generating alerts
type AlertThresholds struct {
	SlowResponseThreshold     time.Duration `json:"slowResponseThreshold"`
	VerySlowResponseThreshold time.Duration `json:"verySlowResponseThreshold"`
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"`

	LowCacheHitRatio      float64 `json:"lowCacheHitRatio"`
	CriticalCacheHitRatio float64 `json:"criticalCacheHitRatio"`

	// Memory thresholds in bytes
	HighMemoryUsage     int64 `json:"highMemoryUsage"`
	CriticalMemoryUsage int64 `json:"criticalMemoryUsage"`

	// Operation-specific thresholds
	AuthOperationThreshold   time.Duration `json:"authOperationThreshold"`
	WidgetProcessThreshold   time.Duration `json:"widgetProcessThreshold"`
	DashboardQueryThreshold  time.Duration `json:"dashboardQueryThreshold"`
	PartitionActionThreshold time.Duration `json:"partitionActionThreshold"`
}

// DefaultAlertThresholds returns alert thresholds derived from the environment
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		SlowResponseThreshold:     time.Duration(config.SlowOpThresholdMs) * time.Millisecond,
		VerySlowResponseThreshold: time.Duration(config.VerySlowOpMs) * time.Millisecond,
		CriticalResponseThreshold: time.Second * 10,
		LowCacheHitRatio:          0.85,
		CriticalCacheHitRatio:     0.70,
		HighMemoryUsage:           500 * 1024 * 1024,  // 500MB
		CriticalMemoryUsage:       1024 * 1024 * 1024, // 1GB
		AuthOperationThreshold:    time.Millisecond * 200,
		WidgetProcessThreshold:    time.Millisecond * 250,
		DashboardQueryThreshold:   time.Second * 2,
		PartitionActionThreshold:  time.Second * 30,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}

	return &Tracker{
		markers:      make(map[string]*Marker),
		snapshots:    make([]*PerformanceSnapshot, 0),
		alerts:       make([]*PerformanceAlert, 0),
		thresholds:   DefaultAlertThresholds(),
		lastNotified: make(map[string]time.Time),
		started:      time.Now(),
		config:       config,
	}
}

// SetAlertNotifier registers a sink for very slow and critical response
// time alerts, typically the ops mailer. The notifier runs outside the
// tracker lock.
func (t *Tracker) SetAlertNotifier(fn func(*PerformanceAlert)) {
	t.mu.Lock()
	t.notifier = fn
	t.mu.Unlock()
}

// StartOperation creates and tracks a new performance marker for an operation
func (t *Tracker) StartOperation(operation, tenantID string) *Marker {
	marker := &Marker{
		Operation: operation,
		TenantID:  tenantID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
	}

	markerID := fmt.Sprintf("%s_%s_%d", tenantID, operation, time.Now().UnixNano())

	t.mu.Lock()
	t.markers[markerID] = marker
	t.mu.Unlock()

	return marker
}

// StartOperationWithContext creates a performance marker with context cancellation support
func (t *Tracker) StartOperationWithContext(ctx context.Context, operation, tenantID string) *Marker {
	marker := t.StartOperation(operation, tenantID)

	go func() {
		<-ctx.Done()
		if !marker.Completed {
			marker.SetError(ctx.Err())
			marker.Complete()
		}
	}()

	return marker
}

// CompleteOperation manually completes an operation and checks for alerts
func (t *Tracker) CompleteOperation(marker *Marker) {
	if marker == nil || marker.Completed {
		return
	}

	marker.Complete()

	if t.config.EnableAlerts {
		t.checkForAlerts(marker)
	}
}

// checkForAlerts evaluates a completed marker against alert thresholds
func (t *Tracker) checkForAlerts(marker *Marker) {
	if marker == nil || !marker.Completed {
		return
	}

	alerts := t.evaluateThresholds(marker)

	var notify []*PerformanceAlert

	t.mu.Lock()
	notifier := t.notifier
	for _, alert := range alerts {
		t.alerts = append(t.alerts, alert)

		if len(t.alerts) > t.config.MaxAlerts {
			t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
		}

		if notifier != nil && alert.Actual > t.thresholds.VerySlowResponseThreshold {
			key := alert.TenantID + ":" + alert.Operation
			if last, ok := t.lastNotified[key]; !ok || time.Since(last) >= notifyCooldown {
				t.lastNotified[key] = time.Now()
				notify = append(notify, alert)
			}
		}
	}
	t.mu.Unlock()

	for _, alert := range notify {
		notifier(alert)
	}
}

// evaluateThresholds checks a marker against all relevant thresholds
func (t *Tracker) evaluateThresholds(marker *Marker) []*PerformanceAlert {
	var alerts []*PerformanceAlert

	if marker.Duration > t.thresholds.CriticalResponseThreshold {
		alerts = append(alerts, t.createAlert(marker, AlertCritical,
			"Operation exceeded critical response time threshold"))
	} else if marker.Duration > t.thresholds.VerySlowResponseThreshold {
		alerts = append(alerts, t.createAlert(marker, AlertWarning,
			"Operation exceeded slow response time threshold"))
	}

	switch {
	case strings.Contains(marker.Operation, "auth"):
		if marker.Duration > t.thresholds.AuthOperationThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Authentication operation exceeded threshold"))
		}
	case strings.Contains(marker.Operation, "widget"):
		if marker.Duration > t.thresholds.WidgetProcessThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Widget processing exceeded threshold"))
		}
	case strings.Contains(marker.Operation, "dashboard"):
		if marker.Duration > t.thresholds.DashboardQueryThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Dashboard execution exceeded threshold"))
		}
	case strings.Contains(marker.Operation, "partition"):
		if marker.Duration > t.thresholds.PartitionActionThreshold {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Partition maintenance exceeded threshold"))
		}
	}

	if marker.CacheHits+marker.CacheMisses > 0 {
		hitRatio := marker.GetCacheHitRatio()
		if hitRatio < t.thresholds.CriticalCacheHitRatio {
			alerts = append(alerts, t.createAlert(marker, AlertCritical,
				"Cache hit ratio critically low"))
		} else if hitRatio < t.thresholds.LowCacheHitRatio {
			alerts = append(alerts, t.createAlert(marker, AlertWarning,
				"Cache hit ratio below optimal"))
		}
	}

	memoryMB := marker.MemoryUsage / (1024 * 1024)
	if marker.MemoryUsage > t.thresholds.CriticalMemoryUsage {
		alerts = append(alerts, t.createAlert(marker, AlertCritical,
			fmt.Sprintf("Critical memory usage: %d MB", memoryMB)))
	} else if marker.MemoryUsage > t.thresholds.HighMemoryUsage {
		alerts = append(alerts, t.createAlert(marker, AlertWarning,
			fmt.Sprintf("High memory usage: %d MB", memoryMB)))
	}

	return alerts
}

// createAlert creates a new performance alert
func (t *Tracker) createAlert(marker *Marker, severity AlertSeverity, message string) *PerformanceAlert {
	return &PerformanceAlert{
		ID:        fmt.Sprintf("alert_%d", time.Now().UnixNano()),
		Timestamp: time.Now(),
		TenantID:  marker.TenantID,
		Severity:  severity,
		Operation: marker.Operation,
		Actual:    marker.Duration,
		Message:   message,
		Metadata: map[string]any{
			"cacheHitRatio": marker.GetCacheHitRatio(),
			"memoryUsageMB": marker.MemoryUsage / (1024 * 1024),
			"rowsRead":      marker.RowsRead,
			"success":       marker.Success,
		},
	}
}

// GetMetrics returns completed performance metrics for a specific tenant
func (t *Tracker) GetMetrics(tenantID string) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var metrics []Marker
	for _, marker := range t.markers {
		if marker.TenantID == tenantID && marker.Completed {
			metrics = append(metrics, *marker)
		}
	}
	return metrics
}

// GetRecentMetrics returns metrics for operations completed within the specified duration
func (t *Tracker) GetRecentMetrics(tenantID string, within time.Duration) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	var metrics []Marker

	for _, marker := range t.markers {
		if marker.TenantID == tenantID && marker.Completed && marker.EndTime.After(cutoff) {
			metrics = append(metrics, *marker)
		}
	}
	return metrics
}

// GetActiveOperations returns currently running operations for a tenant
func (t *Tracker) GetActiveOperations(tenantID string) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var active []Marker
	for _, marker := range t.markers {
		if marker.TenantID == tenantID && !marker.Completed {
			metrics := *marker
			// Report elapsed time for operations still in flight
			metrics.Duration = time.Since(marker.StartTime)
			active = append(active, metrics)
		}
	}
	return active
}

// GetAlerts returns performance alerts for a specific tenant
func (t *Tracker) GetAlerts(tenantID string) []*PerformanceAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var alerts []*PerformanceAlert
	for _, alert := range t.alerts {
		if alert.TenantID == tenantID {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// TakeSnapshot creates a performance snapshot for the specified tenant
func (t *Tracker) TakeSnapshot(tenantID string) *PerformanceSnapshot {
	metrics := t.GetRecentMetrics(tenantID, time.Minute*5)
	activeOps := t.GetActiveOperations(tenantID)

	snapshot := &PerformanceSnapshot{
		Timestamp:           time.Now(),
		TenantID:            tenantID,
		ActiveOperations:    len(activeOps),
		CompletedOperations: len(metrics),
		OverallHealth:       t.calculateHealth(metrics, activeOps),
	}

	snapshot.Query = t.extractQueryMetrics(metrics)
	snapshot.Pipeline = t.extractPipelineMetrics(metrics)
	snapshot.Partition = t.extractPartitionMetrics(metrics)

	t.mu.Lock()
	t.snapshots = append(t.snapshots, snapshot)

	if len(t.snapshots) > t.config.MaxSnapshots {
		t.snapshots = t.snapshots[len(t.snapshots)-t.config.MaxSnapshots:]
	}
	t.mu.Unlock()

	return snapshot
}

// calculateHealth determines overall system health based on recent metrics
func (t *Tracker) calculateHealth(metrics, activeOps []Marker) HealthStatus {
	if len(metrics) == 0 && len(activeOps) == 0 {
		return HealthUnknown
	}

	criticalIssues := 0
	warningIssues := 0
	totalOps := len(metrics) + len(activeOps)

	allOps := append(metrics, activeOps...)

	for _, op := range allOps {
		duration := op.Duration
		if !op.Completed {
			duration = time.Since(op.StartTime)
		}

		if duration > t.thresholds.CriticalResponseThreshold || !op.Success {
			criticalIssues++
		} else if duration > t.thresholds.VerySlowResponseThreshold {
			warningIssues++
		}
	}

	criticalRatio := float64(criticalIssues) / float64(totalOps)
	warningRatio := float64(warningIssues) / float64(totalOps)

	if criticalRatio > 0.1 {
		return HealthUnhealthy
	} else if criticalRatio > 0.05 || warningRatio > 0.2 {
		return HealthDegraded
	}

	return HealthHealthy
}

// newestMarker keeps the latest completed marker for a category slot
func newestMarker(current *Marker, candidate Marker) *Marker {
	if current == nil || candidate.EndTime.After(current.EndTime) {
		m := candidate
		return &m
	}
	return current
}

// extractQueryMetrics filters metrics for database query operations
func (t *Tracker) extractQueryMetrics(metrics []Marker) *QueryPerformanceTracker {
	tracker := &QueryPerformanceTracker{}

	for _, metric := range metrics {
		switch {
		case strings.Contains(metric.Operation, "detections"):
			tracker.DetectionFetch = newestMarker(tracker.DetectionFetch, metric)
		case strings.Contains(metric.Operation, "downtime_fetch"):
			tracker.DowntimeFetch = newestMarker(tracker.DowntimeFetch, metric)
		case strings.Contains(metric.Operation, "metadata"):
			tracker.MetadataLoad = newestMarker(tracker.MetadataLoad, metric)
		case strings.Contains(metric.Operation, "layout"):
			tracker.LayoutFetch = newestMarker(tracker.LayoutFetch, metric)
		}
	}

	return tracker
}

// extractPipelineMetrics filters metrics for dashboard pipeline stages
func (t *Tracker) extractPipelineMetrics(metrics []Marker) *PipelinePerformanceTracker {
	tracker := &PipelinePerformanceTracker{}

	for _, metric := range metrics {
		switch {
		case strings.Contains(metric.Operation, "resolve_lines"):
			tracker.LineResolution = newestMarker(tracker.LineResolution, metric)
		case strings.Contains(metric.Operation, "resolve_widgets"):
			tracker.WidgetResolution = newestMarker(tracker.WidgetResolution, metric)
		case strings.Contains(metric.Operation, "downtime_calc"):
			tracker.DowntimeCalculation = newestMarker(tracker.DowntimeCalculation, metric)
		case strings.Contains(metric.Operation, "widget"):
			tracker.WidgetProcessing = newestMarker(tracker.WidgetProcessing, metric)
		case strings.Contains(metric.Operation, "assemble"):
			tracker.ResponseAssembly = newestMarker(tracker.ResponseAssembly, metric)
		}
	}

	return tracker
}

// extractPartitionMetrics filters metrics for partition maintenance operations
func (t *Tracker) extractPartitionMetrics(metrics []Marker) *PartitionPerformanceTracker {
	tracker := &PartitionPerformanceTracker{}

	for _, metric := range metrics {
		switch {
		case strings.Contains(metric.Operation, "partition_ensure"):
			tracker.EnsurePartitions = newestMarker(tracker.EnsurePartitions, metric)
		case strings.Contains(metric.Operation, "partition_drop"):
			tracker.DropPartitions = newestMarker(tracker.DropPartitions, metric)
		case strings.Contains(metric.Operation, "partition_sweep"):
			tracker.SweepRun = newestMarker(tracker.SweepRun, metric)
		}
	}

	return tracker
}

// Cleanup removes old markers and snapshots to prevent memory leaks
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Keep the last hour of completed markers
	cutoff := time.Now().Add(-time.Hour)
	for id, marker := range t.markers {
		if marker.Completed && marker.EndTime.Before(cutoff) {
			delete(t.markers, id)
		}
	}

	if len(t.markers) > t.config.MaxMarkers {
		count := 0
		for id := range t.markers {
			if count > t.config.MaxMarkers/2 {
				delete(t.markers, id)
			}
			count++
		}
	}
}

// GetOverallStats returns overall tracker statistics
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	activeCount := 0
	completedCount := 0

	for _, marker := range t.markers {
		if marker.Completed {
			completedCount++
		} else {
			activeCount++
		}
	}

	return map[string]any{
		"trackerUptime":       time.Since(t.started),
		"totalMarkers":        len(t.markers),
		"activeOperations":    activeCount,
		"completedOperations": completedCount,
		"totalSnapshots":      len(t.snapshots),
		"totalAlerts":         len(t.alerts),
		"memoryUsageMB":       memStats.Alloc / (1024 * 1024),
		"systemMemoryMB":      memStats.Sys / (1024 * 1024),
	}
}
