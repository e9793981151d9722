// Package partitions manages monthly RANGE partitions on the per-line
// detection and downtime tables. Partitioning on
// YEAR(detected_at)*100 + MONTH(detected_at) lets MySQL prune months
// outside the selected date range, which matters on tables with tens of
// millions of rows.
//
// The backend consumes the database, it does not create the tables.
// detection_line_X and downtime_events_X already exist; this manager
// only adds, removes and lists partitions on them.
package partitions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

// Partition naming convention: p{YYYYMM} (p202601, p202602, ...) plus a
// catch-all pmax with VALUES LESS THAN MAXVALUE.
const maxPartitionName = "pmax"

// hintMonthLimit bounds the PARTITION () hint; beyond a year the list
// stops helping and MySQL's own pruning decides.
const hintMonthLimit = 12

// Manager adds, drops and lists monthly partitions for one tenant's
// tables.
type Manager struct {
	tenantID    string
	db          *database.DB
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewManager creates a partition manager bound to one tenant's database
// connection.
func NewManager(tenantID string, db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Manager {
	return &Manager{
		tenantID:    tenantID,
		db:          db,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetExistingPartitions returns the names of all partitions on a table
// in ordinal order. Unpartitioned or absent tables yield an empty list.
func (m *Manager) GetExistingPartitions(ctx context.Context, tableName string) ([]string, error) {
	const sqlStr = `SELECT PARTITION_NAME
		FROM INFORMATION_SCHEMA.PARTITIONS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME = ?
		  AND PARTITION_NAME IS NOT NULL
		ORDER BY PARTITION_ORDINAL_POSITION`

	rows, err := m.db.QueryContext(ctx, sqlStr, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions for %s: %w", tableName, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// IsPartitioned reports whether a table has any partitions.
func (m *Manager) IsPartitioned(ctx context.Context, tableName string) (bool, error) {
	parts, err := m.GetExistingPartitions(ctx, tableName)
	if err != nil {
		return false, err
	}
	return len(parts) > 0, nil
}

// EnsurePartitions guarantees partitions exist from the reference month
// up to monthsAhead months into the future. A zero referenceDate means
// today. Unpartitioned tables are a no-op: the DBA must first ALTER
// TABLE to add RANGE partitioning. New partitions split pmax via
// REORGANIZE PARTITION when the catch-all exists, otherwise they are
// added directly. Returns the names of newly created partitions.
func (m *Manager) EnsurePartitions(ctx context.Context, tableName string, monthsAhead int, referenceDate time.Time) ([]string, error) {
	marker := m.perfTracker.StartOperation("partition_ensure", m.tenantID)
	defer m.perfTracker.CompleteOperation(marker)

	existing, err := m.GetExistingPartitions(ctx, tableName)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if len(existing) == 0 {
		m.logger.Partition().Warn("Table has no partitions, cannot ensure; DBA must partition the table first",
			"table", tableName, "tenantId", m.tenantID)
		return nil, nil
	}

	existingSet := make(map[string]bool, len(existing))
	hasPmax := false
	for _, name := range existing {
		existingSet[name] = true
		if name == maxPartitionName {
			hasPmax = true
		}
	}

	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}

	var created []string
	for _, p := range partitionsForRange(referenceDate, monthsAhead) {
		if existingSet[p.name] {
			continue
		}

		if hasPmax {
			err = m.reorganizePmax(ctx, tableName, p.name, p.boundary)
		} else {
			err = m.addPartition(ctx, tableName, p.name, p.boundary)
		}
		if err != nil {
			marker.SetError(err)
			return created, fmt.Errorf("failed to create partition %s on %s: %w", p.name, tableName, err)
		}

		created = append(created, p.name)
		m.logger.Partition().Info("Created partition", "partition", p.name, "table", tableName, "tenantId", m.tenantID)
	}

	marker.AddMetadata("created", len(created))
	return created, nil
}

// DropOldPartitions drops partitions older than retentionMonths before
// the reference month. Returns the names of dropped partitions.
func (m *Manager) DropOldPartitions(ctx context.Context, tableName string, retentionMonths int, referenceDate time.Time) ([]string, error) {
	marker := m.perfTracker.StartOperation("partition_drop", m.tenantID)
	defer m.perfTracker.CompleteOperation(marker)

	if referenceDate.IsZero() {
		referenceDate = time.Now()
	}

	refMonth := time.Date(referenceDate.Year(), referenceDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	cutoffMonth := refMonth.AddDate(0, -retentionMonths, 0)
	cutoff := cutoffMonth.Year()*100 + int(cutoffMonth.Month())

	existing, err := m.GetExistingPartitions(ctx, tableName)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	var dropped []string
	for _, name := range existing {
		if name == maxPartitionName {
			continue
		}
		yyyymm, err := strconv.Atoi(strings.TrimPrefix(name, "p"))
		if err != nil {
			continue
		}
		if yyyymm >= cutoff {
			continue
		}

		if err := m.dropPartition(ctx, tableName, name); err != nil {
			marker.SetError(err)
			return dropped, fmt.Errorf("failed to drop partition %s from %s: %w", name, tableName, err)
		}
		dropped = append(dropped, name)
		m.logger.Partition().Info("Dropped partition",
			"partition", name, "table", tableName, "retentionMonths", retentionMonths, "tenantId", m.tenantID)
	}

	marker.AddMetadata("dropped", len(dropped))
	return dropped, nil
}

// PartitionHint returns a "PARTITION (p202601, p202602, ...)" clause for
// injection right after a table name, enabling partition pruning at the
// MySQL level. Ranges spanning more than twelve months return "" so the
// optimizer decides on its own.
func PartitionHint(startDate, endDate time.Time) string {
	names := partitionNamesForRange(startDate, endDate)
	if len(names) == 0 || len(names) > hintMonthLimit {
		return ""
	}
	return fmt.Sprintf("PARTITION (%s)", strings.Join(names, ", "))
}

// monthPartition pairs a partition name with its LESS THAN boundary,
// which is the YEAR*100+MONTH of the following month.
type monthPartition struct {
	name     string
	boundary int
}

// partitionsForRange generates the partitions from the reference month
// forward, including the current month.
func partitionsForRange(ref time.Time, monthsAhead int) []monthPartition {
	out := make([]monthPartition, 0, monthsAhead+1)
	current := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())

	for i := 0; i <= monthsAhead; i++ {
		next := current.AddDate(0, 1, 0)
		out = append(out, monthPartition{
			name:     partitionName(current),
			boundary: next.Year()*100 + int(next.Month()),
		})
		current = next
	}
	return out
}

// partitionNamesForRange returns the partition names covering the
// inclusive [startDate, endDate] month span.
func partitionNamesForRange(startDate, endDate time.Time) []string {
	if endDate.Before(startDate) {
		return nil
	}
	var names []string
	current := time.Date(startDate.Year(), startDate.Month(), 1, 0, 0, 0, 0, startDate.Location())
	for !current.After(endDate) {
		names = append(names, partitionName(current))
		current = current.AddDate(0, 1, 0)
	}
	return names
}

func partitionName(month time.Time) string {
	return fmt.Sprintf("p%04d%02d", month.Year(), int(month.Month()))
}

// reorganizePmax splits the catch-all to create a new partition before it.
func (m *Manager) reorganizePmax(ctx context.Context, tableName, partName string, boundary int) error {
	sqlStr := fmt.Sprintf(`ALTER TABLE %s
		REORGANIZE PARTITION pmax INTO (
			PARTITION %s VALUES LESS THAN (%d),
			PARTITION pmax VALUES LESS THAN MAXVALUE
		)`, tableName, partName, boundary)
	return m.execDDL(ctx, sqlStr)
}

// addPartition appends a partition when there is no pmax catch-all.
func (m *Manager) addPartition(ctx context.Context, tableName, partName string, boundary int) error {
	sqlStr := fmt.Sprintf(`ALTER TABLE %s
		ADD PARTITION (
			PARTITION %s VALUES LESS THAN (%d)
		)`, tableName, partName, boundary)
	return m.execDDL(ctx, sqlStr)
}

func (m *Manager) dropPartition(ctx context.Context, tableName, partName string) error {
	return m.execDDL(ctx, fmt.Sprintf("ALTER TABLE %s DROP PARTITION %s", tableName, partName))
}

func (m *Manager) execDDL(ctx context.Context, sqlStr string) error {
	start := time.Now()
	_, err := m.db.ExecContext(ctx, sqlStr)
	database.CheckAndLogSlowQuery(m.logger, "PARTITION_DDL", time.Since(start), m.tenantID)
	return err
}
