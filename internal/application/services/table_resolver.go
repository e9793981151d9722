package services

import (
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	persistence "github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/detections"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/partitions"
)

// TableResolver maps production lines to their per-line table names.
// The convention is detection_line_{line_name} and
// downtime_events_{line_name}, line name lowercased. Centralized here
// so repositories and endpoints never build table names themselves.
type TableResolver struct {
	logger *logging.ChanneledLogger
}

// NewTableResolver creates the table resolver.
func NewTableResolver(logger *logging.ChanneledLogger) *TableResolver {
	return &TableResolver{logger: logger}
}

// DetectionTable returns the detection table name for a line, or ""
// when the line is not in the snapshot.
func (t *TableResolver) DetectionTable(snap *types.Snapshot, lineID int) string {
	line, ok := snap.Line(lineID)
	if !ok {
		t.logger.Database().Warn("Line not found in cache, no detection table",
			"lineId", lineID, "tenantId", snap.DBName)
		return ""
	}
	return "detection_line_" + strings.ToLower(line.LineName)
}

// DowntimeTable returns the downtime events table name for a line, or
// "" when the line is not in the snapshot.
func (t *TableResolver) DowntimeTable(snap *types.Snapshot, lineID int) string {
	line, ok := snap.Line(lineID)
	if !ok {
		t.logger.Database().Warn("Line not found in cache, no downtime table",
			"lineId", lineID, "tenantId", snap.DBName)
		return ""
	}
	return "downtime_events_" + strings.ToLower(line.LineName)
}

// DetectionQueries builds the per-line query targets for a detection
// fetch. Lines without a cached name get an empty table name, which the
// repository skips with a warning.
func (t *TableResolver) DetectionQueries(snap *types.Snapshot, lineIDs []int, cleaned filters.Params) []persistence.LineQuery {
	hint := partitionHintFor(cleaned)
	queries := make([]persistence.LineQuery, 0, len(lineIDs))
	for _, lineID := range lineIDs {
		queries = append(queries, persistence.LineQuery{
			LineID:        lineID,
			TableName:     t.DetectionTable(snap, lineID),
			PartitionHint: hint,
		})
	}
	return queries
}

// DowntimeQueries builds the per-line query targets for a downtime
// fetch. Downtime tables are not partitioned, so no hint is attached.
func (t *TableResolver) DowntimeQueries(snap *types.Snapshot, lineIDs []int) []persistence.LineQuery {
	queries := make([]persistence.LineQuery, 0, len(lineIDs))
	for _, lineID := range lineIDs {
		queries = append(queries, persistence.LineQuery{
			LineID:    lineID,
			TableName: t.DowntimeTable(snap, lineID),
		})
	}
	return queries
}

// partitionHintFor derives a PARTITION (...) hint from the daterange
// filter. No daterange means a full scan with no hint.
func partitionHintFor(cleaned filters.Params) string {
	start, end, ok := cleaned.DateRange()
	if !ok {
		return ""
	}
	return partitions.PartitionHint(start, end)
}
