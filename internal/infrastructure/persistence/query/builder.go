package query

import (
	"fmt"
	"strings"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
)

// DetectionColumns is the projection every detection SELECT uses.
var DetectionColumns = []string{"detection_id", "detected_at", "area_id", "product_id"}

// DowntimeColumns is the projection every downtime SELECT uses.
var DowntimeColumns = []string{
	"event_id", "last_detection_id", "start_time", "end_time",
	"duration_seconds", "reason_code", "reason", "is_manual", "created_at",
}

// DetectionQuery builds a paginated SELECT for a single detection table.
// The cursor predicate and ORDER BY detection_id make pages resumable.
func DetectionQuery(tableName string, cleaned filters.Params, shift *catalog.Shift, cursorID int64, limit int, partitionHint string) (string, []any) {
	cols := strings.Join(DetectionColumns, ", ")
	tableRef := TableWithHint(tableName, partitionHint)

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE detection_id > ?", cols, tableRef)
	args := []any{cursorID}

	sql, args = ApplyFilters(sql, args, cleaned, shift, "detected_at")

	sql += " ORDER BY detection_id LIMIT ?"
	args = append(args, limit)

	return sql, args
}

// DetectionCountQuery builds a COUNT(*) with the same filters as the
// detection SELECT, without cursor or ordering.
func DetectionCountQuery(tableName string, cleaned filters.Params, shift *catalog.Shift, partitionHint string) (string, []any) {
	tableRef := TableWithHint(tableName, partitionHint)

	sql := fmt.Sprintf("SELECT COUNT(*) AS total FROM %s WHERE 1=1", tableRef)
	var args []any

	return ApplyFilters(sql, args, cleaned, shift, "detected_at")
}

// AggregationQuery builds a GROUP BY aggregate, for example
// "SELECT area_id, COUNT(*) AS value FROM t WHERE ... GROUP BY area_id".
func AggregationQuery(tableName string, cleaned filters.Params, shift *catalog.Shift, groupColumn, aggFunc, aggColumn, partitionHint string) (string, []any) {
	tableRef := TableWithHint(tableName, partitionHint)
	aggExpr := fmt.Sprintf("%s(%s)", aggFunc, aggColumn)

	sql := fmt.Sprintf("SELECT %s, %s AS value FROM %s WHERE 1=1", groupColumn, aggExpr, tableRef)
	var args []any

	sql, args = ApplyFilters(sql, args, cleaned, shift, "detected_at")

	sql += fmt.Sprintf(" GROUP BY %s", groupColumn)

	return sql, args
}

// DowntimeQuery builds a paginated SELECT for a downtime_events table.
// Filtering keys off start_time instead of detected_at, and area/product
// predicates do not apply because events are line-scoped.
func DowntimeQuery(tableName string, cleaned filters.Params, shift *catalog.Shift, cursorID int64, limit int) (string, []any) {
	cols := strings.Join(DowntimeColumns, ", ")

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE event_id > ?", cols, tableName)
	args := []any{cursorID}

	sql, args = ApplyDaterange(sql, args, cleaned, "start_time")

	if clause, shiftArgs := BuildShiftClause(shift, "start_time"); clause != "" {
		sql += " AND " + clause
		args = append(args, shiftArgs...)
	}

	sql += " ORDER BY event_id LIMIT ?"
	args = append(args, limit)

	return sql, args
}
