// Package query composes parameterized MySQL statements for the per-line
// detection and downtime tables. Clause builders are pure functions that
// return a SQL fragment plus ordered bind args; the builder functions
// assemble complete statements from them. No table resolution, no I/O.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
)

// TableWithHint returns "table PARTITION (...)" or just the table name.
func TableWithHint(tableName, partitionHint string) string {
	if partitionHint == "" {
		return tableName
	}
	return tableName + " " + partitionHint
}

// ApplyDaterange appends "AND col >= ? AND col <= ?" when the cleaned
// params carry a daterange. The start bound lands on :00 seconds and the
// end bound on :59 so the final minute is inclusive.
func ApplyDaterange(sql string, args []any, cleaned filters.Params, timeColumn string) (string, []any) {
	start, end, ok := cleaned.DateRange()
	if !ok {
		return sql, args
	}

	sql += fmt.Sprintf(" AND %s >= ?", timeColumn)
	args = append(args, start)
	sql += fmt.Sprintf(" AND %s <= ?", timeColumn)
	args = append(args, end.Add(59*time.Second))

	return sql, args
}

// BuildShiftClause builds a TIME() predicate for shift-of-day filtering.
// Overnight shifts (22:00 to 06:00) use OR logic so the window wraps past
// midnight; normal shifts use AND. Returns "" when shift is nil or its
// clock strings are unusable.
func BuildShiftClause(shift *catalog.Shift, timeColumn string) (string, []any) {
	if shift == nil {
		return "", nil
	}

	startStr := clockToSQL(shift.StartTime)
	endStr := clockToSQL(shift.EndTime)
	if startStr == "" || endStr == "" {
		return "", nil
	}

	if shift.Overnight() {
		clause := fmt.Sprintf("(TIME(%s) >= ? OR TIME(%s) < ?)", timeColumn, timeColumn)
		return clause, []any{startStr, endStr}
	}
	clause := fmt.Sprintf("TIME(%s) >= ? AND TIME(%s) < ?", timeColumn, timeColumn)
	return clause, []any{startStr, endStr}
}

// BuildInClause expands "column IN (?, ?, ...)" for the given values.
// Returns "" when values is empty.
func BuildInClause(values []int, column string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}

	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

// ApplyFilters appends daterange, shift, area and product predicates in
// one call so query builders don't repeat the same four-clause block.
// The statement must already carry a WHERE clause.
func ApplyFilters(sql string, args []any, cleaned filters.Params, shift *catalog.Shift, timeColumn string) (string, []any) {
	sql, args = ApplyDaterange(sql, args, cleaned, timeColumn)

	if clause, shiftArgs := BuildShiftClause(shift, timeColumn); clause != "" {
		sql += " AND " + clause
		args = append(args, shiftArgs...)
	}

	if clause, inArgs := BuildInClause(cleaned.AreaIDs(), "area_id"); clause != "" {
		sql += " AND " + clause
		args = append(args, inArgs...)
	}

	if clause, inArgs := BuildInClause(cleaned.ProductIDs(), "product_id"); clause != "" {
		sql += " AND " + clause
		args = append(args, inArgs...)
	}

	return sql, args
}

// clockToSQL normalizes "HH:MM" or "HH:MM:SS" into the "HH:MM:SS" form
// MySQL TIME() comparisons expect.
func clockToSQL(clock string) string {
	switch len(clock) {
	case 5:
		return clock + ":00"
	case 8:
		return clock
	default:
		return ""
	}
}
