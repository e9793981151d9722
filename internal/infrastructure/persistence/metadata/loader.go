// Package metadata loads tenant reference tables and the global widget
// catalog into an immutable snapshot for the metadata cache.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/admin"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
)

// TenantDBProvider hands out per-tenant database connections by db_name.
type TenantDBProvider interface {
	TenantDB(ctx context.Context, dbName string) (*database.DB, error)
}

// Loader builds complete metadata snapshots. Tenant reference tables come
// from the tenant database; the widget catalog comes from the global one.
type Loader struct {
	tenants     TenantDBProvider
	global      *database.DB
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewLoader creates a snapshot loader.
func NewLoader(tenants TenantDBProvider, global *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Loader {
	return &Loader{
		tenants:     tenants,
		global:      global,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// LoadSnapshot fetches all seven tenant reference tables plus the global
// widget catalog. The snapshot is returned fully built so the cache can
// publish it atomically.
func (l *Loader) LoadSnapshot(ctx context.Context, dbName string) (*types.Snapshot, error) {
	marker := l.perfTracker.StartOperation("metadata_load", dbName)
	defer l.perfTracker.CompleteOperation(marker)

	start := time.Now()
	l.logger.Cache().Debug("Loading metadata snapshot", "dbName", dbName)

	db, err := l.tenants.TenantDB(ctx, dbName)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("tenant database %s unavailable: %w", dbName, err)
	}

	snap := &types.Snapshot{
		DBName:   dbName,
		LoadedAt: time.Now(),
	}

	if snap.ProductionLines, err = l.loadProductionLines(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading production_line: %w", err)
	}
	if snap.Areas, err = l.loadAreas(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading area: %w", err)
	}
	if snap.Products, err = l.loadProducts(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading product: %w", err)
	}
	if snap.Shifts, err = l.loadShifts(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading shift: %w", err)
	}
	if snap.Filters, err = l.loadFilters(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading filter: %w", err)
	}
	if snap.Failures, err = l.loadFailures(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading failure: %w", err)
	}
	if snap.Incidents, err = l.loadIncidents(ctx, db); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading incident: %w", err)
	}
	if snap.WidgetCatalog, err = l.loadWidgetCatalog(ctx); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("loading widget_catalog: %w", err)
	}

	l.logger.Cache().Info("Metadata snapshot loaded",
		"dbName", dbName,
		"lines", len(snap.ProductionLines),
		"areas", len(snap.Areas),
		"products", len(snap.Products),
		"shifts", len(snap.Shifts),
		"filters", len(snap.Filters),
		"failures", len(snap.Failures),
		"incidents", len(snap.Incidents),
		"widgets", len(snap.WidgetCatalog),
		"duration", time.Since(start))

	return snap, nil
}

func (l *Loader) loadProductionLines(ctx context.Context, db *database.DB) (map[int]catalog.ProductionLine, error) {
	const sqlStr = `SELECT line_id, line_name, line_code, is_active,
		availability, performance, downtime_threshold, auto_detect_downtime
		FROM production_line WHERE is_active = 1`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.ProductionLine)
	for rows.Next() {
		var line catalog.ProductionLine
		var lineCode sql.NullString
		var availability, perf sql.NullFloat64
		var threshold sql.NullInt64
		var autoDetect sql.NullBool

		if err := rows.Scan(&line.LineID, &line.LineName, &lineCode, &line.IsActive,
			&availability, &perf, &threshold, &autoDetect); err != nil {
			return nil, err
		}

		line.LineCode = lineCode.String
		line.Availability = availability.Float64
		line.Performance = perf.Float64
		line.DowntimeThreshold = int(threshold.Int64)
		line.AutoDetectDowntime = autoDetect.Valid && autoDetect.Bool

		out[line.LineID] = line
	}
	return out, rows.Err()
}

func (l *Loader) loadAreas(ctx context.Context, db *database.DB) (map[int]catalog.Area, error) {
	const sqlStr = `SELECT area_id, line_id, area_name, area_type, area_order,
		coord_x1, coord_y1, coord_x2, coord_y2 FROM area`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.Area)
	for rows.Next() {
		var area catalog.Area
		var areaType sql.NullString
		var areaOrder sql.NullInt64
		var x1, y1, x2, y2 sql.NullFloat64

		if err := rows.Scan(&area.AreaID, &area.LineID, &area.AreaName, &areaType,
			&areaOrder, &x1, &y1, &x2, &y2); err != nil {
			return nil, err
		}

		area.AreaType = areaType.String
		area.AreaOrder = int(areaOrder.Int64)
		area.CoordX1 = nullFloat(x1)
		area.CoordY1 = nullFloat(y1)
		area.CoordX2 = nullFloat(x2)
		area.CoordY2 = nullFloat(y2)

		out[area.AreaID] = area
	}
	return out, rows.Err()
}

func (l *Loader) loadProducts(ctx context.Context, db *database.DB) (map[int]catalog.Product, error) {
	const sqlStr = `SELECT product_id, product_name, product_code,
		product_weight, product_color, production_std, product_per_batch
		FROM product`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.Product)
	for rows.Next() {
		var p catalog.Product
		var code, color sql.NullString
		var weight, std sql.NullFloat64
		var perBatch sql.NullInt64

		if err := rows.Scan(&p.ProductID, &p.ProductName, &code,
			&weight, &color, &std, &perBatch); err != nil {
			return nil, err
		}

		p.ProductCode = code.String
		p.ProductWeight = weight.Float64
		p.ProductColor = color.String
		p.ProductionStd = std.Float64
		p.ProductPerBatch = int(perBatch.Int64)

		out[p.ProductID] = p
	}
	return out, rows.Err()
}

func (l *Loader) loadShifts(ctx context.Context, db *database.DB) (map[int]catalog.Shift, error) {
	const sqlStr = `SELECT shift_id, shift_name, description, shift_status,
		days_implemented, start_time, end_time, is_overnight
		FROM shift WHERE shift_status = 1`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.Shift)
	for rows.Next() {
		var s catalog.Shift
		var description sql.NullString
		var days []byte
		var startTime, endTime sql.NullString
		var overnight sql.NullBool

		if err := rows.Scan(&s.ShiftID, &s.ShiftName, &description, &s.ShiftStatus,
			&days, &startTime, &endTime, &overnight); err != nil {
			return nil, err
		}

		s.Description = description.String
		s.DaysImplemented = parseDaysImplemented(days)
		s.StartTime = startTime.String
		s.EndTime = endTime.String
		s.IsOvernight = overnight.Valid && overnight.Bool

		out[s.ShiftID] = s
	}
	return out, rows.Err()
}

func (l *Loader) loadFilters(ctx context.Context, db *database.DB) (map[int]catalog.FilterRow, error) {
	const sqlStr = `SELECT filter_id, filter_name, description, filter_status,
		display_order, additional_filter
		FROM filter WHERE filter_status = 1 ORDER BY display_order`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.FilterRow)
	for rows.Next() {
		var f catalog.FilterRow
		var description sql.NullString
		var displayOrder sql.NullInt64
		var additional []byte

		if err := rows.Scan(&f.FilterID, &f.FilterName, &description, &f.FilterStatus,
			&displayOrder, &additional); err != nil {
			return nil, err
		}

		f.Description = description.String
		f.DisplayOrder = int(displayOrder.Int64)
		if len(additional) > 0 {
			var extra map[string]any
			if err := json.Unmarshal(additional, &extra); err == nil {
				f.AdditionalFilter = extra
			} else {
				l.logger.Cache().Warn("Malformed additional_filter, ignoring",
					"filterId", f.FilterID, "error", err.Error())
			}
		}

		out[f.FilterID] = f
	}
	return out, rows.Err()
}

func (l *Loader) loadFailures(ctx context.Context, db *database.DB) (map[int]catalog.Failure, error) {
	const sqlStr = `SELECT failure_id, type_failure, description FROM failure`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.Failure)
	for rows.Next() {
		var f catalog.Failure
		var description sql.NullString
		if err := rows.Scan(&f.FailureID, &f.TypeFailure, &description); err != nil {
			return nil, err
		}
		f.Description = description.String
		out[f.FailureID] = f
	}
	return out, rows.Err()
}

func (l *Loader) loadIncidents(ctx context.Context, db *database.DB) (map[int]catalog.Incident, error) {
	const sqlStr = `SELECT incident_id, failure_id, incident_code,
		description, has_solution, solution FROM incident`

	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]catalog.Incident)
	for rows.Next() {
		var i catalog.Incident
		var code, description, solution sql.NullString
		var hasSolution sql.NullBool

		if err := rows.Scan(&i.IncidentID, &i.FailureID, &code,
			&description, &hasSolution, &solution); err != nil {
			return nil, err
		}

		i.IncidentCode = code.String
		i.Description = description.String
		i.HasSolution = hasSolution.Valid && hasSolution.Bool
		i.Solution = solution.String

		out[i.IncidentID] = i
	}
	return out, rows.Err()
}

func (l *Loader) loadWidgetCatalog(ctx context.Context) (map[int]admin.WidgetCatalogEntry, error) {
	const sqlStr = `SELECT widget_id, widget_name, description FROM widget_catalog`

	rows, err := l.global.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]admin.WidgetCatalogEntry)
	for rows.Next() {
		var w admin.WidgetCatalogEntry
		var description sql.NullString
		if err := rows.Scan(&w.WidgetID, &w.WidgetName, &description); err != nil {
			return nil, err
		}
		w.Description = description.String
		out[w.WidgetID] = w
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// parseDaysImplemented accepts either a JSON array of day names or a
// JSON object keyed by day name.
func parseDaysImplemented(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		days := make([]string, 0, len(m))
		for day := range m {
			days = append(days, day)
		}
		sort.Strings(days)
		return days
	}
	return nil
}
