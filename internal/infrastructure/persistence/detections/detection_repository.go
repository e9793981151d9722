// Package detections provides cursor-paginated repositories over the
// per-line detection_line_{name} and downtime_events_{name} tables.
// Repositories execute queries built by the query package and return raw
// rows; enrichment happens in the application services.
package detections

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/query"
	"github.com/CametIO/camet-analytics-go/pkg/config"
	"github.com/go-sql-driver/mysql"
)

// ErrTableMissing reports a per-line table that does not exist. Callers
// treat it as an empty result, not a failure.
var ErrTableMissing = errors.New("per-line table does not exist")

const erNoSuchTable = 1146

// isMissingTable reports whether err is MySQL's "table doesn't exist".
func isMissingTable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == erNoSuchTable
	}
	return false
}

// LineQuery names the resolved table and optional partition hint for one
// production line. The table resolver builds these from the cache.
type LineQuery struct {
	LineID        int
	TableName     string
	PartitionHint string
}

// AggregateRow is one GROUP BY bucket keyed by an id column.
type AggregateRow struct {
	Group int64   `json:"group"`
	Value float64 `json:"value"`
}

// DetectionRepository executes detection queries with cursor-based
// pagination: pages advance on detection_id, never OFFSET.
type DetectionRepository struct {
	tenantID    string
	db          *database.DB
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDetectionRepository creates a detection repository bound to one
// tenant's database connection.
func NewDetectionRepository(tenantID string, db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DetectionRepository {
	return &DetectionRepository{
		tenantID:    tenantID,
		db:          db,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// FetchDetections fetches raw detection rows from a single table with
// cursor pagination (detection_id > cursor, batches of
// DETECTION_BATCH_SIZE, total capped at DETECTION_MAX_ROWS). A missing
// table yields an empty result and no error.
func (r *DetectionRepository) FetchDetections(ctx context.Context, tableName string, cleaned filters.Params, shift *catalog.Shift, partitionHint string) ([]detections.Detection, error) {
	return r.FetchDetectionsLimit(ctx, tableName, cleaned, shift, partitionHint, config.DetectionMaxRows)
}

// FetchDetectionsLimit is FetchDetections with a caller-supplied row
// cap, used by the single-line GET endpoint's limit parameter.
func (r *DetectionRepository) FetchDetectionsLimit(ctx context.Context, tableName string, cleaned filters.Params, shift *catalog.Shift, partitionHint string, maxRows int) ([]detections.Detection, error) {
	cap := maxRows
	if cap <= 0 || cap > config.DetectionMaxRows {
		cap = config.DetectionMaxRows
	}
	batchSize := config.DetectionBatchSize

	var out []detections.Detection
	cursorID := int64(0)
	totalFetched := 0

	for totalFetched < cap {
		batchLimit := batchSize
		if remaining := cap - totalFetched; remaining < batchLimit {
			batchLimit = remaining
		}

		sqlStr, args := query.DetectionQuery(tableName, cleaned, shift, cursorID, batchLimit, partitionHint)

		page, err := r.queryPage(ctx, sqlStr, args)
		if err != nil {
			if errors.Is(err, ErrTableMissing) {
				r.logger.Database().Debug("Detection table does not exist, treating as empty", "table", tableName, "tenantId", r.tenantID)
				return nil, nil
			}
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		out = append(out, page...)
		cursorID = page[len(page)-1].DetectionID
		totalFetched += len(page)

		r.logger.Database().Debug("Detection batch fetched",
			"table", tableName, "batch", len(page), "total", totalFetched, "cursor", cursorID)

		if len(page) < batchLimit {
			break
		}
	}

	r.logger.Database().Info("Detection fetch complete", "table", tableName, "rows", totalFetched, "tenantId", r.tenantID)
	return out, nil
}

// queryPage runs one paginated SELECT and scans the batch.
func (r *DetectionRepository) queryPage(ctx context.Context, sqlStr string, args []any) ([]detections.Detection, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		if isMissingTable(err) {
			return nil, ErrTableMissing
		}
		return nil, err
	}
	defer rows.Close()

	var page []detections.Detection
	for rows.Next() {
		var d detections.Detection
		var productID sql.NullInt64
		if err := rows.Scan(&d.DetectionID, &d.DetectedAt, &d.AreaID, &productID); err != nil {
			return nil, err
		}
		if productID.Valid {
			pid := int(productID.Int64)
			d.ProductID = &pid
		}
		page = append(page, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "BULK_DETECTION_FETCH", time.Since(start), r.tenantID)
	return page, nil
}

// FetchDetectionsMultiLine fetches detections for several production
// lines and concatenates the results, attaching the line_id to every
// row. Errors on one line are logged and that line is skipped so the
// remaining lines still contribute.
func (r *DetectionRepository) FetchDetectionsMultiLine(ctx context.Context, lines []LineQuery, cleaned filters.Params, shift *catalog.Shift) ([]detections.Detection, error) {
	marker := r.perfTracker.StartOperation("fetch_detections_bulk", r.tenantID)
	defer r.perfTracker.CompleteOperation(marker)

	var combined []detections.Detection
	for _, lq := range lines {
		if lq.TableName == "" {
			r.logger.Database().Warn("No detection table for line, skipping", "lineId", lq.LineID, "tenantId", r.tenantID)
			continue
		}

		rows, err := r.FetchDetections(ctx, lq.TableName, cleaned, shift, lq.PartitionHint)
		if err != nil {
			r.logger.Database().Error("Detection fetch failed for line, skipping",
				"lineId", lq.LineID, "table", lq.TableName, "error", err.Error(), "tenantId", r.tenantID)
			continue
		}

		for i := range rows {
			rows[i].LineID = lq.LineID
		}
		combined = append(combined, rows...)
	}

	marker.AddRows(int64(len(combined)))
	return combined, nil
}

// CountDetections returns the number of rows matching the filters. A
// missing table counts zero.
func (r *DetectionRepository) CountDetections(ctx context.Context, tableName string, cleaned filters.Params, shift *catalog.Shift, partitionHint string) (int64, error) {
	start := time.Now()

	sqlStr, args := query.DetectionCountQuery(tableName, cleaned, shift, partitionHint)

	var total int64
	err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}

	database.CheckAndLogSlowQuery(r.logger, "DETECTION_COUNT", time.Since(start), r.tenantID)
	return total, nil
}

// FetchAggregated returns GROUP BY buckets for a detection table, for
// example detections per area_id. A missing table yields no buckets.
func (r *DetectionRepository) FetchAggregated(ctx context.Context, tableName string, cleaned filters.Params, shift *catalog.Shift, groupColumn, aggFunc, aggColumn, partitionHint string) ([]AggregateRow, error) {
	start := time.Now()

	sqlStr, args := query.AggregationQuery(tableName, cleaned, shift, groupColumn, aggFunc, aggColumn, partitionHint)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var out []AggregateRow
	for rows.Next() {
		var row AggregateRow
		if err := rows.Scan(&row.Group, &row.Value); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "DETECTION_AGGREGATE", time.Since(start), r.tenantID)
	return out, nil
}
