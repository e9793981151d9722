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
)

// DowntimeRepository executes downtime queries with cursor-based
// pagination. Mirrors DetectionRepository but targets the
// downtime_events_{name} tables, which are smaller and keyed by
// event_id.
type DowntimeRepository struct {
	tenantID    string
	db          *database.DB
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDowntimeRepository creates a downtime repository bound to one
// tenant's database connection.
func NewDowntimeRepository(tenantID string, db *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DowntimeRepository {
	return &DowntimeRepository{
		tenantID:    tenantID,
		db:          db,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// FetchDowntime fetches downtime events from a single table with cursor
// pagination (event_id > cursor, batches of DOWNTIME_BATCH_SIZE, capped
// at DOWNTIME_MAX_ROWS). Rows come back with source "db" and duration in
// seconds. A missing table yields an empty result and no error.
func (r *DowntimeRepository) FetchDowntime(ctx context.Context, tableName string, cleaned filters.Params, shift *catalog.Shift) ([]detections.DowntimeEvent, error) {
	cap := config.DowntimeMaxRows
	batchSize := config.DowntimeBatchSize

	var out []detections.DowntimeEvent
	cursorID := int64(0)
	totalFetched := 0

	for totalFetched < cap {
		batchLimit := batchSize
		if remaining := cap - totalFetched; remaining < batchLimit {
			batchLimit = remaining
		}

		sqlStr, args := query.DowntimeQuery(tableName, cleaned, shift, cursorID, batchLimit)

		page, err := r.queryPage(ctx, sqlStr, args)
		if err != nil {
			if errors.Is(err, ErrTableMissing) {
				r.logger.Database().Debug("Downtime table does not exist, treating as empty", "table", tableName, "tenantId", r.tenantID)
				return nil, nil
			}
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		out = append(out, page...)
		cursorID = page[len(page)-1].EventID
		totalFetched += len(page)

		if len(page) < batchLimit {
			break
		}
	}

	r.logger.Database().Info("Downtime fetch complete", "table", tableName, "events", totalFetched, "tenantId", r.tenantID)
	return out, nil
}

// queryPage runs one paginated SELECT and scans the batch. The
// last_detection_id, reason and created_at columns are part of the table
// schema but not of the pipeline event shape, so they are discarded.
func (r *DowntimeRepository) queryPage(ctx context.Context, sqlStr string, args []any) ([]detections.DowntimeEvent, error) {
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		if isMissingTable(err) {
			return nil, ErrTableMissing
		}
		return nil, err
	}
	defer rows.Close()

	var page []detections.DowntimeEvent
	for rows.Next() {
		var e detections.DowntimeEvent
		var lastDetectionID sql.NullInt64
		var endTime sql.NullTime
		var duration sql.NullFloat64
		var reasonCode sql.NullInt64
		var reason sql.NullString
		var isManual sql.NullBool
		var createdAt sql.NullTime

		if err := rows.Scan(&e.EventID, &lastDetectionID, &e.StartTime, &endTime,
			&duration, &reasonCode, &reason, &isManual, &createdAt); err != nil {
			return nil, err
		}

		if duration.Valid {
			e.Duration = duration.Float64
		}
		if endTime.Valid {
			e.EndTime = endTime.Time
		} else {
			// Open events carry no end yet; project one from duration.
			e.EndTime = e.StartTime.Add(time.Duration(e.Duration * float64(time.Second)))
		}
		if reasonCode.Valid {
			rc := int(reasonCode.Int64)
			e.ReasonCode = &rc
		}
		e.IsManual = isManual.Valid && isManual.Bool
		e.Source = detections.SourceDB

		page = append(page, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, "BULK_DOWNTIME_FETCH", time.Since(start), r.tenantID)
	return page, nil
}

// FetchDowntimeMultiLine fetches downtime events for several production
// lines and concatenates them, attaching the line_id to every event.
// Errors on one line are logged and that line is skipped.
func (r *DowntimeRepository) FetchDowntimeMultiLine(ctx context.Context, lines []LineQuery, cleaned filters.Params, shift *catalog.Shift) ([]detections.DowntimeEvent, error) {
	marker := r.perfTracker.StartOperation("downtime_fetch_bulk", r.tenantID)
	defer r.perfTracker.CompleteOperation(marker)

	var combined []detections.DowntimeEvent
	for _, lq := range lines {
		if lq.TableName == "" {
			r.logger.Database().Warn("No downtime table for line, skipping", "lineId", lq.LineID, "tenantId", r.tenantID)
			continue
		}

		events, err := r.FetchDowntime(ctx, lq.TableName, cleaned, shift)
		if err != nil {
			r.logger.Database().Error("Downtime fetch failed for line, skipping",
				"lineId", lq.LineID, "table", lq.TableName, "error", err.Error(), "tenantId", r.tenantID)
			continue
		}

		for i := range events {
			events[i].LineID = lq.LineID
		}
		combined = append(combined, events...)
	}

	marker.AddRows(int64(len(combined)))
	return combined, nil
}
