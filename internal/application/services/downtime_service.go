package services

import (
	"context"
	"sort"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// DowntimeService coordinates the downtime pipeline: DB-recorded
// events, gap-calculated events from detection timestamps,
// de-duplication with DB events winning, and line enrichment.
type DowntimeService struct {
	tables      *TableResolver
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDowntimeService creates the downtime service.
func NewDowntimeService(tables *TableResolver, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DowntimeService {
	return &DowntimeService{tables: tables, logger: logger, perfTracker: perfTracker}
}

// GetDowntime runs the full downtime pipeline for the given lines. The
// enriched detection set feeds the gap calculation; the user threshold
// override in cleaned replaces each line's configured threshold when
// present. Events come back sorted by start time with line names
// attached.
func (s *DowntimeService) GetDowntime(ctx context.Context, tenantCtx *tenant.Context, lineIDs []int, cleaned filters.Params, set *detections.EnrichedSet) ([]detections.DowntimeEvent, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, err
	}

	marker := s.perfTracker.StartOperation("downtime_calc", tenantCtx.TenantID)
	defer s.perfTracker.CompleteOperation(marker)

	queries := s.tables.DowntimeQueries(snap, lineIDs)
	shift := resolveShift(snap, cleaned)

	dbEvents, err := tenantCtx.DowntimeRepo().FetchDowntimeMultiLine(ctx, queries, cleaned, shift)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	threshold := 0
	if override, ok := cleaned.DowntimeThreshold(); ok {
		threshold = override
	}
	calcEvents := analytics.CalculateGapDowntimes(set, lineIDs, snap.ProductionLines, threshold)

	if len(calcEvents) > 0 && len(dbEvents) > 0 {
		calcEvents = analytics.RemoveOverlapping(calcEvents, dbEvents)
	}

	merged := make([]detections.DowntimeEvent, 0, len(dbEvents)+len(calcEvents))
	merged = append(merged, dbEvents...)
	merged = append(merged, calcEvents...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartTime.Before(merged[j].StartTime)
	})

	enriched := analytics.EnrichDowntime(merged, snap.ProductionLines)

	s.logger.Analytics().Info("Downtime pipeline complete",
		"total", len(enriched), "db", len(dbEvents), "calculated", len(calcEvents),
		"tenantId", tenantCtx.TenantID)
	marker.SetSuccess(true)
	marker.AddRows(int64(len(enriched)))
	return enriched, nil
}
