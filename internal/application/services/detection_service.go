package services

import (
	"context"

	"github.com/CametIO/camet-analytics-go/internal/domain/analytics"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/catalog"
	"github.com/CametIO/camet-analytics-go/internal/domain/entities/detections"
	"github.com/CametIO/camet-analytics-go/internal/domain/filters"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/types"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// DetectionService coordinates the detection extraction pipeline:
// table resolution, partition hints, the cursor-paginated fetch and
// enrichment. Its enriched set is the single input consumed by every
// widget processor downstream.
type DetectionService struct {
	tables      *TableResolver
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDetectionService creates the detection service.
func NewDetectionService(tables *TableResolver, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DetectionService {
	return &DetectionService{tables: tables, logger: logger, perfTracker: perfTracker}
}

// DetectionCount holds per-line counts without the rows themselves.
type DetectionCount struct {
	Total   int64         `json:"total"`
	PerLine map[int]int64 `json:"per_line"`
}

// GetEnrichedDetections fetches raw detections for the given lines and
// left-joins them against the cached metadata. No lines or no rows
// yield an empty set, never an error.
func (s *DetectionService) GetEnrichedDetections(ctx context.Context, tenantCtx *tenant.Context, lineIDs []int, cleaned filters.Params) (*detections.EnrichedSet, error) {
	if len(lineIDs) == 0 {
		return detections.EmptyEnrichedSet(), nil
	}

	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, err
	}

	marker := s.perfTracker.StartOperation("detections_pipeline", tenantCtx.TenantID)
	defer s.perfTracker.CompleteOperation(marker)

	queries := s.tables.DetectionQueries(snap, lineIDs, cleaned)
	shift := resolveShift(snap, cleaned)

	rows, err := tenantCtx.DetectionRepo().FetchDetectionsMultiLine(ctx, queries, cleaned, shift)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	if len(rows) == 0 {
		s.logger.Analytics().Info("No detections found for given filters", "tenantId", tenantCtx.TenantID)
		marker.SetSuccess(true)
		return detections.EmptyEnrichedSet(), nil
	}

	set := analytics.Enrich(rows, snap.Areas, snap.Products, snap.ProductionLines)

	s.logger.Analytics().Info("Detections enriched",
		"rows", set.Len(), "lines", len(lineIDs), "tenantId", tenantCtx.TenantID)
	marker.SetSuccess(true)
	marker.AddRows(int64(set.Len()))
	return set, nil
}

// GetLineDetections fetches up to maxRows enriched detections for a
// single line, for the GET convenience endpoint.
func (s *DetectionService) GetLineDetections(ctx context.Context, tenantCtx *tenant.Context, lineID int, cleaned filters.Params, maxRows int) (*detections.EnrichedSet, error) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return nil, err
	}

	tableName := s.tables.DetectionTable(snap, lineID)
	if tableName == "" {
		return nil, ErrLineNotFound
	}

	shift := resolveShift(snap, cleaned)
	rows, err := tenantCtx.DetectionRepo().FetchDetectionsLimit(ctx, tableName, cleaned, shift, partitionHintFor(cleaned), maxRows)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].LineID = lineID
	}
	return analytics.Enrich(rows, snap.Areas, snap.Products, snap.ProductionLines), nil
}

// CountDetections returns matching row counts per line without
// fetching rows. Lines without a table are left out of the map.
func (s *DetectionService) CountDetections(ctx context.Context, tenantCtx *tenant.Context, lineIDs []int, cleaned filters.Params) (DetectionCount, error) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return DetectionCount{}, err
	}

	shift := resolveShift(snap, cleaned)
	repo := tenantCtx.DetectionRepo()

	result := DetectionCount{PerLine: make(map[int]int64, len(lineIDs))}
	for _, lineID := range lineIDs {
		tableName := s.tables.DetectionTable(snap, lineID)
		if tableName == "" {
			continue
		}
		count, err := repo.CountDetections(ctx, tableName, cleaned, shift, "")
		if err != nil {
			return DetectionCount{}, err
		}
		result.PerLine[lineID] = count
		result.Total += count
	}
	return result, nil
}

// GetDetectionSummary returns the total and a breakdown by area_type
// for the matching detections.
func (s *DetectionService) GetDetectionSummary(ctx context.Context, tenantCtx *tenant.Context, lineIDs []int, cleaned filters.Params) (map[string]any, error) {
	set, err := s.GetEnrichedDetections(ctx, tenantCtx, lineIDs, cleaned)
	if err != nil {
		return nil, err
	}
	if set.Empty() {
		return map[string]any{"total": 0, "by_area_type": map[string]int{}}, nil
	}

	byType := make(map[string]int)
	for _, row := range set.Rows() {
		byType[row.AreaType]++
	}

	return map[string]any{
		"total":         set.Len(),
		"by_area_type":  byType,
		"lines_queried": lineIDs,
	}, nil
}

// resolveShift looks up the selected shift in the snapshot. Unknown or
// absent shift IDs resolve to nil, meaning no shift clause.
func resolveShift(snap *types.Snapshot, cleaned filters.Params) *catalog.Shift {
	id, ok := cleaned.ShiftID()
	if !ok {
		return nil
	}
	shift, ok := snap.Shift(id)
	if !ok {
		return nil
	}
	return &shift
}
