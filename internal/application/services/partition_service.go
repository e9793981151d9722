package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/notifications"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// ErrLineNotFound reports a line_id with no cached production line.
var ErrLineNotFound = errors.New("line not found")

// PartitionService manages the monthly partitions of the per-line
// detection tables: the admin ensure/list endpoints plus the periodic
// sweep that keeps every tenant ahead of the calendar and applies the
// retention window.
type PartitionService struct {
	manager     *tenant.Manager
	tables      *TableResolver
	alerts      notifications.Service
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPartitionService creates the partition service.
func NewPartitionService(manager *tenant.Manager, tables *TableResolver, alerts notifications.Service, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PartitionService {
	return &PartitionService{
		manager:     manager,
		tables:      tables,
		alerts:      alerts,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// EnsureForLine creates any missing monthly partitions for one line's
// detection table, covering monthsAhead months from now. Returns the
// table name and the partitions created.
func (s *PartitionService) EnsureForLine(ctx context.Context, tenantCtx *tenant.Context, lineID, monthsAhead int) (string, []string, error) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return "", nil, err
	}

	tableName := s.tables.DetectionTable(snap, lineID)
	if tableName == "" {
		return "", nil, ErrLineNotFound
	}

	if monthsAhead <= 0 {
		monthsAhead = config.PartitionMonthsAhead
	}

	marker := s.perfTracker.StartOperation("partition_ensure", tenantCtx.TenantID)
	defer s.perfTracker.CompleteOperation(marker)

	created, err := tenantCtx.PartitionManager().EnsurePartitions(ctx, tableName, monthsAhead, time.Now())
	if err != nil {
		marker.SetError(err)
		return tableName, nil, err
	}

	marker.SetSuccess(true)
	marker.AddMetadata("created", len(created))
	return tableName, created, nil
}

// ListForLine returns the existing partitions of one line's detection
// table.
func (s *PartitionService) ListForLine(ctx context.Context, tenantCtx *tenant.Context, lineID int) (string, []string, error) {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return "", nil, err
	}

	tableName := s.tables.DetectionTable(snap, lineID)
	if tableName == "" {
		return "", nil, ErrLineNotFound
	}

	partitions, err := tenantCtx.PartitionManager().GetExistingPartitions(ctx, tableName)
	if err != nil {
		return tableName, nil, err
	}
	return tableName, partitions, nil
}

// SweepTenant ensures future partitions and drops expired ones on
// every active line of one tenant. Per-line failures are logged and
// the sweep continues; the first error comes back so the caller can
// alert on it.
func (s *PartitionService) SweepTenant(ctx context.Context, tenantCtx *tenant.Context) error {
	snap, err := tenantCtx.Snapshot()
	if err != nil {
		return err
	}

	pm := tenantCtx.PartitionManager()
	var firstErr error

	for _, lineID := range snap.ActiveLineIDs() {
		tableName := s.tables.DetectionTable(snap, lineID)
		if tableName == "" {
			continue
		}

		created, err := pm.EnsurePartitions(ctx, tableName, config.PartitionMonthsAhead, time.Now())
		if err != nil {
			s.logger.Partition().Error("Partition ensure failed during sweep",
				"table", tableName, "error", err.Error(), "tenantId", tenantCtx.TenantID)
			if firstErr == nil {
				firstErr = fmt.Errorf("ensure %s: %w", tableName, err)
			}
			continue
		}
		if len(created) > 0 {
			s.logger.Partition().Info("Partitions created during sweep",
				"table", tableName, "created", created, "tenantId", tenantCtx.TenantID)
		}

		dropped, err := pm.DropOldPartitions(ctx, tableName, config.PartitionRetentionMonths, time.Now())
		if err != nil {
			s.logger.Partition().Error("Partition retention drop failed during sweep",
				"table", tableName, "error", err.Error(), "tenantId", tenantCtx.TenantID)
			if firstErr == nil {
				firstErr = fmt.Errorf("retention %s: %w", tableName, err)
			}
			continue
		}
		if len(dropped) > 0 {
			s.logger.Partition().Info("Expired partitions dropped during sweep",
				"table", tableName, "dropped", dropped, "tenantId", tenantCtx.TenantID)
		}
	}

	return firstErr
}

// SweepAll sweeps every registered tenant, loading metadata caches on
// demand. A failing tenant raises an ops alert and the sweep moves on.
func (s *PartitionService) SweepAll(ctx context.Context) {
	marker := s.perfTracker.StartOperation("partition_sweep", "global")
	defer s.perfTracker.CompleteOperation(marker)

	if err := s.manager.RefreshRegistry(ctx); err != nil {
		s.logger.Partition().Error("Registry refresh failed before sweep", "error", err.Error())
	}

	var failed []string
	for _, dbName := range s.manager.TenantNames() {
		if err := s.sweepOne(ctx, dbName); err != nil {
			failed = append(failed, dbName)
			s.logger.LogError(logging.ChannelPartition, "partition_sweep", err, dbName)

			if alertErr := s.alerts.SendPartitionSweepAlert(dbName, "partition sweep failed", err); alertErr != nil {
				s.logger.Alert().Warn("Could not send sweep alert",
					"tenantId", dbName, "error", alertErr.Error())
			}
		}
	}

	if len(failed) > 0 {
		marker.SetError(fmt.Errorf("sweep failed for %d tenants: %v", len(failed), failed))
		return
	}
	marker.SetSuccess(true)
}

func (s *PartitionService) sweepOne(ctx context.Context, dbName string) error {
	cache := s.manager.GetCacheManager()
	if _, ok := cache.Snapshot(dbName); !ok {
		if err := cache.LoadForTenant(ctx, dbName); err != nil {
			return err
		}
	}

	tenantCtx, err := s.manager.NewContextFromID(ctx, dbName)
	if err != nil {
		return err
	}
	return s.SweepTenant(ctx, tenantCtx)
}
