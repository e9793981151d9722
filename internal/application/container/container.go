// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/CametIO/camet-analytics-go/internal/application/services"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/notifications"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Pipeline services (stateless singletons)
	LineResolver     *services.LineResolver
	TableResolver    *services.TableResolver
	WidgetResolver   *services.WidgetResolver
	DetectionService *services.DetectionService
	DowntimeService  *services.DowntimeService
	DashboardService *services.DashboardService
	FilterService    *services.FilterService
	LayoutService    *services.LayoutService

	// Surface services
	AuthService      *services.AuthService
	ExportService    *services.ExportService
	PartitionService *services.PartitionService

	// Infrastructure dependencies
	TenantManager *tenant.Manager
	CacheManager  *manager.Manager
	GlobalDB      *database.DB
	Logger        *logging.ChanneledLogger
	PerfTracker   *performance.Tracker
	Alerts        notifications.Service
}

// NewContainer creates and wires all singleton services
func NewContainer(tenantManager *tenant.Manager, cacheManager *manager.Manager, globalDB *database.DB, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	alerts := notifications.NewService(logger)

	perfTracker.SetAlertNotifier(func(alert *performance.PerformanceAlert) {
		if err := alerts.SendSlowOperationAlert(alert.Operation, alert.TenantID, alert.Actual); err != nil {
			logger.Alert().Warn("Could not send slow operation alert",
				"operation", alert.Operation, "tenantId", alert.TenantID, "error", err.Error())
		}
	})

	layoutRepo := globaldb.NewLayoutRepository(globalDB, logger)
	userRepo := globaldb.NewUserRepository(globalDB, logger)

	tableResolver := services.NewTableResolver(logger)
	lineResolver := services.NewLineResolver(logger, perfTracker)
	detectionService := services.NewDetectionService(tableResolver, logger, perfTracker)
	downtimeService := services.NewDowntimeService(tableResolver, logger, perfTracker)
	layoutService := services.NewLayoutService(layoutRepo, logger, perfTracker)
	widgetResolver := services.NewWidgetResolver(layoutService, logger, perfTracker)

	return &Container{
		LineResolver:     lineResolver,
		TableResolver:    tableResolver,
		WidgetResolver:   widgetResolver,
		DetectionService: detectionService,
		DowntimeService:  downtimeService,
		DashboardService: services.NewDashboardService(
			lineResolver, widgetResolver, detectionService, downtimeService, logger, perfTracker),
		FilterService: services.NewFilterService(logger),
		LayoutService: layoutService,

		AuthService:      services.NewAuthService(userRepo, logger),
		ExportService:    services.NewExportService(logger),
		PartitionService: services.NewPartitionService(tenantManager, tableResolver, alerts, logger, perfTracker),

		TenantManager: tenantManager,
		CacheManager:  cacheManager,
		GlobalDB:      globalDB,
		Logger:        logger,
		PerfTracker:   perfTracker,
		Alerts:        alerts,
	}
}
