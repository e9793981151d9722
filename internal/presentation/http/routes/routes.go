// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/CametIO/camet-analytics-go/internal/application/container"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/handlers"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestIDMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	dashboardHandlers := handlers.NewDashboardHandlers(container.DashboardService, container.FilterService, container.Logger, container.PerfTracker)
	detectionHandlers := handlers.NewDetectionHandlers(
		container.DetectionService,
		container.ExportService,
		container.PartitionService,
		container.LineResolver,
		container.Logger,
		container.PerfTracker,
	)
	filterHandlers := handlers.NewFilterHandlers(container.FilterService, container.Logger)
	layoutHandlers := handlers.NewLayoutHandlers(container.LayoutService, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.TenantManager, container.CacheManager, container.PerfTracker, container.Logger)

	adminOnly := middleware.AdminOnlyMiddleware(container.Logger)

	// Login and liveness run without tenant context: login determines
	// the tenant, and load balancers probe health with bare requests.
	r.POST("/api/v1/auth/login", authHandlers.PostLogin)
	r.GET("/api/v1/system/health", systemHandlers.HealthCheck)

	// API routes with tenant middleware
	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(container.TenantManager, container.PerfTracker))
	{
		// Dashboard orchestration
		dashboard := api.Group("/dashboard")
		{
			dashboard.POST("/data", dashboardHandlers.PostDashboardData)
			dashboard.GET("/data", dashboardHandlers.GetDashboardData)
			dashboard.POST("/preview", dashboardHandlers.PostDashboardPreview)
		}

		// Filter catalog
		filterGroup := api.Group("/filters")
		{
			filterGroup.GET("", filterHandlers.ListFilters)
			filterGroup.GET("/areas", filterHandlers.GetAreas)
			filterGroup.POST("/validate", filterHandlers.ValidateFilters)
			filterGroup.GET("/:class_name", filterHandlers.GetFilter)
			filterGroup.GET("/:class_name/options", filterHandlers.GetFilterOptions)
		}

		// Standalone detection queries and export
		detectionGroup := api.Group("/detections")
		{
			detectionGroup.POST("/query", detectionHandlers.QueryDetections)
			detectionGroup.POST("/count", detectionHandlers.CountDetections)
			detectionGroup.POST("/summary", detectionHandlers.DetectionSummary)
			detectionGroup.POST("/export", adminOnly, detectionHandlers.ExportDetections)
			detectionGroup.GET("/partitions/:line_id", adminOnly, detectionHandlers.ListPartitions)
			detectionGroup.POST("/partitions/ensure/:line_id", adminOnly, detectionHandlers.EnsurePartitions)
			detectionGroup.GET("/:line_id", detectionHandlers.GetLineDetections)
		}

		// Layout resolution
		layout := api.Group("/layout")
		{
			layout.GET("/config", layoutHandlers.GetLayoutConfig)
			layout.GET("/widgets", layoutHandlers.GetLayoutWidgets)
			layout.GET("/filters", layoutHandlers.GetLayoutFilters)
		}

		// System administration. The frontend calls cache load right
		// after login for every role, so it carries no admin guard.
		system := api.Group("/system")
		{
			system.GET("/cache/info", systemHandlers.GetCacheInfo)
			system.POST("/cache/load/:db_name", systemHandlers.PostCacheLoad)
			system.POST("/cache/refresh", adminOnly, systemHandlers.PostCacheRefresh)
			system.GET("/metrics", adminOnly, systemHandlers.GetMetrics)
		}
	}

	return r
}
