// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/application/container"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/caching/manager"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/performance"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/database"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/globaldb"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/persistence/metadata"
	"github.com/CametIO/camet-analytics-go/internal/infrastructure/tenant"
	"github.com/CametIO/camet-analytics-go/internal/presentation/http/server"
	"github.com/CametIO/camet-analytics-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete multi-tenant startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

  ▄████▄  ▄▄▄▄  ▄▄   ▄▄ ▄████▄ ▄██████
 ██▀  ▀▀ ██▀▀██ ███▄███ ██▀    ▀▀██▀▀
 ██      ██▄▄██ ██▀█▀██ ██████   ██
 ██▄  ▄▄ ██  ██ ██ ▀ ██ ██       ██
  ▀████▀ ██  ██ ██   ██ ▀████▀   ██
` + "\033[97m" + `
  production analytics service
` + "\033[0m")

	// Step 1: Initialize observability
	log.Println("Initializing observability...")
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	perfTracker := performance.NewTracker(nil)
	logger.Startup().Info("Channeled logging and performance tracking initialized")

	// Step 2: Connect to the global database
	logger.Startup().Info("Connecting to global database...", "database", config.GlobalDBName)
	dsn := database.DSN(config.GlobalDBUser, config.GlobalDBPassword, config.GlobalDBHost, config.GlobalDBPort, config.GlobalDBName)
	globalDB, err := database.NewConnectionWithLogger(dsn, config.GlobalDBName, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to global database: %w", err)
	}

	// Step 3: Load tenant registry from the global database
	logger.Startup().Info("Loading tenant registry...")
	tenantRepo := globaldb.NewTenantRepository(globalDB, logger)
	tenantManager := tenant.NewManager(tenantRepo, logger, perfTracker)
	if err := tenantManager.RefreshRegistry(ctx); err != nil {
		return fmt.Errorf("failed to load tenant registry: %w", err)
	}
	logger.Startup().Info("Tenant registry loaded", "tenantCount", tenantManager.GetActiveTenantCount())

	// Step 4: Pre-activate tenant database pools
	logger.Startup().Info("Starting tenant pre-activation...")
	if err := tenantManager.PreActivateAllTenants(ctx); err != nil {
		return fmt.Errorf("tenant pre-activation failed: %w", err)
	}
	if err := tenantManager.ValidatePreActivation(); err != nil {
		return fmt.Errorf("tenant validation failed: %w", err)
	}
	activeCount := tenantManager.GetActiveTenantCount()
	logger.Startup().Info("Active tenant connections verified", "activeTenants", activeCount)

	// Step 5: Initialize metadata cache
	logger.Startup().Info("Initializing metadata cache...")
	loader := metadata.NewLoader(tenantManager, globalDB, logger, perfTracker)
	cacheManager := manager.NewManager(loader, logger)
	tenantManager.SetCacheManager(cacheManager)

	// Step 6: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(tenantManager, cacheManager, globalDB, logger, perfTracker)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 7: Warm metadata caches for every registered tenant
	logger.Startup().Info("Warming metadata caches...")
	startWarmTime := time.Now()

	warmed := 0
	for _, dbName := range tenantManager.TenantNames() {
		if err := cacheManager.LoadForTenant(ctx, dbName); err != nil {
			logger.Startup().Error("Cache warming failed for tenant", "dbName", dbName, "error", err.Error())
			continue
		}
		warmed++
	}
	logger.LogStartupPhase("cache_warming", time.Since(startWarmTime), warmed == activeCount)
	logger.Startup().Info("Metadata caches warmed", "warmed", warmed, "tenants", activeCount)

	// Step 8: Start partition sweep worker
	if config.PartitionSweepIntervalHour > 0 {
		logger.Startup().Info("Starting partition sweep worker...")
		go runPartitionSweep(ctx, appContainer, logger)
	} else {
		logger.Startup().Info("Partition sweep worker disabled")
	}

	// Step 9: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 10: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"activeTenants", activeCount,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Close tenant pools
	logger.Shutdown().Info("Closing tenant manager...")
	if err := tenantManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing tenant manager", "error", err.Error())
	} else {
		logger.Shutdown().Info("Tenant manager closed successfully")
	}

	// Close the global database pool
	if err := globalDB.Close(); err != nil {
		logger.Shutdown().Error("Error closing global database", "error", err.Error())
	}

	elapsed := time.Since(start)
	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", elapsed,
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// runPartitionSweep keeps detection partitions ahead of the calendar for
// every tenant. The first sweep runs shortly after startup so slow tenant
// databases never delay serving traffic, then the sweep repeats on the
// configured interval.
func runPartitionSweep(ctx context.Context, c *container.Container, logger *logging.ChanneledLogger) {
	initial := time.NewTimer(time.Minute)
	defer initial.Stop()

	select {
	case <-ctx.Done():
		return
	case <-initial.C:
	}

	logger.Partition().Info("Running initial partition sweep")
	c.PartitionService.SweepAll(ctx)

	ticker := time.NewTicker(time.Duration(config.PartitionSweepIntervalHour) * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PartitionService.SweepAll(ctx)
		}
	}
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
