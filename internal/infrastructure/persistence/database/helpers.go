// Package database provides database helper functions
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/pkg/config"
)

// TestConnection verifies that a database answers a trivial query.
func TestConnection(db *sql.DB) error {
	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}
	return nil
}

// TestConnectionWithLogger verifies a database connection with logging.
func TestConnectionWithLogger(db *sql.DB, dbName string, logger *logging.ChanneledLogger) error {
	start := time.Now()
	logger.Database().Debug("Testing database connection", "dbName", dbName)

	if err := TestConnection(db); err != nil {
		logger.Database().Error("Database connection test failed", "error", err.Error(), "dbName", dbName)
		return err
	}

	logger.Database().Info("Database connection test successful", "dbName", dbName, "duration", time.Since(start))
	return nil
}

// SlowQueryThreshold returns the configured slow query threshold.
func SlowQueryThreshold() time.Duration {
	return time.Duration(config.SlowQueryThresholdMs) * time.Millisecond
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, tenantID string) {
	threshold := SlowQueryThreshold()

	// Bulk cursor fetches legitimately run longer than point queries.
	if strings.HasPrefix(query, "BULK_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration, tenantID)
	}
}
