// Package database provides the core functionality for creating and managing
// MySQL connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/CametIO/camet-analytics-go/internal/infrastructure/observability/logging"
	"github.com/CametIO/camet-analytics-go/pkg/config"
	_ "github.com/go-sql-driver/mysql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// DSN builds a MySQL data source name for the given credentials and schema.
// parseTime is required so DATETIME columns scan into time.Time.
func DSN(user, password, host string, port int, dbName string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local&charset=utf8mb4",
		user, password, host, port, dbName)
}

// NewConnection establishes a new MySQL connection with the minimal pooling
// policy. The deployment target caps simultaneous connections, so idle reuse
// across requests is disabled.
func NewConnection(dataSourceName string) (*DB, error) {
	db, err := sql.Open("mysql", dataSourceName)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// NewConnectionWithLogger establishes a new MySQL connection with logging.
func NewConnectionWithLogger(dataSourceName, dbName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "dbName", dbName)

	db, err := NewConnection(dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "dbName", dbName)
		return nil, err
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "dbName", dbName, "duration", duration)
	if duration > SlowQueryThreshold() {
		logger.LogSlowQuery("DATABASE_CONNECTION", duration, dbName)
	}

	return db, nil
}
