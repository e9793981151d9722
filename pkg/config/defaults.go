// Package config provides centralized default values for the Camet
// analytics backend. Values are read from the environment at init time,
// with optional overrides from a .env file in the working directory.
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Global Database (tenant registry, users, layouts, widget catalog)
	GlobalDBHost     string
	GlobalDBPort     int
	GlobalDBName     string
	GlobalDBUser     string
	GlobalDBPassword string

	// Tenant Database template (db name comes from tenant.config_tenant)
	TenantDBHost     string
	TenantDBPort     int
	TenantDBUser     string
	TenantDBPassword string

	// Database pool. The deployment target caps simultaneous
	// connections, so idle reuse across requests is disabled.
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// Cursor pagination
	DetectionBatchSize int
	DetectionMaxRows   int
	DowntimeBatchSize  int
	DowntimeMaxRows    int

	// Partition maintenance
	PartitionMonthsAhead       int
	PartitionRetentionMonths   int
	PartitionSweepIntervalHour int

	// Observability
	LogDir               string
	LogLevel             string
	LogFormat            string
	SlowQueryThresholdMs int
	SlowOpThresholdMs    int
	VerySlowOpMs         int
	DetailedPerfLogging  bool

	// Auth
	JWTSecret        string
	JWTExpiryMinutes int
	AESKey           string
	Argon2TimeCost   int
	Argon2MemoryKB   int
	Argon2Threads    int

	// Ops alerts (empty recipient disables the mailer)
	ResendAPIKey   string
	AlertEmailFrom string
	AlertEmailTo   string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Global Database
	GlobalDBHost = getEnvString("GLOBAL_DB_HOST", "localhost")
	GlobalDBPort = getEnvInt("GLOBAL_DB_PORT", 3306)
	GlobalDBName = getEnvString("GLOBAL_DB_NAME", "camet_global")
	GlobalDBUser = getEnvString("GLOBAL_DB_USER", "root")
	GlobalDBPassword = getEnvString("GLOBAL_DB_PASSWORD", "")

	// Tenant Database template
	TenantDBHost = getEnvString("TENANT_DB_HOST", "localhost")
	TenantDBPort = getEnvInt("TENANT_DB_PORT", 3306)
	TenantDBUser = getEnvString("TENANT_DB_USER", "root")
	TenantDBPassword = getEnvString("TENANT_DB_PASSWORD", "")

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 4)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 0)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	// Cursor pagination
	DetectionBatchSize = getEnvInt("DETECTION_BATCH_SIZE", 500000)
	DetectionMaxRows = getEnvInt("DETECTION_MAX_ROWS", 2000000)
	DowntimeBatchSize = getEnvInt("DOWNTIME_BATCH_SIZE", 10000)
	DowntimeMaxRows = getEnvInt("DOWNTIME_MAX_ROWS", 100000)

	// Partition maintenance
	PartitionMonthsAhead = getEnvInt("PARTITION_MONTHS_AHEAD", 3)
	PartitionRetentionMonths = getEnvInt("PARTITION_RETENTION_MONTHS", 24)
	PartitionSweepIntervalHour = getEnvInt("PARTITION_SWEEP_INTERVAL_HOURS", 24)

	// Observability
	LogDir = getEnvString("LOG_DIR", "logs")
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
	LogFormat = getEnvString("LOG_FORMAT", "json")
	SlowQueryThresholdMs = getEnvInt("SLOW_QUERY_THRESHOLD_MS", 500)
	SlowOpThresholdMs = getEnvInt("SLOW_OP_THRESHOLD_MS", 1000)
	VerySlowOpMs = getEnvInt("VERY_SLOW_OP_THRESHOLD_MS", 5000)
	DetailedPerfLogging = getEnvBool("DETAILED_PERF_LOGGING", false)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	JWTExpiryMinutes = getEnvInt("JWT_EXPIRY_MINUTES", 15)
	AESKey = getEnvString("AES_KEY", "")
	Argon2TimeCost = getEnvInt("ARGON2_TIME_COST", 2)
	Argon2MemoryKB = getEnvInt("ARGON2_MEMORY_KB", 65536)
	Argon2Threads = getEnvInt("ARGON2_PARALLELISM", 1)

	// Ops alerts
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	AlertEmailFrom = getEnvString("ALERT_EMAIL_FROM", "alerts@camet.io")
	AlertEmailTo = getEnvString("ALERT_EMAIL_TO", "")
}
