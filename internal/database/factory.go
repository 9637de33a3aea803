package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// sqlx driver names
const (
	sqliteDriverName   = "sqlite3"
	postgresDriverName = "pgx"
)

// ConnectionFactory creates and manages database connections
type ConnectionFactory struct {
	logger *logrus.Logger
}

// NewConnectionFactory creates a new connection factory
func NewConnectionFactory(logger *logrus.Logger) *ConnectionFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionFactory{
		logger: logger,
	}
}

// CreateConnection creates a new database connection based on the configuration
func (f *ConnectionFactory) CreateConnection(ctx context.Context, config *repositories.Config) (*sqlx.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch config.Database.Driver {
	case repositories.DriverSQLite:
		return f.createSQLiteConnection(ctx, config)
	case repositories.DriverPostgres:
		return f.createPostgreSQLConnection(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
}

// createSQLiteConnection creates a SQLite database connection
func (f *ConnectionFactory) createSQLiteConnection(ctx context.Context, config *repositories.Config) (*sqlx.DB, error) {
	absPath, err := filepath.Abs(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := buildSQLiteDSN(absPath, config)

	f.logger.WithFields(logrus.Fields{
		"driver": repositories.DriverSQLite,
		"path":   absPath,
	}).Info("Creating SQLite connection")

	db, err := sqlx.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One writer at a time; a larger pool only adds SQLITE_BUSY retries
	pool := config.Pool
	pool.MaxOpenConns = 1
	if pool.MaxIdleConns > 1 {
		pool.MaxIdleConns = 1
	}
	f.configureConnectionPool(db, pool)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	f.applySQLiteSettings(ctx, db)

	f.logger.WithField("path", absPath).Info("SQLite connection established")
	return db, nil
}

// buildSQLiteDSN builds a SQLite DSN with foreign keys and WAL enabled
func buildSQLiteDSN(path string, config *repositories.Config) string {
	options := []string{
		"_foreign_keys=on",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
	}
	if config.Database.BusyTimeout > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", config.Database.BusyTimeout))
	}
	return fmt.Sprintf("%s?%s", path, strings.Join(options, "&"))
}

// applySQLiteSettings applies SQLite-specific settings
func (f *ConnectionFactory) applySQLiteSettings(ctx context.Context, db *sqlx.DB) {
	settings := []string{
		"PRAGMA temp_store = MEMORY",
		"PRAGMA optimize",
	}

	for _, setting := range settings {
		if _, err := db.ExecContext(ctx, setting); err != nil {
			f.logger.WithError(err).WithField("setting", setting).Warn("Failed to apply SQLite setting")
		} else {
			f.logger.WithField("setting", setting).Debug("Applied SQLite setting")
		}
	}
}

// createPostgreSQLConnection creates a PostgreSQL connection through the pgx stdlib driver
func (f *ConnectionFactory) createPostgreSQLConnection(ctx context.Context, config *repositories.Config) (*sqlx.DB, error) {
	connConfig, err := pgx.ParseConfig(config.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}
	if config.Database.StatementTimeout > 0 {
		connConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", config.Database.StatementTimeout.Milliseconds())
	}

	f.logger.WithFields(logrus.Fields{
		"driver": repositories.DriverPostgres,
		"host":   config.Database.Host,
		"port":   config.Database.Port,
		"name":   config.Database.Name,
	}).Info("Creating PostgreSQL connection")

	dsn := stdlib.RegisterConnConfig(connConfig)
	db, err := sqlx.Open(postgresDriverName, dsn)
	if err != nil {
		stdlib.UnregisterConnConfig(dsn)
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	f.configureConnectionPool(db, config.Pool)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}

	f.logger.WithField("host", config.Database.Host).Info("PostgreSQL connection established")
	return db, nil
}

// configureConnectionPool configures the database connection pool
func (f *ConnectionFactory) configureConnectionPool(db *sqlx.DB, pool repositories.PoolConfig) {
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	f.logger.WithFields(logrus.Fields{
		"max_open_conns":     pool.MaxOpenConns,
		"max_idle_conns":     pool.MaxIdleConns,
		"conn_max_lifetime":  pool.ConnMaxLifetime,
		"conn_max_idle_time": pool.ConnMaxIdleTime,
	}).Debug("Configured connection pool")
}

// HealthStatus represents the health status of the database
type HealthStatus struct {
	Healthy      bool              `json:"healthy"`
	Message      string            `json:"message"`
	ResponseTime time.Duration     `json:"response_time"`
	CheckedAt    time.Time         `json:"checked_at"`
	Details      map[string]string `json:"details,omitempty"`
}

// HealthChecker provides health checking capabilities for database connections
type HealthChecker struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sqlx.DB, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthChecker{
		db:     db,
		logger: logger,
	}
}

// CheckHealth pings the database and runs a trivial query
func (h *HealthChecker) CheckHealth(ctx context.Context) error {
	start := time.Now()
	defer func() {
		h.logger.WithField("duration", time.Since(start)).Debug("Health check completed")
	}()

	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := h.db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	return nil
}

// GetHealthStatus returns detailed health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		CheckedAt: start,
		Details:   make(map[string]string),
	}

	err := h.CheckHealth(ctx)
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Message = err.Error()
		return status
	}

	status.Healthy = true
	status.Message = "Database is healthy"

	stats := h.db.Stats()
	status.Details["driver"] = h.db.DriverName()
	status.Details["open_connections"] = fmt.Sprintf("%d", stats.OpenConnections)
	status.Details["in_use"] = fmt.Sprintf("%d", stats.InUse)
	status.Details["idle"] = fmt.Sprintf("%d", stats.Idle)
	status.Details["wait_count"] = fmt.Sprintf("%d", stats.WaitCount)

	return status
}
