package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents repository configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Connection pool configuration
	Pool PoolConfig `json:"pool" yaml:"pool"`

	// Query configuration
	Query QueryConfig `json:"query" yaml:"query"`

	// Migration configuration
	Migration MigrationConfig `json:"migration" yaml:"migration"`
}

// DatabaseConfig represents database-specific configuration
type DatabaseConfig struct {
	// Driver specifies the database driver (sqlite, postgres)
	Driver string `json:"driver" yaml:"driver"`

	// Path is the database file path (for SQLite)
	Path string `json:"path" yaml:"path"`

	// BusyTimeout for SQLite (in milliseconds)
	BusyTimeout int `json:"busy_timeout" yaml:"busy_timeout"`

	// PostgreSQL connection settings
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"-" yaml:"password"`
	Name     string `json:"name" yaml:"name"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`

	// StatementTimeout bounds each PostgreSQL statement
	StatementTimeout time.Duration `json:"statement_timeout" yaml:"statement_timeout"`
}

// PoolConfig represents connection pool configuration
type PoolConfig struct {
	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`

	// ConnMaxLifetime is the maximum lifetime of a connection
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	// ConnMaxIdleTime is the maximum idle time of a connection
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

// QueryConfig represents query-specific configuration
type QueryConfig struct {
	// DefaultLimit is the default limit for list queries
	DefaultLimit int `json:"default_limit" yaml:"default_limit"`

	// MaxLimit is the maximum allowed limit for list queries
	MaxLimit int `json:"max_limit" yaml:"max_limit"`

	// SlowQueryThreshold is the threshold for logging slow queries
	SlowQueryThreshold time.Duration `json:"slow_query_threshold" yaml:"slow_query_threshold"`
}

// MigrationConfig represents migration configuration
type MigrationConfig struct {
	// Enabled runs pending migrations when a connection is opened
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a default repository configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           DriverSQLite,
			Path:             "data/nwassik.db",
			BusyTimeout:      5000,
			Port:             5432,
			SSLMode:          "disable",
			StatementTimeout: 30 * time.Second,
		},
		Pool: PoolConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
		Query: QueryConfig{
			DefaultLimit:       models.DefaultPageLimit,
			MaxLimit:           models.MaxPageLimit,
			SlowQueryThreshold: 500 * time.Millisecond,
		},
		Migration: MigrationConfig{
			Enabled: true,
		},
	}
}

// Validate validates the repository configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for SQLite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("database host is required for PostgreSQL")
		}
		if c.Database.Name == "" {
			return errors.New("database name is required for PostgreSQL")
		}
		if c.Database.User == "" {
			return errors.New("database user is required for PostgreSQL")
		}
	case "":
		return errors.New("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Pool.MaxOpenConns <= 0 {
		return errors.New("max open connections must be greater than 0")
	}

	if c.Pool.MaxIdleConns < 0 {
		return errors.New("max idle connections cannot be negative")
	}

	if c.Pool.MaxIdleConns > c.Pool.MaxOpenConns {
		return errors.New("max idle connections cannot exceed max open connections")
	}

	if c.Query.DefaultLimit <= 0 {
		return errors.New("default limit must be greater than 0")
	}

	if c.Query.MaxLimit <= 0 {
		return errors.New("max limit must be greater than 0")
	}

	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return errors.New("default limit cannot exceed max limit")
	}

	return nil
}

// IsSQLite returns true if the database driver is SQLite
func (c *Config) IsSQLite() bool {
	return c.Database.Driver == DriverSQLite
}

// IsPostgreSQL returns true if the database driver is PostgreSQL
func (c *Config) IsPostgreSQL() bool {
	return c.Database.Driver == DriverPostgres
}

// PostgresDSN builds a keyword/value connection string from the PostgreSQL settings
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ResolvePage applies the default and maximum limit to a list window.
// Zero means "use the default"; negative values are rejected.
func (q QueryConfig) ResolvePage(limit, offset int) (models.Page, error) {
	if limit < 0 {
		return models.Page{}, ValidationError("page", "", fmt.Errorf("limit must be a positive integer"))
	}
	if offset < 0 {
		return models.Page{}, ValidationError("page", "", fmt.Errorf("offset must be a non-negative integer"))
	}
	if limit == 0 {
		limit = q.DefaultLimit
	}
	if q.MaxLimit > 0 && limit > q.MaxLimit {
		limit = q.MaxLimit
	}
	return models.Page{Limit: limit, Offset: offset}, nil
}
