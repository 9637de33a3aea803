package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	MaxLimit        int           `mapstructure:"max_limit"`
}

// DefaultDatabaseConfig returns default database configuration
func DefaultDatabaseConfig() *DatabaseConfig {
	defaults := repositories.DefaultConfig()
	return &DatabaseConfig{
		Driver:          defaults.Database.Driver,
		Path:            defaults.Database.Path,
		Port:            defaults.Database.Port,
		SSLMode:         defaults.Database.SSLMode,
		MaxOpenConns:    defaults.Pool.MaxOpenConns,
		MaxIdleConns:    defaults.Pool.MaxIdleConns,
		ConnMaxLifetime: defaults.Pool.ConnMaxLifetime,
		AutoMigrate:     defaults.Migration.Enabled,
		DefaultLimit:    defaults.Query.DefaultLimit,
		MaxLimit:        defaults.Query.MaxLimit,
	}
}

func setDatabaseDefaults() {
	defaults := DefaultDatabaseConfig()
	viper.SetDefault("DB_DRIVER", defaults.Driver)
	viper.SetDefault("DB_PATH", defaults.Path)
	viper.SetDefault("DB_PORT", defaults.Port)
	viper.SetDefault("DB_SSL_MODE", defaults.SSLMode)
	viper.SetDefault("DB_MAX_OPEN_CONNS", defaults.MaxOpenConns)
	viper.SetDefault("DB_MAX_IDLE_CONNS", defaults.MaxIdleConns)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", defaults.ConnMaxLifetime)
	viper.SetDefault("DB_AUTO_MIGRATE", defaults.AutoMigrate)
	viper.SetDefault("QUERY_DEFAULT_LIMIT", defaults.DefaultLimit)
	viper.SetDefault("QUERY_MAX_LIMIT", defaults.MaxLimit)
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          viper.GetString("DB_DRIVER"),
		Path:            viper.GetString("DB_PATH"),
		Host:            viper.GetString("DB_HOST"),
		Port:            viper.GetInt("DB_PORT"),
		User:            viper.GetString("DB_USER"),
		Password:        viper.GetString("DB_PASS"),
		Name:            viper.GetString("DB_NAME"),
		SSLMode:         viper.GetString("DB_SSL_MODE"),
		MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
		AutoMigrate:     viper.GetBool("DB_AUTO_MIGRATE"),
		DefaultLimit:    viper.GetInt("QUERY_DEFAULT_LIMIT"),
		MaxLimit:        viper.GetInt("QUERY_MAX_LIMIT"),
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	return c.ToRepositoryConfig().Validate()
}

// ToRepositoryConfig converts DatabaseConfig to the repository layer configuration
func (c *DatabaseConfig) ToRepositoryConfig() *repositories.Config {
	config := repositories.DefaultConfig()

	config.Database.Driver = c.Driver
	config.Database.Path = c.Path
	config.Database.Host = c.Host
	config.Database.Port = c.Port
	config.Database.User = c.User
	config.Database.Password = c.Password
	config.Database.Name = c.Name
	config.Database.SSLMode = c.SSLMode

	config.Pool.MaxOpenConns = c.MaxOpenConns
	config.Pool.MaxIdleConns = c.MaxIdleConns
	config.Pool.ConnMaxLifetime = c.ConnMaxLifetime

	config.Query.DefaultLimit = c.DefaultLimit
	config.Query.MaxLimit = c.MaxLimit

	config.Migration.Enabled = c.AutoMigrate

	return config
}

// EnsureDirectories creates the directory holding a SQLite database file
func (c *DatabaseConfig) EnsureDirectories() error {
	if c.Driver != repositories.DriverSQLite {
		return nil
	}

	dbDir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	return nil
}
