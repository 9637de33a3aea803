package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != repositories.DriverSQLite {
		t.Errorf("Expected sqlite driver by default, got %s", cfg.Database.Driver)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to be enabled by default")
	}
	if cfg.Database.DefaultLimit != 30 || cfg.Database.MaxLimit != 100 {
		t.Errorf("Unexpected query limits: %d/%d", cfg.Database.DefaultLimit, cfg.Database.MaxLimit)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "nwassik")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "requests")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("QUERY_MAX_LIMIT", "50")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}

	repoConfig := cfg.Database.ToRepositoryConfig()
	if !repoConfig.IsPostgreSQL() {
		t.Errorf("Expected postgres driver, got %s", repoConfig.Database.Driver)
	}
	if repoConfig.Database.Host != "db.internal" || repoConfig.Database.Port != 6543 {
		t.Errorf("Unexpected host/port: %s:%d", repoConfig.Database.Host, repoConfig.Database.Port)
	}
	if repoConfig.Database.Password != "secret" {
		t.Error("Expected password to be read from DB_PASS")
	}
	if repoConfig.Pool.ConnMaxLifetime != 10*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 10m", repoConfig.Pool.ConnMaxLifetime)
	}
	if repoConfig.Migration.Enabled {
		t.Error("Expected migrations to be disabled")
	}
	if repoConfig.Query.MaxLimit != 50 {
		t.Errorf("MaxLimit = %d, want 50", repoConfig.Query.MaxLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "postgres without host", env: map[string]string{"DB_DRIVER": "postgres"}},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "default above max", env: map[string]string{"QUERY_DEFAULT_LIMIT": "200"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestAdaptConfig(t *testing.T) {
	lambda := &ServerlessConfig{IsLambda: true}

	t.Run("not in lambda", func(t *testing.T) {
		cfg := &Config{Log: LogConfig{Format: "text"}, Database: *DefaultDatabaseConfig()}
		adaptConfig(cfg, &ServerlessConfig{})
		if cfg.Log.Format != "text" || cfg.Database.Path != DefaultDatabaseConfig().Path {
			t.Errorf("Config changed outside lambda: %+v", cfg)
		}
	})

	t.Run("sqlite moves to tmp", func(t *testing.T) {
		cfg := &Config{Log: LogConfig{Format: "text"}, Database: *DefaultDatabaseConfig()}
		adaptConfig(cfg, lambda)
		if cfg.Log.Format != "json" {
			t.Errorf("Log format = %s, want json", cfg.Log.Format)
		}
		if cfg.Database.Path != "/tmp/nwassik.db" {
			t.Errorf("Path = %s, want /tmp/nwassik.db", cfg.Database.Path)
		}
	})

	t.Run("sqlite already in tmp", func(t *testing.T) {
		db := DefaultDatabaseConfig()
		db.Path = "/tmp/data/requests.db"
		cfg := &Config{Database: *db}
		adaptConfig(cfg, lambda)
		if cfg.Database.Path != "/tmp/data/requests.db" {
			t.Errorf("Path = %s, want unchanged", cfg.Database.Path)
		}
	})

	t.Run("postgres pool shrinks", func(t *testing.T) {
		db := DefaultDatabaseConfig()
		db.Driver = repositories.DriverPostgres
		cfg := &Config{Database: *db}
		adaptConfig(cfg, lambda)
		if cfg.Database.MaxOpenConns != 2 || cfg.Database.MaxIdleConns > 2 {
			t.Errorf("Unexpected pool: %d/%d", cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		}
		if cfg.Database.SSLMode != "require" {
			t.Errorf("SSLMode = %s, want require", cfg.Database.SSLMode)
		}
	})
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "debug", Format: "json"})
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Level = %v, want debug", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Formatter = %T, want JSON", logger.Formatter)
	}

	fallback := NewLogger(LogConfig{Level: "loud"})
	if fallback.GetLevel() != logrus.InfoLevel {
		t.Errorf("Level = %v, want info", fallback.GetLevel())
	}
}
