package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

func testConfig(path string) *repositories.Config {
	config := repositories.DefaultConfig()
	config.Database.Path = path
	config.Pool.ConnMaxLifetime = time.Hour
	return config
}

func TestConnectionFactory_CreateSQLiteConnection(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	factory := NewConnectionFactory(logger)

	tests := []struct {
		name    string
		config  *repositories.Config
		wantErr bool
	}{
		{
			name:    "valid SQLite config",
			config:  testConfig(filepath.Join(tempDir, "test.db")),
			wantErr: false,
		},
		{
			name:    "nested directory is created",
			config:  testConfig(filepath.Join(tempDir, "nested", "dir", "test.db")),
			wantErr: false,
		},
		{
			name: "missing path",
			config: func() *repositories.Config {
				c := testConfig("")
				return c
			}(),
			wantErr: true,
		},
		{
			name: "unsupported driver",
			config: func() *repositories.Config {
				c := testConfig(filepath.Join(tempDir, "other.db"))
				c.Database.Driver = "mysql"
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db, err := factory.CreateConnection(ctx, tt.config)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
					if db != nil {
						db.Close()
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer db.Close()

			if err := db.PingContext(ctx); err != nil {
				t.Errorf("Failed to ping database: %v", err)
			}

			var fkEnabled int
			if err := db.GetContext(ctx, &fkEnabled, "PRAGMA foreign_keys"); err != nil {
				t.Errorf("Failed to check foreign keys: %v", err)
			} else if fkEnabled != 1 {
				t.Error("Foreign keys should be enabled")
			}

			if got := db.Stats().MaxOpenConnections; got != 1 {
				t.Errorf("MaxOpenConnections = %d, want 1", got)
			}
		})
	}
}

func TestBuildSQLiteDSN(t *testing.T) {
	config := testConfig("/tmp/test.db")
	config.Database.BusyTimeout = 30000

	dsn := buildSQLiteDSN("/tmp/test.db", config)

	for _, want := range []string{"/tmp/test.db?", "_foreign_keys=on", "_journal_mode=WAL", "_busy_timeout=30000"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q should contain %q", dsn, want)
		}
	}

	config.Database.BusyTimeout = 0
	dsn = buildSQLiteDSN("/tmp/test.db", config)
	if strings.Contains(dsn, "_busy_timeout") {
		t.Errorf("DSN %q should not set a busy timeout", dsn)
	}
}

func TestHealthChecker(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "health_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	db, err := NewConnectionFactory(logger).CreateConnection(ctx, testConfig(filepath.Join(tempDir, "health.db")))
	if err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}

	checker := NewHealthChecker(db, logger)

	if err := checker.CheckHealth(ctx); err != nil {
		t.Errorf("Health check failed: %v", err)
	}

	status := checker.GetHealthStatus(ctx)
	if !status.Healthy {
		t.Errorf("Expected healthy status, got %q", status.Message)
	}
	if status.Details["driver"] != "sqlite3" {
		t.Errorf("Expected driver detail sqlite3, got %q", status.Details["driver"])
	}

	db.Close()

	status = checker.GetHealthStatus(ctx)
	if status.Healthy {
		t.Error("Expected unhealthy status after close")
	}
}

func TestMigrationManager(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "migration_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	config := testConfig(filepath.Join(tempDir, "migrate.db"))
	migrations := NewMigrationManager(config, logger)

	status, err := migrations.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if status.Applied {
		t.Error("Fresh database should have no applied migrations")
	}

	if err := migrations.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// A second run is a no-op
	if err := migrations.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	status, err = migrations.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus() error = %v", err)
	}
	if !status.Applied || status.Version != 1 || status.Dirty {
		t.Errorf("Unexpected status after migrating: %+v", status)
	}

	db, err := NewConnectionFactory(logger).CreateConnection(ctx, config)
	if err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}
	defer db.Close()

	expectedTables := []string{
		"requests",
		"buy_and_deliver_requests",
		"pickup_and_deliver_requests",
		"online_service_requests",
		"favorites",
	}
	for _, table := range expectedTables {
		var count int
		if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table); err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	if err := migrations.RollbackMigration(ctx); err != nil {
		t.Fatalf("RollbackMigration() error = %v", err)
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='requests'`); err != nil {
		t.Fatalf("Failed to check table: %v", err)
	}
	if count != 0 {
		t.Error("requests table should be dropped after rollback")
	}
}

func TestMigrationFS(t *testing.T) {
	for _, driver := range []string{repositories.DriverSQLite, repositories.DriverPostgres} {
		files, err := MigrationFS(driver)
		if err != nil {
			t.Fatalf("MigrationFS(%s) error = %v", driver, err)
		}
		if _, err := files.Open("000001_init.up.sql"); err != nil {
			t.Errorf("%s: missing up migration: %v", driver, err)
		}
		if _, err := files.Open("000001_init.down.sql"); err != nil {
			t.Errorf("%s: missing down migration: %v", driver, err)
		}
	}

	if _, err := MigrationFS("mysql"); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}
