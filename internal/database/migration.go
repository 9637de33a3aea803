package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// MigrationFS returns the embedded migration files for a driver
func MigrationFS(driver string) (fs.FS, error) {
	switch driver {
	case repositories.DriverSQLite:
		return fs.Sub(migrationFiles, "migrations/sqlite")
	case repositories.DriverPostgres:
		return fs.Sub(migrationFiles, "migrations/postgres")
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// MigrationInfo contains information about a migration
type MigrationInfo struct {
	Version   uint      `json:"version"`
	Dirty     bool      `json:"dirty"`
	Applied   bool      `json:"applied"`
	Timestamp time.Time `json:"timestamp"`
}

// MigrationManager applies the embedded schema migrations. It opens its own
// connection because closing a migrate instance closes the underlying pool.
type MigrationManager struct {
	config  *repositories.Config
	factory *ConnectionFactory
	logger  *logrus.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(config *repositories.Config, logger *logrus.Logger) *MigrationManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &MigrationManager{
		config:  config,
		factory: NewConnectionFactory(logger),
		logger:  logger,
	}
}

// RunMigrations executes all pending migrations
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	m.logger.Info("Starting database migrations...")

	mig, err := m.initMigrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.closeMigrate(mig)

	currentVersion, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d; fix the schema and force the version", currentVersion)
	}

	m.logger.WithField("current_version", currentVersion).Info("Current migration version")

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.WithField("new_version", newVersion).Info("Migrations completed successfully")
	return nil
}

// RollbackMigration rolls back the last migration
func (m *MigrationManager) RollbackMigration(ctx context.Context) error {
	m.logger.Info("Rolling back last migration...")

	mig, err := m.initMigrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.closeMigrate(mig)

	currentVersion, _, err := mig.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("no migrations to rollback")
		}
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	m.logger.WithField("current_version", currentVersion).Info("Rolling back from version")

	if err := mig.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	m.logger.Info("Rollback completed successfully")
	return nil
}

// ForceVersion marks the schema as being at version without running anything
func (m *MigrationManager) ForceVersion(ctx context.Context, version int) error {
	mig, err := m.initMigrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.closeMigrate(mig)

	if err := mig.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version: %w", err)
	}

	m.logger.WithField("version", version).Warn("Migration version forced")
	return nil
}

// GetMigrationStatus returns the current migration status
func (m *MigrationManager) GetMigrationStatus(ctx context.Context) (*MigrationInfo, error) {
	mig, err := m.initMigrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.closeMigrate(mig)

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get migration version: %w", err)
	}

	return &MigrationInfo{
		Version:   version,
		Dirty:     dirty,
		Applied:   err == nil,
		Timestamp: time.Now(),
	}, nil
}

// initMigrate opens a dedicated connection and binds it to the embedded source
func (m *MigrationManager) initMigrate(ctx context.Context) (*migrate.Migrate, error) {
	files, err := MigrationFS(m.config.Database.Driver)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	db, err := m.factory.CreateConnection(ctx, m.config)
	if err != nil {
		return nil, err
	}

	driver, driverName, err := m.databaseDriver(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mig.Log = &migrateLogger{logger: m.logger}

	return mig, nil
}

func (m *MigrationManager) databaseDriver(db *sqlx.DB) (database.Driver, string, error) {
	switch m.config.Database.Driver {
	case repositories.DriverSQLite:
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		return driver, "sqlite3", err
	case repositories.DriverPostgres:
		driver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
		return driver, "pgx5", err
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", m.config.Database.Driver)
	}
}

func (m *MigrationManager) closeMigrate(mig *migrate.Migrate) {
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		m.logger.WithError(srcErr).Warn("Failed to close migration source")
	}
	if dbErr != nil {
		m.logger.WithError(dbErr).Warn("Failed to close migration database")
	}
}

// migrateLogger routes migrate's progress output through logrus
type migrateLogger struct {
	logger *logrus.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf("migrate: "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.IsLevelEnabled(logrus.DebugLevel)
}
