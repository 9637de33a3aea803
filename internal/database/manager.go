package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// Manager owns the connection pool and brings the schema up to date on connect
type Manager struct {
	mu              sync.RWMutex
	config          *repositories.Config
	logger          *logrus.Logger
	factory         *ConnectionFactory
	migrations      *MigrationManager
	db              *sqlx.DB
	health          *HealthChecker
	isConnected     bool
	lastHealthCheck time.Time
	healthStatus    *HealthStatus
}

// NewManager creates a new database manager
func NewManager(config *repositories.Config, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}

	return &Manager{
		config:     config,
		logger:     logger,
		factory:    NewConnectionFactory(logger),
		migrations: NewMigrationManager(config, logger),
	}
}

// Connect runs pending migrations when enabled and opens the connection pool
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isConnected {
		return fmt.Errorf("database already connected")
	}

	m.logger.Info("Connecting to database...")

	if m.config.Migration.Enabled {
		if err := m.migrations.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	db, err := m.factory.CreateConnection(ctx, m.config)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	health := NewHealthChecker(db, m.logger)
	if err := health.CheckHealth(ctx); err != nil {
		db.Close()
		return fmt.Errorf("initial health check failed: %w", err)
	}

	m.db = db
	m.health = health
	m.isConnected = true
	m.lastHealthCheck = time.Now()
	m.logger.WithField("driver", m.config.Database.Driver).Info("Database connection established successfully")

	return nil
}

// Disconnect closes the database connection
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isConnected {
		return nil
	}

	m.logger.Info("Disconnecting from database...")

	err := m.db.Close()
	m.db = nil
	m.health = nil
	m.isConnected = false
	m.healthStatus = nil

	if err != nil {
		m.logger.WithError(err).Error("Error during database disconnection")
		return fmt.Errorf("failed to disconnect from database: %w", err)
	}

	m.logger.Info("Database disconnected successfully")
	return nil
}

// GetDB returns the database connection
func (m *Manager) GetDB() *sqlx.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isConnected {
		return nil
	}
	return m.db
}

// IsConnected returns true if the database is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.isConnected
}

// CheckHealth performs a health check on the database connection
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	health := m.health
	m.mu.RUnlock()

	if health == nil {
		return fmt.Errorf("database not connected")
	}

	status := health.GetHealthStatus(ctx)

	m.mu.Lock()
	m.lastHealthCheck = status.CheckedAt
	m.healthStatus = status
	m.mu.Unlock()

	if !status.Healthy {
		return fmt.Errorf("%s", status.Message)
	}
	return nil
}

// GetHealthStatus returns the last health status, refreshing it when older than maxAge
func (m *Manager) GetHealthStatus(ctx context.Context, maxAge time.Duration) *HealthStatus {
	m.mu.RLock()
	connected := m.isConnected
	cached := m.healthStatus
	last := m.lastHealthCheck
	m.mu.RUnlock()

	if !connected {
		return &HealthStatus{
			Healthy:   false,
			Message:   "Database not connected",
			CheckedAt: time.Now(),
		}
	}

	if cached != nil && time.Since(last) < maxAge {
		return cached
	}

	_ = m.CheckHealth(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthStatus
}

// GetMigrationStatus returns the current migration status
func (m *Manager) GetMigrationStatus(ctx context.Context) (*MigrationInfo, error) {
	return m.migrations.GetMigrationStatus(ctx)
}

// CreateBackup copies a SQLite database into backupPath
func (m *Manager) CreateBackup(ctx context.Context, backupPath string) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if !m.config.IsSQLite() {
		return fmt.Errorf("backup is currently only supported for SQLite databases")
	}
	if strings.ContainsAny(backupPath, "'\x00") {
		return fmt.Errorf("invalid backup path: %q", backupPath)
	}

	m.logger.WithField("backup_path", backupPath).Info("Creating SQLite backup")

	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", backupPath)); err != nil {
		return fmt.Errorf("failed to create SQLite backup: %w", err)
	}

	m.logger.WithField("backup_path", backupPath).Info("SQLite backup created successfully")
	return nil
}

// StartHealthCheckMonitor checks the connection every interval until ctx is done
func (m *Manager) StartHealthCheckMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Health check monitor stopped")
				return
			case <-ticker.C:
				if err := m.CheckHealth(ctx); err != nil {
					m.logger.WithError(err).Warn("Health check failed")
				} else {
					m.logger.Debug("Health check passed")
				}
			}
		}
	}()

	m.logger.WithField("interval", interval).Info("Health check monitor started")
}

// Reconnect closes and reopens the connection pool
func (m *Manager) Reconnect(ctx context.Context) error {
	m.logger.Info("Attempting to reconnect to database")

	if err := m.Disconnect(); err != nil {
		m.logger.WithError(err).Warn("Error during disconnect before reconnect")
	}

	return m.Connect(ctx)
}

// Close closes the database manager
func (m *Manager) Close() error {
	return m.Disconnect()
}
