package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

var _ repositories.RepositoryManager = (*SQLRepositoryManager)(nil)

// SQLRepositoryManager implements the RepositoryManager interface over one sqlx pool
type SQLRepositoryManager struct {
	db                 *sqlx.DB
	config             *repositories.Config
	logger             *logrus.Logger
	requestRepo        *RequestRepository
	favoriteRepo       *FavoriteRepository
	transactionManager *SQLTransactionManager
}

// NewRepositoryManager creates a repository manager with an existing database connection
func NewRepositoryManager(db *sqlx.DB, config *repositories.Config, logger *logrus.Logger) *SQLRepositoryManager {
	if logger == nil {
		logger = logrus.New()
	}
	if config == nil {
		config = repositories.DefaultConfig()
	}

	manager := &SQLRepositoryManager{
		db:     db,
		config: config,
		logger: logger,
	}

	manager.transactionManager = NewTransactionManager(db, logger)
	manager.requestRepo = NewRequestRepository(db, manager.transactionManager, config.Query, logger)
	manager.favoriteRepo = NewFavoriteRepository(db, manager.transactionManager, config.Query, logger)

	return manager
}

// BeginTransaction starts a new transaction
func (m *SQLRepositoryManager) BeginTransaction(ctx context.Context) (repositories.Transaction, error) {
	return m.transactionManager.BeginTransaction(ctx)
}

// WithTransaction executes a function within a transaction
func (m *SQLRepositoryManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.transactionManager.WithTransaction(ctx, fn)
}

// Requests returns the request repository
func (m *SQLRepositoryManager) Requests() repositories.RequestRepository {
	return m.requestRepo
}

// Favorites returns the favorite repository
func (m *SQLRepositoryManager) Favorites() repositories.FavoriteRepository {
	return m.favoriteRepo
}

// Container exposes the repositories as a RepositoryContainer
func (m *SQLRepositoryManager) Container() *repositories.RepositoryContainer {
	return &repositories.RepositoryContainer{
		RequestRepo:  m.requestRepo,
		FavoriteRepo: m.favoriteRepo,
		TxManager:    m.transactionManager,
	}
}

// Close closes the database connection
func (m *SQLRepositoryManager) Close() error {
	if m.db == nil {
		return nil
	}
	if err := m.db.Close(); err != nil {
		m.logger.WithError(err).Error("Failed to close database connection")
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}

// Health checks the health of the repository connections
func (m *SQLRepositoryManager) Health(ctx context.Context) error {
	if m.db == nil {
		return repositories.ConnectionError(fmt.Errorf("database connection not established"))
	}
	if err := m.db.PingContext(ctx); err != nil {
		return repositories.ConnectionError(err)
	}

	var one int
	if err := m.db.GetContext(ctx, &one, "SELECT 1"); err != nil {
		return repositories.ConnectionError(err)
	}
	return nil
}

var (
	_ repositories.RepositoryManager  = (*SQLRepositoryManager)(nil)
	_ repositories.RequestRepository  = (*RequestRepository)(nil)
	_ repositories.FavoriteRepository = (*FavoriteRepository)(nil)
	_ repositories.TransactionManager = (*SQLTransactionManager)(nil)
)
