package repositories

import (
	"context"
)

// Transaction represents a database transaction that can be used across multiple repositories
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction
	Context() context.Context
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// BeginTransaction starts a new transaction
	BeginTransaction(ctx context.Context) (Transaction, error)

	// WithTransaction runs fn in a unit of work: commit when fn returns nil,
	// rollback when it returns an error or panics. A ctx that already carries
	// a transaction is reused instead of starting a nested one.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	TransactionManager

	// Requests returns the request repository
	Requests() RequestRepository

	// Favorites returns the favorite repository
	Favorites() FavoriteRepository

	// Close closes all repository connections
	Close() error

	// Health checks the health of the repository connections
	Health(ctx context.Context) error
}
