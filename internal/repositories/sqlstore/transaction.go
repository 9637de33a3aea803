package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

type txKey struct{}

// contextWithTx binds tx to ctx so repositories called with it join the transaction
func contextWithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// txFromContext returns the transaction bound to ctx, if any
func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// InTransaction reports whether ctx carries a transaction
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// SQLTransaction implements the Transaction interface on top of sqlx
type SQLTransaction struct {
	tx     *sqlx.Tx
	ctx    context.Context
	logger *logrus.Logger
}

// NewSQLTransaction wraps tx and binds it into ctx
func NewSQLTransaction(ctx context.Context, tx *sqlx.Tx, logger *logrus.Logger) repositories.Transaction {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLTransaction{
		tx:     tx,
		ctx:    contextWithTx(ctx, tx),
		logger: logger,
	}
}

// Commit commits the transaction
func (t *SQLTransaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		t.logger.WithError(err).Error("Failed to commit transaction")
		return repositories.TransactionError("commit", err)
	}
	t.logger.Debug("Transaction committed")
	return nil
}

// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
func (t *SQLTransaction) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		t.logger.WithError(err).Error("Failed to rollback transaction")
		return repositories.TransactionError("rollback", err)
	}
	t.logger.Debug("Transaction rolled back")
	return nil
}

// Context returns the context carrying the transaction
func (t *SQLTransaction) Context() context.Context {
	return t.ctx
}

// SQLTransactionManager implements the TransactionManager interface on top of sqlx
type SQLTransactionManager struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *sqlx.DB, logger *logrus.Logger) *SQLTransactionManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &SQLTransactionManager{
		db:     db,
		logger: logger,
	}
}

// BeginTransaction starts a new transaction
func (tm *SQLTransactionManager) BeginTransaction(ctx context.Context) (repositories.Transaction, error) {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		tm.logger.WithError(err).Error("Failed to begin transaction")
		return nil, repositories.TransactionError("begin", err)
	}

	tm.logger.Debug("Transaction started")
	return NewSQLTransaction(ctx, tx, tm.logger), nil
}

// WithTransaction executes fn within a transaction. The error returned by fn
// is returned unchanged after rollback; a panic rolls back and is re-raised.
func (tm *SQLTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := tm.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				tm.logger.WithError(rbErr).Error("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	if err := fn(tx.Context()); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.WithError(rbErr).Error("Failed to rollback transaction after error")
		}
		return err
	}

	return tx.Commit()
}
