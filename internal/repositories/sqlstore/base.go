package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// BaseRepository provides common functionality for all SQL repositories
type BaseRepository[T any] struct {
	db     *sqlx.DB
	table  string
	query  repositories.QueryConfig
	logger *logrus.Logger
}

// NewBaseRepository creates a new base repository
func NewBaseRepository[T any](db *sqlx.DB, table string, query repositories.QueryConfig, logger *logrus.Logger) *BaseRepository[T] {
	if logger == nil {
		logger = logrus.New()
	}
	return &BaseRepository[T]{
		db:     db,
		table:  table,
		query:  query,
		logger: logger,
	}
}

// executor returns the transaction bound to ctx, or the pool when there is none
func (r *BaseRepository[T]) executor(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// isPostgres reports whether the pool talks to PostgreSQL
func (r *BaseRepository[T]) isPostgres() bool {
	return r.db.DriverName() == "pgx"
}

// Exists checks if an entity with the given ID exists
func (r *BaseRepository[T]) Exists(ctx context.Context, id string) (bool, error) {
	if err := r.validateID(id); err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? LIMIT 1", r.table)

	var exists int
	err := r.get(ctx, "exists", id, &exists, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return exists == 1, nil
}

// logQuery logs a query with its execution time
func (r *BaseRepository[T]) logQuery(operation string, query string, args []interface{}, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     r.table,
		"query":     query,
		"args":      args,
		"duration":  duration,
	}

	switch {
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
	case r.query.SlowQueryThreshold > 0 && duration > r.query.SlowQueryThreshold:
		r.logger.WithFields(fields).Warn("Slow query")
	default:
		r.logger.WithFields(fields).Debug("Query executed")
	}
}

// get scans a single row into dest. sql.ErrNoRows is returned unwrapped so
// callers can turn absence into a nil result.
func (r *BaseRepository[T]) get(ctx context.Context, operation, id string, dest interface{}, query string, args ...interface{}) error {
	ext := r.executor(ctx)
	query = ext.Rebind(query)

	start := time.Now()
	err := sqlx.GetContext(ctx, ext, dest, query, args...)
	r.logQuery(operation, query, args, time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return classifyError(operation, r.table, id, err)
	}
	return nil
}

// selectRows scans every row of the result into dest, which must be a slice pointer
func (r *BaseRepository[T]) selectRows(ctx context.Context, operation string, dest interface{}, query string, args ...interface{}) error {
	ext := r.executor(ctx)
	query = ext.Rebind(query)

	start := time.Now()
	err := sqlx.SelectContext(ctx, ext, dest, query, args...)
	r.logQuery(operation, query, args, time.Since(start), err)

	if err != nil {
		return classifyError(operation, r.table, "", err)
	}
	return nil
}

// executeExec executes a non-query statement and logs the result
func (r *BaseRepository[T]) executeExec(ctx context.Context, operation, id, query string, args ...interface{}) (sql.Result, error) {
	ext := r.executor(ctx)
	query = ext.Rebind(query)

	start := time.Now()
	result, err := ext.ExecContext(ctx, query, args...)
	r.logQuery(operation, query, args, time.Since(start), err)

	if err != nil {
		return nil, classifyError(operation, r.table, id, err)
	}
	return result, nil
}

// executeNamed executes a statement with :name placeholders bound from arg's db tags
func (r *BaseRepository[T]) executeNamed(ctx context.Context, operation, id, query string, arg interface{}) (sql.Result, error) {
	ext := r.executor(ctx)

	start := time.Now()
	result, err := sqlx.NamedExecContext(ctx, ext, query, arg)
	r.logQuery(operation, query, []interface{}{arg}, time.Since(start), err)

	if err != nil {
		return nil, classifyError(operation, r.table, id, err)
	}
	return result, nil
}

// rowsAffected reports whether the statement touched at least one row
func (r *BaseRepository[T]) rowsAffected(result sql.Result, operation, id string) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, repositories.NewRepositoryError(operation, r.table, id, err)
	}
	return rowsAffected > 0, nil
}

// validateID validates that an ID is not empty
func (r *BaseRepository[T]) validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return repositories.ValidationError(r.table, id, repositories.ErrInvalidID)
	}
	return nil
}
