package sqlstore

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/repositories"
)

// PostgreSQL SQLSTATE codes the store distinguishes
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgNotNullViolation     = "23502"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgConnectionClass      = "08"
)

// classifyError maps a driver error onto the repository error taxonomy.
// Errors that are already classified pass through unchanged.
func classifyError(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}

	var repoErr *repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return repositories.DuplicateError(entity, constraintOrDefault(pgErr.ConstraintName), id, err)
		case pgErr.Code == pgForeignKeyViolation,
			pgErr.Code == pgCheckViolation,
			pgErr.Code == pgNotNullViolation:
			return repositories.ConstraintError(entity, constraintOrDefault(pgErr.ConstraintName), err)
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected:
			return repositories.TransactionError(op, err)
		case strings.HasPrefix(pgErr.Code, pgConnectionClass):
			return repositories.ConnectionError(err)
		}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return repositories.DuplicateError(entity, "id", id, err)
			default:
				return repositories.ConstraintError(entity, sqliteErr.ExtendedCode.Error(), err)
			}
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return repositories.TransactionError(op, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
			return repositories.ConnectionError(err)
		}
	}

	switch {
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return repositories.ConnectionError(err)
	case errors.Is(err, sql.ErrTxDone):
		return repositories.TransactionError(op, err)
	}

	return repositories.NewRepositoryError(op, entity, id, err)
}

func constraintOrDefault(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
