package repositories

import (
	"errors"
	"fmt"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
)

// Common repository errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrValidation is returned when entity validation fails
	ErrValidation = errors.New("validation error")

	// ErrUnknownType is returned when a request tag matches no known variant
	ErrUnknownType = models.ErrUnknownType

	// ErrPersistence is the parent of every store-side failure
	ErrPersistence = errors.New("persistence error")

	// ErrTransaction is returned when a transaction cannot begin, commit or roll back
	ErrTransaction = fmt.Errorf("%w: transaction error", ErrPersistence)

	// ErrConnection is returned when database connection fails
	ErrConnection = fmt.Errorf("%w: database connection error", ErrPersistence)

	// ErrConstraint is returned when a database constraint is violated
	ErrConstraint = fmt.Errorf("%w: constraint violation", ErrPersistence)

	// ErrDuplicateEntry is returned when trying to create a duplicate entity
	ErrDuplicateEntry = fmt.Errorf("%w: duplicate entry", ErrConstraint)

	// ErrInvalidID is returned when an invalid ID is provided
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)
)

// RepositoryError represents a repository-specific error with additional context
type RepositoryError struct {
	Op      string // Operation that failed
	Entity  string // Entity type
	ID      string // Entity ID (if applicable)
	Err     error  // Taxonomy sentinel
	Cause   error  // Underlying driver or validation error
	Message string // Human-readable message
}

// Error implements the error interface
func (e *RepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	cause := e.Cause
	if cause == nil {
		cause = e.Err
	}

	if e.ID != "" {
		return fmt.Sprintf("%s %s operation failed for ID %s: %v", e.Entity, e.Op, e.ID, cause)
	}

	return fmt.Sprintf("%s %s operation failed: %v", e.Entity, e.Op, cause)
}

// Unwrap returns the taxonomy sentinel and the underlying cause
func (e *RepositoryError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewRepositoryError wraps a store failure as a persistence error
func NewRepositoryError(op, entity, id string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:     op,
		Entity: entity,
		ID:     id,
		Err:    ErrPersistence,
		Cause:  cause,
	}
}

// NotFoundError creates a "not found" repository error
func NotFoundError(entity, id string) *RepositoryError {
	return &RepositoryError{
		Op:      "get",
		Entity:  entity,
		ID:      id,
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with ID %s not found", entity, id),
	}
}

// DuplicateError creates a "duplicate entry" repository error
func DuplicateError(entity, field, value string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:      "create",
		Entity:  entity,
		Err:     ErrDuplicateEntry,
		Cause:   cause,
		Message: fmt.Sprintf("%s with %s '%s' already exists", entity, field, value),
	}
}

// ValidationError creates a "validation" repository error
func ValidationError(entity, id string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:      "validate",
		Entity:  entity,
		ID:      id,
		Err:     ErrValidation,
		Cause:   cause,
		Message: fmt.Sprintf("validation failed for %s: %v", entity, cause),
	}
}

// ConstraintError creates a "constraint violation" repository error
func ConstraintError(entity, constraint string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:      "constraint",
		Entity:  entity,
		Err:     ErrConstraint,
		Cause:   cause,
		Message: fmt.Sprintf("constraint violation for %s (%s): %v", entity, constraint, cause),
	}
}

// TransactionError creates a "transaction" repository error
func TransactionError(op string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  "transaction",
		Err:     ErrTransaction,
		Cause:   cause,
		Message: fmt.Sprintf("transaction %s failed: %v", op, cause),
	}
}

// ConnectionError creates a "connection" repository error
func ConnectionError(cause error) *RepositoryError {
	return &RepositoryError{
		Op:      "connect",
		Entity:  "database",
		Err:     ErrConnection,
		Cause:   cause,
		Message: fmt.Sprintf("database connection failed: %v", cause),
	}
}

// UnknownTypeError creates an "unknown type" repository error
func UnknownTypeError(entity, id string, cause error) *RepositoryError {
	return &RepositoryError{
		Op:      "dispatch",
		Entity:  entity,
		ID:      id,
		Err:     ErrUnknownType,
		Cause:   cause,
		Message: fmt.Sprintf("%s %s has an unknown type: %v", entity, id, cause),
	}
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if an error is a "duplicate entry" error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsValidation checks if an error is a "validation" error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConstraint checks if an error is a "constraint violation" error
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}

// IsTransaction checks if an error is a "transaction" error
func IsTransaction(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// IsConnection checks if an error is a "connection" error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsPersistence checks if an error came from the store
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsUnknownType checks if an error is an "unknown type" error
func IsUnknownType(err error) bool {
	return errors.Is(err, ErrUnknownType)
}
