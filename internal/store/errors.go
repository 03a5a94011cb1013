package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrBookNotFound, ErrLoanNotFound). Note that a missing copy
	// record is NOT a not-found condition: it reads as a count of zero.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second loan for the same triple).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or when a referenced entity does not exist (foreign
	// key violation). Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrNegativeCopyCount is returned when a caller asks the copy ledger
	// to store a count below zero. This is a contract violation and is
	// rejected before any mutation is applied.
	ErrNegativeCopyCount = errors.New("copy count cannot be negative")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrAuthorNotFound indicates that the requested author does not exist in the store.
	ErrAuthorNotFound = fmt.Errorf("%w: author", ErrNotFound)

	// ErrPublisherNotFound indicates that the requested publisher does not exist in the store.
	ErrPublisherNotFound = fmt.Errorf("%w: publisher", ErrNotFound)

	// ErrBookNotFound indicates that the requested book does not exist in the store.
	ErrBookNotFound = fmt.Errorf("%w: book", ErrNotFound)

	// ErrBranchNotFound indicates that the requested branch does not exist in the store.
	ErrBranchNotFound = fmt.Errorf("%w: branch", ErrNotFound)

	// ErrBorrowerNotFound indicates that the requested borrower does not exist in the store.
	ErrBorrowerNotFound = fmt.Errorf("%w: borrower", ErrNotFound)

	// ErrLoanNotFound indicates that no loan exists for the requested
	// (book, borrower, branch) triple.
	ErrLoanNotFound = fmt.Errorf("%w: loan", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrDuplicateLoan indicates that a loan already exists for the
	// (book, borrower, branch) triple. The triple is the loan's natural
	// key, so the store never silently overwrites it.
	ErrDuplicateLoan = fmt.Errorf("%w: loan", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
// This includes the generic ErrDuplicate and all entity-specific duplicate errors.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "loan", "copies")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
