package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shelfward/circ-api/internal/domain"
)

// Common error types for the circulation Service. Refusals that are policy
// outcomes rather than failures (an overdue return) are NOT errors; they are
// reported through ReturnResult.
var (
	// ErrDuplicateLoan indicates the borrower already has this book on
	// loan from this branch. A second loan for the same triple is never
	// created.
	ErrDuplicateLoan = errors.New("borrower already has this book on loan from this branch")

	// ErrNoCopiesAvailable indicates the branch has no available copies
	// of the book. No loan is created.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrLoanNotFound indicates no active loan exists for the triple.
	ErrLoanNotFound = errors.New("loan not found")
)

// ReturnStatus distinguishes the ways a return attempt can conclude
// without failing.
type ReturnStatus string

const (
	// ReturnAccepted means the loan was closed and the copy went back
	// into the branch's inventory.
	ReturnAccepted ReturnStatus = "returned"

	// ReturnRefusedOverdue means the loan is past due as of the
	// evaluation date: the loan stays open and the inventory is
	// untouched. Overdue returns go through the administrative path
	// (a due-date override) instead.
	ReturnRefusedOverdue ReturnStatus = "refused_overdue"
)

// ReturnResult is the outcome of a return attempt. Policy refusals are a
// first-class outcome here, never an error, so callers can distinguish
// "refused" from "failed" without string matching.
type ReturnResult struct {
	Status ReturnStatus
	// Loan is the loan the result refers to: the closed loan for
	// ReturnAccepted, the still-open loan for ReturnRefusedOverdue.
	Loan *domain.Loan
}

// Service is the circulation engine. All mutating operations run inside a
// transaction: either one the engine opens itself (the default), or one the
// caller supplies via WithTx, in which case the caller decides when to
// commit and can group several engine calls into one atomic unit.
type Service interface {
	// CheckOut grants a loan of the book to the borrower at the branch.
	//
	// Returns:
	//   - (loan, nil) on success; the copy count is exactly one lower and
	//     the loan exists.
	//   - (nil, ErrDuplicateLoan) if a loan already exists for the triple.
	//   - (nil, ErrNoCopiesAvailable) if the branch has no available copy.
	//   - (nil, error) on storage faults, after rollback.
	//
	// The availability check and the decrement are atomic: two concurrent
	// checkouts can never both be granted against the same available copy.
	CheckOut(
		ctx context.Context,
		cardNo, bookID, branchID int64,
		dateOut, dueDate time.Time,
	) (*domain.Loan, error)

	// ReturnBook attempts to close the loan for the triple, evaluating
	// overdue status against asOf (the date the return is happening).
	//
	// Returns:
	//   - (result with ReturnAccepted, nil): loan deleted, count incremented.
	//   - (result with ReturnRefusedOverdue, nil): nothing changed; the
	//     refusal is a policy outcome, not an error.
	//   - (nil, ErrLoanNotFound) if no loan exists for the triple.
	//   - (nil, error) on storage faults, after rollback.
	ReturnBook(
		ctx context.Context,
		cardNo, bookID, branchID int64,
		asOf time.Time,
	) (*ReturnResult, error)

	// OverrideDueDate is the administrative path: it moves an existing
	// loan's due date without touching the copy ledger. A forward move
	// can take an overdue loan back to good standing so a normal return
	// succeeds. Returns ErrLoanNotFound if no loan exists for the triple.
	OverrideDueDate(
		ctx context.Context,
		bookID, cardNo, branchID int64,
		newDueDate time.Time,
	) error

	// SetBranchCopies sets the absolute number of copies of the book held
	// by the branch. A count of zero removes the ledger record; a negative
	// count is rejected before any mutation.
	SetBranchCopies(ctx context.Context, branchID, bookID int64, count int) error

	// GetCopies reports how many copies of the book the branch holds.
	// A missing record reads as zero.
	GetCopies(ctx context.Context, branchID, bookID int64) (int, error)

	// GetAllBranchCopies returns the branch's holdings keyed by book ID.
	GetAllBranchCopies(ctx context.Context, branchID int64) (map[int64]int, error)

	// GetAllBookCopies returns the branches holding the book, keyed by branch ID.
	GetAllBookCopies(ctx context.Context, bookID int64) (map[int64]int, error)

	// GetAllCopies returns the full ledger snapshot keyed by branch then book.
	GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error)

	// ListLoans returns every active loan.
	ListLoans(ctx context.Context) ([]*domain.Loan, error)

	// ListBorrowerLoans returns the borrower's active loans.
	ListBorrowerLoans(ctx context.Context, cardNo int64) ([]*domain.Loan, error)

	// ListBranchesWithLoans returns the branches at which the borrower
	// currently has books on loan.
	ListBranchesWithLoans(ctx context.Context, cardNo int64) ([]*domain.Branch, error)

	// WithTx returns a Service bound to the provided transaction. Mutating
	// operations on the returned Service run their steps directly on that
	// transaction and never commit or roll it back; the caller owns the
	// boundary and commits once after grouping its unit of work.
	WithTx(tx *sql.Tx) Service
}

// ServiceError wraps errors from the circulation service with additional
// context, so consumers can differentiate failures with errors.As instead
// of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "check_out", "return_book")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
