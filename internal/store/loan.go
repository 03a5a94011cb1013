package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// LoanStore defines the interface for active loan persistence. A loan is
// keyed by the natural (book, borrower, branch) triple; the store never
// allows two live rows for the same triple.
type LoanStore interface {
	// Create saves a new loan. Returns ErrDuplicateLoan if a loan already
	// exists for the triple; the store does not silently overwrite.
	// Returns ErrInvalidEntity if any referenced entity does not exist.
	Create(ctx context.Context, loan *domain.Loan) error

	// Get retrieves the loan for the (book, borrower, branch) triple.
	// Returns ErrLoanNotFound if no loan exists for the triple.
	Get(ctx context.Context, bookID, cardNo, branchID int64) (*domain.Loan, error)

	// Update persists a changed due date and/or date out for an existing
	// triple. Returns ErrLoanNotFound if no matching row exists.
	Update(ctx context.Context, loan *domain.Loan) error

	// Delete removes the loan for the triple. Deleting a loan that is
	// already gone is reported as ErrLoanNotFound, not treated as success.
	Delete(ctx context.Context, bookID, cardNo, branchID int64) error

	// GetAll returns every active loan. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Loan, error)

	// GetAllForBorrower returns every active loan held by the borrower.
	GetAllForBorrower(ctx context.Context, cardNo int64) ([]*domain.Loan, error)

	// WithTx returns a new LoanStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller, typically via RunInTransaction.
	WithTx(tx *sql.Tx) LoanStore
}
