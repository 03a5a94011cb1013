package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// BorrowerStore defines the interface for borrower persistence.
type BorrowerStore interface {
	// Create saves a new borrower and fills in their storage-assigned
	// card number. Empty address or phone values are stored as NULL.
	Create(ctx context.Context, borrower *domain.Borrower) error

	// GetByCardNo retrieves a borrower by card number.
	// Returns ErrBorrowerNotFound if the borrower does not exist.
	GetByCardNo(ctx context.Context, cardNo int64) (*domain.Borrower, error)

	// GetAll returns every borrower. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Borrower, error)

	// Update persists changes to an existing borrower. Loan identity is
	// unaffected: loans reference the card number, not the fields.
	// Returns ErrBorrowerNotFound if the borrower does not exist.
	Update(ctx context.Context, borrower *domain.Borrower) error

	// Delete removes a borrower by card number, cascading to their loans
	// via the schema's ON DELETE CASCADE foreign keys.
	// Returns ErrBorrowerNotFound if the borrower does not exist.
	Delete(ctx context.Context, cardNo int64) error

	// WithTx returns a new BorrowerStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BorrowerStore
}
