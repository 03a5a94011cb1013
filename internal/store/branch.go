package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// BranchStore defines the interface for library branch persistence.
type BranchStore interface {
	// Create saves a new branch and fills in its storage-assigned ID.
	// An empty address is stored as NULL, never as an empty string.
	Create(ctx context.Context, branch *domain.Branch) error

	// GetByID retrieves a branch by its ID.
	// Returns ErrBranchNotFound if the branch does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)

	// GetAll returns every branch. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Branch, error)

	// Update persists changes to an existing branch.
	// Returns ErrBranchNotFound if the branch does not exist.
	Update(ctx context.Context, branch *domain.Branch) error

	// Delete removes a branch by its ID, cascading to its copy records
	// and loans via the schema's ON DELETE CASCADE foreign keys.
	// Returns ErrBranchNotFound if the branch does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new BranchStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BranchStore
}
