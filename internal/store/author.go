package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// AuthorStore defines the interface for author persistence.
type AuthorStore interface {
	// Create saves a new author and fills in its storage-assigned ID.
	Create(ctx context.Context, author *domain.Author) error

	// GetByID retrieves an author by its ID.
	// Returns ErrAuthorNotFound if the author does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Author, error)

	// GetAll returns every author. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Author, error)

	// Update persists changes to an existing author.
	// Returns ErrAuthorNotFound if the author does not exist.
	Update(ctx context.Context, author *domain.Author) error

	// Delete removes an author by its ID. Books referencing the author
	// keep their rows with the reference cleared (ON DELETE SET NULL);
	// an author is an optional attribute, not an owner.
	// Returns ErrAuthorNotFound if the author does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new AuthorStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AuthorStore
}
