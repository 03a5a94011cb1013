package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// BookStore defines the interface for book catalog persistence.
type BookStore interface {
	// Create saves a new book and fills in its storage-assigned ID.
	// Returns ErrInvalidEntity if a referenced author or publisher does
	// not exist.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its ID.
	// Returns ErrBookNotFound if the book does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Book, error)

	// GetAll returns every book in the catalog. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Book, error)

	// Update persists changes to an existing book.
	// Returns ErrBookNotFound if the book does not exist.
	Update(ctx context.Context, book *domain.Book) error

	// Delete removes a book by its ID.
	// Returns ErrBookNotFound if the book does not exist.
	//
	// Dependent loans and copy records are removed by the schema's
	// ON DELETE CASCADE foreign keys, so the circulation invariants hold
	// without application-level cleanup. If the schema changes, this
	// method must take over that responsibility.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new BookStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) BookStore
}
