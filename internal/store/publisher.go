package store

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
)

// PublisherStore defines the interface for publisher persistence.
type PublisherStore interface {
	// Create saves a new publisher and fills in its storage-assigned ID.
	// Empty address or phone values are stored as NULL.
	Create(ctx context.Context, publisher *domain.Publisher) error

	// GetByID retrieves a publisher by its ID.
	// Returns ErrPublisherNotFound if the publisher does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Publisher, error)

	// GetAll returns every publisher. Order is not significant.
	GetAll(ctx context.Context) ([]*domain.Publisher, error)

	// Update persists changes to an existing publisher.
	// Returns ErrPublisherNotFound if the publisher does not exist.
	Update(ctx context.Context, publisher *domain.Publisher) error

	// Delete removes a publisher by its ID. Books referencing the
	// publisher keep their rows with the reference cleared
	// (ON DELETE SET NULL).
	// Returns ErrPublisherNotFound if the publisher does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new PublisherStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PublisherStore
}
