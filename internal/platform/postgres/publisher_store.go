package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// PostgresPublisherStore implements the store.PublisherStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPublisherStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPublisherStore creates a new PostgreSQL implementation of the PublisherStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPublisherStore(db store.DBTX, logger *slog.Logger) *PostgresPublisherStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPublisherStore{
		db:     db,
		logger: logger.With(slog.String("component", "publisher_store")),
	}
}

// Ensure PostgresPublisherStore implements store.PublisherStore interface
var _ store.PublisherStore = (*PostgresPublisherStore)(nil)

// WithTx implements store.PublisherStore.WithTx
func (s *PostgresPublisherStore) WithTx(tx *sql.Tx) store.PublisherStore {
	return &PostgresPublisherStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.PublisherStore.Create
// Empty address or phone values are stored as NULL.
func (s *PostgresPublisherStore) Create(ctx context.Context, publisher *domain.Publisher) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := publisher.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO publishers (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		publisher.Name,
		nullableString(publisher.Address),
		nullableString(publisher.Phone),
	).Scan(&publisher.ID)
	if err != nil {
		log.Error("failed to create publisher",
			slog.String("error", err.Error()),
			slog.String("name", publisher.Name))
		return err
	}

	log.Info("publisher created",
		slog.Int64("publisher_id", publisher.ID),
		slog.String("name", publisher.Name))
	return nil
}

// GetByID implements store.PublisherStore.GetByID
func (s *PostgresPublisherStore) GetByID(ctx context.Context, id int64) (*domain.Publisher, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, address, phone
		FROM publishers
		WHERE id = $1
	`

	var publisher domain.Publisher
	var address, phone sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&publisher.ID, &publisher.Name, &address, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPublisherNotFound
		}
		log.Error("failed to get publisher",
			slog.String("error", err.Error()),
			slog.Int64("publisher_id", id))
		return nil, err
	}
	publisher.Address = stringPtr(address)
	publisher.Phone = stringPtr(phone)

	return &publisher, nil
}

// GetAll implements store.PublisherStore.GetAll
func (s *PostgresPublisherStore) GetAll(ctx context.Context) ([]*domain.Publisher, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, address, phone
		FROM publishers
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query publishers", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var publishers []*domain.Publisher
	for rows.Next() {
		var publisher domain.Publisher
		var address, phone sql.NullString
		if err := rows.Scan(&publisher.ID, &publisher.Name, &address, &phone); err != nil {
			return nil, err
		}
		publisher.Address = stringPtr(address)
		publisher.Phone = stringPtr(phone)
		publishers = append(publishers, &publisher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if publishers == nil {
		publishers = []*domain.Publisher{}
	}
	return publishers, nil
}

// Update implements store.PublisherStore.Update
func (s *PostgresPublisherStore) Update(ctx context.Context, publisher *domain.Publisher) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := publisher.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE publishers
		SET name = $1, address = $2, phone = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		publisher.Name,
		nullableString(publisher.Address),
		nullableString(publisher.Phone),
		publisher.ID,
	)
	if err != nil {
		log.Error("failed to update publisher",
			slog.String("error", err.Error()),
			slog.Int64("publisher_id", publisher.ID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrPublisherNotFound
	}

	return nil
}

// Delete implements store.PublisherStore.Delete
// Books referencing the publisher keep their rows with the reference cleared.
func (s *PostgresPublisherStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM publishers
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete publisher",
			slog.String("error", err.Error()),
			slog.Int64("publisher_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrPublisherNotFound
	}

	return nil
}
