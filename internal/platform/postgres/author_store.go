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

// PostgresAuthorStore implements the store.AuthorStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAuthorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuthorStore creates a new PostgreSQL implementation of the AuthorStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAuthorStore(db store.DBTX, logger *slog.Logger) *PostgresAuthorStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuthorStore{
		db:     db,
		logger: logger.With(slog.String("component", "author_store")),
	}
}

// Ensure PostgresAuthorStore implements store.AuthorStore interface
var _ store.AuthorStore = (*PostgresAuthorStore)(nil)

// WithTx implements store.AuthorStore.WithTx
func (s *PostgresAuthorStore) WithTx(tx *sql.Tx) store.AuthorStore {
	return &PostgresAuthorStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.AuthorStore.Create
func (s *PostgresAuthorStore) Create(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := author.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO authors (name)
		VALUES ($1)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, author.Name).Scan(&author.ID)
	if err != nil {
		log.Error("failed to create author",
			slog.String("error", err.Error()),
			slog.String("name", author.Name))
		return err
	}

	log.Info("author created",
		slog.Int64("author_id", author.ID),
		slog.String("name", author.Name))
	return nil
}

// GetByID implements store.AuthorStore.GetByID
func (s *PostgresAuthorStore) GetByID(ctx context.Context, id int64) (*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name
		FROM authors
		WHERE id = $1
	`

	var author domain.Author
	err := s.db.QueryRowContext(ctx, query, id).Scan(&author.ID, &author.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAuthorNotFound
		}
		log.Error("failed to get author",
			slog.String("error", err.Error()),
			slog.Int64("author_id", id))
		return nil, err
	}

	return &author, nil
}

// GetAll implements store.AuthorStore.GetAll
func (s *PostgresAuthorStore) GetAll(ctx context.Context) ([]*domain.Author, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name
		FROM authors
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query authors", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var authors []*domain.Author
	for rows.Next() {
		var author domain.Author
		if err := rows.Scan(&author.ID, &author.Name); err != nil {
			return nil, err
		}
		authors = append(authors, &author)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if authors == nil {
		authors = []*domain.Author{}
	}
	return authors, nil
}

// Update implements store.AuthorStore.Update
func (s *PostgresAuthorStore) Update(ctx context.Context, author *domain.Author) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := author.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE authors
		SET name = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, author.Name, author.ID)
	if err != nil {
		log.Error("failed to update author",
			slog.String("error", err.Error()),
			slog.Int64("author_id", author.ID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrAuthorNotFound
	}

	return nil
}

// Delete implements store.AuthorStore.Delete
// Books referencing the author keep their rows with the reference cleared.
func (s *PostgresAuthorStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM authors
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete author",
			slog.String("error", err.Error()),
			slog.Int64("author_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrAuthorNotFound
	}

	return nil
}
