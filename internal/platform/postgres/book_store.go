package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// PostgresBookStore implements the store.BookStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBookStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBookStore creates a new PostgreSQL implementation of the BookStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBookStore(db store.DBTX, logger *slog.Logger) *PostgresBookStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBookStore{
		db:     db,
		logger: logger.With(slog.String("component", "book_store")),
	}
}

// Ensure PostgresBookStore implements store.BookStore interface
var _ store.BookStore = (*PostgresBookStore)(nil)

// WithTx implements store.BookStore.WithTx
func (s *PostgresBookStore) WithTx(tx *sql.Tx) store.BookStore {
	return &PostgresBookStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.BookStore.Create
// It fills in the book's storage-assigned ID on success.
func (s *PostgresBookStore) Create(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := book.Validate(); err != nil {
		log.Warn("book validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO books (title, author_id, publisher_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, book.Title, book.AuthorID, book.PublisherID).
		Scan(&book.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during book creation",
				slog.String("error", err.Error()),
				slog.String("title", book.Title))
			return fmt.Errorf("%w: referenced author or publisher not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to create book",
			slog.String("error", err.Error()),
			slog.String("title", book.Title))
		return err
	}

	log.Info("book created",
		slog.Int64("book_id", book.ID),
		slog.String("title", book.Title))
	return nil
}

// GetByID implements store.BookStore.GetByID
func (s *PostgresBookStore) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, author_id, publisher_id
		FROM books
		WHERE id = $1
	`

	var book domain.Book
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.AuthorID,
		&book.PublisherID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookNotFound
		}
		log.Error("failed to get book",
			slog.String("error", err.Error()),
			slog.Int64("book_id", id))
		return nil, err
	}

	return &book, nil
}

// GetAll implements store.BookStore.GetAll
func (s *PostgresBookStore) GetAll(ctx context.Context) ([]*domain.Book, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, author_id, publisher_id
		FROM books
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query books", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var books []*domain.Book
	for rows.Next() {
		var book domain.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.AuthorID, &book.PublisherID); err != nil {
			log.Error("failed to scan book row", slog.String("error", err.Error()))
			return nil, err
		}
		books = append(books, &book)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// Update implements store.BookStore.Update
func (s *PostgresBookStore) Update(ctx context.Context, book *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := book.Validate(); err != nil {
		log.Warn("book validation failed during update",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE books
		SET title = $1, author_id = $2, publisher_id = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, book.Title, book.AuthorID, book.PublisherID, book.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced author or publisher not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to update book",
			slog.String("error", err.Error()),
			slog.Int64("book_id", book.ID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBookNotFound
	}

	log.Info("book updated", slog.Int64("book_id", book.ID))
	return nil
}

// Delete implements store.BookStore.Delete
// Dependent loans and copy records go with it via ON DELETE CASCADE.
func (s *PostgresBookStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM books
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete book",
			slog.String("error", err.Error()),
			slog.Int64("book_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBookNotFound
	}

	log.Info("book deleted", slog.Int64("book_id", id))
	return nil
}
