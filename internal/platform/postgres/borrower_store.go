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

// PostgresBorrowerStore implements the store.BorrowerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBorrowerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBorrowerStore creates a new PostgreSQL implementation of the BorrowerStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBorrowerStore(db store.DBTX, logger *slog.Logger) *PostgresBorrowerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBorrowerStore{
		db:     db,
		logger: logger.With(slog.String("component", "borrower_store")),
	}
}

// Ensure PostgresBorrowerStore implements store.BorrowerStore interface
var _ store.BorrowerStore = (*PostgresBorrowerStore)(nil)

// WithTx implements store.BorrowerStore.WithTx
func (s *PostgresBorrowerStore) WithTx(tx *sql.Tx) store.BorrowerStore {
	return &PostgresBorrowerStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.BorrowerStore.Create
// Empty address or phone values are stored as NULL.
func (s *PostgresBorrowerStore) Create(ctx context.Context, borrower *domain.Borrower) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := borrower.Validate(); err != nil {
		log.Warn("borrower validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO borrowers (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING card_no
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		borrower.Name,
		nullableString(borrower.Address),
		nullableString(borrower.Phone),
	).Scan(&borrower.CardNo)
	if err != nil {
		log.Error("failed to create borrower",
			slog.String("error", err.Error()),
			slog.String("name", borrower.Name))
		return err
	}

	log.Info("borrower created",
		slog.Int64("card_no", borrower.CardNo),
		slog.String("name", borrower.Name))
	return nil
}

// GetByCardNo implements store.BorrowerStore.GetByCardNo
func (s *PostgresBorrowerStore) GetByCardNo(
	ctx context.Context,
	cardNo int64,
) (*domain.Borrower, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT card_no, name, address, phone
		FROM borrowers
		WHERE card_no = $1
	`

	var borrower domain.Borrower
	var address, phone sql.NullString
	err := s.db.QueryRowContext(ctx, query, cardNo).
		Scan(&borrower.CardNo, &borrower.Name, &address, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBorrowerNotFound
		}
		log.Error("failed to get borrower",
			slog.String("error", err.Error()),
			slog.Int64("card_no", cardNo))
		return nil, err
	}
	borrower.Address = stringPtr(address)
	borrower.Phone = stringPtr(phone)

	return &borrower, nil
}

// GetAll implements store.BorrowerStore.GetAll
func (s *PostgresBorrowerStore) GetAll(ctx context.Context) ([]*domain.Borrower, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT card_no, name, address, phone
		FROM borrowers
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query borrowers", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var borrowers []*domain.Borrower
	for rows.Next() {
		var borrower domain.Borrower
		var address, phone sql.NullString
		if err := rows.Scan(&borrower.CardNo, &borrower.Name, &address, &phone); err != nil {
			log.Error("failed to scan borrower row", slog.String("error", err.Error()))
			return nil, err
		}
		borrower.Address = stringPtr(address)
		borrower.Phone = stringPtr(phone)
		borrowers = append(borrowers, &borrower)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if borrowers == nil {
		borrowers = []*domain.Borrower{}
	}
	return borrowers, nil
}

// Update implements store.BorrowerStore.Update
func (s *PostgresBorrowerStore) Update(ctx context.Context, borrower *domain.Borrower) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := borrower.Validate(); err != nil {
		log.Warn("borrower validation failed during update",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE borrowers
		SET name = $1, address = $2, phone = $3
		WHERE card_no = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		borrower.Name,
		nullableString(borrower.Address),
		nullableString(borrower.Phone),
		borrower.CardNo,
	)
	if err != nil {
		log.Error("failed to update borrower",
			slog.String("error", err.Error()),
			slog.Int64("card_no", borrower.CardNo))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBorrowerNotFound
	}

	log.Info("borrower updated", slog.Int64("card_no", borrower.CardNo))
	return nil
}

// Delete implements store.BorrowerStore.Delete
// Dependent loans go with it via ON DELETE CASCADE.
func (s *PostgresBorrowerStore) Delete(ctx context.Context, cardNo int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM borrowers
		WHERE card_no = $1
	`
	result, err := s.db.ExecContext(ctx, query, cardNo)
	if err != nil {
		log.Error("failed to delete borrower",
			slog.String("error", err.Error()),
			slog.Int64("card_no", cardNo))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBorrowerNotFound
	}

	log.Info("borrower deleted", slog.Int64("card_no", cardNo))
	return nil
}
