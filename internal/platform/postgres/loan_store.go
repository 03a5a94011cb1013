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

// PostgresLoanStore implements the store.LoanStore interface
// using a PostgreSQL database as the storage backend. Loans are keyed by
// the natural (book, borrower, branch) triple; the table's primary key
// enforces at most one live row per triple.
type PostgresLoanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLoanStore creates a new PostgreSQL implementation of the LoanStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresLoanStore(db store.DBTX, logger *slog.Logger) *PostgresLoanStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLoanStore{
		db:     db,
		logger: logger.With(slog.String("component", "loan_store")),
	}
}

// Ensure PostgresLoanStore implements store.LoanStore interface
var _ store.LoanStore = (*PostgresLoanStore)(nil)

// WithTx implements store.LoanStore.WithTx
func (s *PostgresLoanStore) WithTx(tx *sql.Tx) store.LoanStore {
	return &PostgresLoanStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.LoanStore.Create
// Returns store.ErrDuplicateLoan if a loan already exists for the triple and
// store.ErrInvalidEntity if a referenced entity does not exist.
func (s *PostgresLoanStore) Create(ctx context.Context, loan *domain.Loan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := loan.Validate(); err != nil {
		log.Warn("loan validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO book_loans (book_id, branch_id, card_no, date_out, due_date)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		loan.BookID,
		loan.BranchID,
		loan.CardNo,
		loan.DateOut,
		loan.DueDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate loan rejected",
				slog.Int64("book_id", loan.BookID),
				slog.Int64("branch_id", loan.BranchID),
				slog.Int64("card_no", loan.CardNo))
			return store.ErrDuplicateLoan
		}
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during loan creation",
				slog.String("error", err.Error()),
				slog.Int64("book_id", loan.BookID),
				slog.Int64("branch_id", loan.BranchID),
				slog.Int64("card_no", loan.CardNo))
			return fmt.Errorf("%w: referenced book, branch, or borrower not found",
				store.ErrInvalidEntity)
		}
		log.Error("failed to create loan",
			slog.String("error", err.Error()),
			slog.Int64("book_id", loan.BookID),
			slog.Int64("branch_id", loan.BranchID),
			slog.Int64("card_no", loan.CardNo))
		return err
	}

	log.Info("loan created",
		slog.Int64("book_id", loan.BookID),
		slog.Int64("branch_id", loan.BranchID),
		slog.Int64("card_no", loan.CardNo))
	return nil
}

// Get implements store.LoanStore.Get
// Returns store.ErrLoanNotFound if no loan exists for the triple.
func (s *PostgresLoanStore) Get(
	ctx context.Context,
	bookID, cardNo, branchID int64,
) (*domain.Loan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT book_id, branch_id, card_no, date_out, due_date
		FROM book_loans
		WHERE book_id = $1 AND branch_id = $2 AND card_no = $3
	`

	var loan domain.Loan
	err := s.db.QueryRowContext(ctx, query, bookID, branchID, cardNo).Scan(
		&loan.BookID,
		&loan.BranchID,
		&loan.CardNo,
		&loan.DateOut,
		&loan.DueDate,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLoanNotFound
		}
		log.Error("failed to get loan",
			slog.String("error", err.Error()),
			slog.Int64("book_id", bookID),
			slog.Int64("branch_id", branchID),
			slog.Int64("card_no", cardNo))
		return nil, err
	}

	return &loan, nil
}

// Update implements store.LoanStore.Update
// Only date_out and due_date can change; the triple is identity.
// Returns store.ErrLoanNotFound if no matching row exists.
func (s *PostgresLoanStore) Update(ctx context.Context, loan *domain.Loan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := loan.Validate(); err != nil {
		log.Warn("loan validation failed during update",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE book_loans
		SET date_out = $1, due_date = $2
		WHERE book_id = $3 AND branch_id = $4 AND card_no = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		loan.DateOut,
		loan.DueDate,
		loan.BookID,
		loan.BranchID,
		loan.CardNo,
	)
	if err != nil {
		log.Error("failed to update loan",
			slog.String("error", err.Error()),
			slog.Int64("book_id", loan.BookID),
			slog.Int64("branch_id", loan.BranchID),
			slog.Int64("card_no", loan.CardNo))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected", slog.String("error", err.Error()))
		return err
	}
	if rowsAffected == 0 {
		return store.ErrLoanNotFound
	}

	log.Info("loan updated",
		slog.Int64("book_id", loan.BookID),
		slog.Int64("branch_id", loan.BranchID),
		slog.Int64("card_no", loan.CardNo))
	return nil
}

// Delete implements store.LoanStore.Delete
// Deleting a loan that is already gone is reported as store.ErrLoanNotFound.
func (s *PostgresLoanStore) Delete(ctx context.Context, bookID, cardNo, branchID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM book_loans
		WHERE book_id = $1 AND branch_id = $2 AND card_no = $3
	`
	result, err := s.db.ExecContext(ctx, query, bookID, branchID, cardNo)
	if err != nil {
		log.Error("failed to delete loan",
			slog.String("error", err.Error()),
			slog.Int64("book_id", bookID),
			slog.Int64("branch_id", branchID),
			slog.Int64("card_no", cardNo))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected", slog.String("error", err.Error()))
		return err
	}
	if rowsAffected == 0 {
		return store.ErrLoanNotFound
	}

	log.Info("loan deleted",
		slog.Int64("book_id", bookID),
		slog.Int64("branch_id", branchID),
		slog.Int64("card_no", cardNo))
	return nil
}

// GetAll implements store.LoanStore.GetAll
func (s *PostgresLoanStore) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT book_id, branch_id, card_no, date_out, due_date
		FROM book_loans
	`
	return s.queryLoans(ctx, query)
}

// GetAllForBorrower implements store.LoanStore.GetAllForBorrower
func (s *PostgresLoanStore) GetAllForBorrower(
	ctx context.Context,
	cardNo int64,
) ([]*domain.Loan, error) {
	query := `
		SELECT book_id, branch_id, card_no, date_out, due_date
		FROM book_loans
		WHERE card_no = $1
	`
	return s.queryLoans(ctx, query, cardNo)
}

// queryLoans runs a loan query and scans the result set.
func (s *PostgresLoanStore) queryLoans(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Loan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query loans", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var loans []*domain.Loan
	for rows.Next() {
		var loan domain.Loan
		err := rows.Scan(
			&loan.BookID,
			&loan.BranchID,
			&loan.CardNo,
			&loan.DateOut,
			&loan.DueDate,
		)
		if err != nil {
			log.Error("failed to scan loan row", slog.String("error", err.Error()))
			return nil, err
		}
		loans = append(loans, &loan)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if loans == nil {
		loans = []*domain.Loan{}
	}
	return loans, nil
}
