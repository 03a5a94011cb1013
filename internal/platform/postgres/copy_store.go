package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// PostgresCopyStore implements the store.CopyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCopyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCopyStore creates a new PostgreSQL implementation of the CopyStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCopyStore(db store.DBTX, logger *slog.Logger) *PostgresCopyStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCopyStore{
		db:     db,
		logger: logger.With(slog.String("component", "copy_store")),
	}
}

// Ensure PostgresCopyStore implements store.CopyStore interface
var _ store.CopyStore = (*PostgresCopyStore)(nil)

// WithTx implements store.CopyStore.WithTx
func (s *PostgresCopyStore) WithTx(tx *sql.Tx) store.CopyStore {
	return &PostgresCopyStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetCopies implements store.CopyStore.GetCopies
// A missing record reads as zero copies, never as an error.
func (s *PostgresCopyStore) GetCopies(ctx context.Context, branchID, bookID int64) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT count
		FROM book_copies
		WHERE branch_id = $1 AND book_id = $2
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, branchID, bookID).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		log.Error("failed to get copy count",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID))
		return 0, err
	}

	return count, nil
}

// SetCopies implements store.CopyStore.SetCopies
// A count of zero deletes the record; a negative count is rejected with
// store.ErrNegativeCopyCount before anything is written.
func (s *PostgresCopyStore) SetCopies(ctx context.Context, branchID, bookID int64, count int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if count < 0 {
		log.Warn("rejected negative copy count",
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID),
			slog.Int("count", count))
		return fmt.Errorf("%w: %d", store.ErrNegativeCopyCount, count)
	}

	if count == 0 {
		query := `
			DELETE FROM book_copies
			WHERE branch_id = $1 AND book_id = $2
		`
		if _, err := s.db.ExecContext(ctx, query, branchID, bookID); err != nil {
			log.Error("failed to delete copy record",
				slog.String("error", err.Error()),
				slog.Int64("branch_id", branchID),
				slog.Int64("book_id", bookID))
			return err
		}
		log.Debug("deleted copy record on zero count",
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID))
		return nil
	}

	query := `
		INSERT INTO book_copies (branch_id, book_id, count)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_id, book_id) DO UPDATE SET count = EXCLUDED.count
	`
	_, err := s.db.ExecContext(ctx, query, branchID, bookID, count)
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation while setting copies",
				slog.String("error", err.Error()),
				slog.Int64("branch_id", branchID),
				slog.Int64("book_id", bookID))
			return fmt.Errorf("%w: branch %d or book %d not found",
				store.ErrInvalidEntity, branchID, bookID)
		}
		log.Error("failed to set copy count",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID),
			slog.Int("count", count))
		return err
	}

	log.Debug("copy count set",
		slog.Int64("branch_id", branchID),
		slog.Int64("book_id", bookID),
		slog.Int("count", count))
	return nil
}

// DecrementIfAvailable implements store.CopyStore.DecrementIfAvailable
// The claim is a pair of conditional statements, each atomic on its own:
// a decrement that only touches rows with more than one copy, and a delete
// that only removes a row holding exactly one. A zero count is never
// written, so the claim also respects the table's count > 0 check, and
// concurrent callers can never both claim the last copy.
func (s *PostgresCopyStore) DecrementIfAvailable(
	ctx context.Context,
	branchID, bookID int64,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE book_copies
		SET count = count - 1
		WHERE branch_id = $1 AND book_id = $2 AND count > 1
	`
	result, err := s.db.ExecContext(ctx, query, branchID, bookID)
	if err != nil {
		log.Error("failed to decrement copy count",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID))
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID))
		return false, err
	}

	if rowsAffected == 0 {
		// Either no row exists, or the row holds the last copy.
		// Claiming the last copy removes the row outright so the ledger
		// never stores a zero count.
		del := `
			DELETE FROM book_copies
			WHERE branch_id = $1 AND book_id = $2 AND count = 1
		`
		result, err = s.db.ExecContext(ctx, del, branchID, bookID)
		if err != nil {
			log.Error("failed to claim last copy",
				slog.String("error", err.Error()),
				slog.Int64("branch_id", branchID),
				slog.Int64("book_id", bookID))
			return false, err
		}

		rowsAffected, err = result.RowsAffected()
		if err != nil {
			log.Error("failed to get rows affected",
				slog.String("error", err.Error()),
				slog.Int64("branch_id", branchID),
				slog.Int64("book_id", bookID))
			return false, err
		}

		if rowsAffected == 0 {
			// Nothing available to lend.
			return false, nil
		}
	}

	log.Debug("claimed one copy",
		slog.Int64("branch_id", branchID),
		slog.Int64("book_id", bookID))
	return true, nil
}

// Increment implements store.CopyStore.Increment
func (s *PostgresCopyStore) Increment(ctx context.Context, branchID, bookID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO book_copies (branch_id, book_id, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (branch_id, book_id) DO UPDATE SET count = book_copies.count + 1
	`
	_, err := s.db.ExecContext(ctx, query, branchID, bookID)
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation while incrementing copies",
				slog.String("error", err.Error()),
				slog.Int64("branch_id", branchID),
				slog.Int64("book_id", bookID))
			return fmt.Errorf("%w: branch %d or book %d not found",
				store.ErrInvalidEntity, branchID, bookID)
		}
		log.Error("failed to increment copy count",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID),
			slog.Int64("book_id", bookID))
		return err
	}

	log.Debug("returned one copy",
		slog.Int64("branch_id", branchID),
		slog.Int64("book_id", bookID))
	return nil
}

// GetAllBranchCopies implements store.CopyStore.GetAllBranchCopies
func (s *PostgresCopyStore) GetAllBranchCopies(
	ctx context.Context,
	branchID int64,
) (map[int64]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT book_id, count
		FROM book_copies
		WHERE branch_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, branchID)
	if err != nil {
		log.Error("failed to query branch copies",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branchID))
		return nil, err
	}
	defer closeRows(rows, log)

	copies := make(map[int64]int)
	for rows.Next() {
		var bookID int64
		var count int
		if err := rows.Scan(&bookID, &count); err != nil {
			log.Error("failed to scan copy row", slog.String("error", err.Error()))
			return nil, err
		}
		copies[bookID] = count
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return copies, nil
}

// GetAllBookCopies implements store.CopyStore.GetAllBookCopies
func (s *PostgresCopyStore) GetAllBookCopies(
	ctx context.Context,
	bookID int64,
) (map[int64]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT branch_id, count
		FROM book_copies
		WHERE book_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, bookID)
	if err != nil {
		log.Error("failed to query book copies",
			slog.String("error", err.Error()),
			slog.Int64("book_id", bookID))
		return nil, err
	}
	defer closeRows(rows, log)

	copies := make(map[int64]int)
	for rows.Next() {
		var branchID int64
		var count int
		if err := rows.Scan(&branchID, &count); err != nil {
			log.Error("failed to scan copy row", slog.String("error", err.Error()))
			return nil, err
		}
		copies[branchID] = count
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return copies, nil
}

// GetAllCopies implements store.CopyStore.GetAllCopies
func (s *PostgresCopyStore) GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT branch_id, book_id, count
		FROM book_copies
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query all copies", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	copies := make(map[int64]map[int64]int)
	for rows.Next() {
		var branchID, bookID int64
		var count int
		if err := rows.Scan(&branchID, &bookID, &count); err != nil {
			log.Error("failed to scan copy row", slog.String("error", err.Error()))
			return nil, err
		}
		branchCopies, ok := copies[branchID]
		if !ok {
			branchCopies = make(map[int64]int)
			copies[branchID] = branchCopies
		}
		branchCopies[bookID] = count
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return copies, nil
}

// closeRows closes the rows, logging a failure instead of dropping it.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
