package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	db       *sql.DB
	tx       *sql.Tx
	loans    store.LoanStore
	copies   store.CopyStore
	branches store.BranchStore
	logger   *slog.Logger
}

// NewService creates a new circulation Service over the given database
// connection and stores.
func NewService(
	db *sql.DB,
	loans store.LoanStore,
	copies store.CopyStore,
	branches store.BranchStore,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if loans == nil {
		panic("loans cannot be nil")
	}
	if copies == nil {
		panic("copies cannot be nil")
	}
	if branches == nil {
		panic("branches cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &serviceImpl{
		db:       db,
		loans:    loans,
		copies:   copies,
		branches: branches,
		logger:   logger.With(slog.String("component", "circulation_service")),
	}
}

// WithTx implements Service.WithTx
func (s *serviceImpl) WithTx(tx *sql.Tx) Service {
	return &serviceImpl{
		db:       s.db,
		tx:       tx,
		loans:    s.loans.WithTx(tx),
		copies:   s.copies.WithTx(tx),
		branches: s.branches.WithTx(tx),
		logger:   s.logger,
	}
}

// mutate runs fn against transaction-bound stores. When the service is
// bound to a caller-supplied transaction, fn runs directly on it and the
// caller keeps the commit/rollback decision. Otherwise the engine opens
// its own transaction around fn via store.RunInTransaction, which rolls
// back on error before the error is reported.
func (s *serviceImpl) mutate(
	ctx context.Context,
	fn func(ctx context.Context, loans store.LoanStore, copies store.CopyStore) error,
) error {
	if s.tx != nil {
		return fn(ctx, s.loans, s.copies)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.loans.WithTx(tx), s.copies.WithTx(tx))
	})
}

// CheckOut implements Service.CheckOut
func (s *serviceImpl) CheckOut(
	ctx context.Context,
	cardNo, bookID, branchID int64,
	dateOut, dueDate time.Time,
) (*domain.Loan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing checkout",
		slog.Int64("card_no", cardNo),
		slog.Int64("book_id", bookID),
		slog.Int64("branch_id", branchID))

	var created *domain.Loan
	err := s.mutate(ctx, func(ctx context.Context, loans store.LoanStore, copies store.CopyStore) error {
		// A borrower may hold at most one loan per (book, branch).
		_, err := loans.Get(ctx, bookID, cardNo, branchID)
		if err == nil {
			log.Warn("duplicate loan refused",
				slog.Int64("card_no", cardNo),
				slog.Int64("book_id", bookID),
				slog.Int64("branch_id", branchID))
			return ErrDuplicateLoan
		}
		if !errors.Is(err, store.ErrLoanNotFound) {
			return NewServiceError("check_out", "failed to check for existing loan", err)
		}

		claimed, err := copies.DecrementIfAvailable(ctx, branchID, bookID)
		if err != nil {
			return NewServiceError("check_out", "failed to claim a copy", err)
		}
		if !claimed {
			log.Debug("checkout refused, no copies available",
				slog.Int64("book_id", bookID),
				slog.Int64("branch_id", branchID))
			return ErrNoCopiesAvailable
		}

		loan, err := domain.NewLoan(bookID, cardNo, branchID, dateOut, dueDate)
		if err != nil {
			return NewServiceError("check_out", "invalid loan data", err)
		}

		if err := loans.Create(ctx, loan); err != nil {
			// A concurrent checkout for the same triple can slip in
			// between the existence check and the insert; the store's
			// uniqueness constraint is authoritative.
			if store.IsDuplicateError(err) {
				return ErrDuplicateLoan
			}
			return NewServiceError("check_out", "failed to create loan", err)
		}

		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("checkout granted",
		slog.Int64("card_no", cardNo),
		slog.Int64("book_id", bookID),
		slog.Int64("branch_id", branchID))
	return created, nil
}

// ReturnBook implements Service.ReturnBook
func (s *serviceImpl) ReturnBook(
	ctx context.Context,
	cardNo, bookID, branchID int64,
	asOf time.Time,
) (*ReturnResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing return",
		slog.Int64("card_no", cardNo),
		slog.Int64("book_id", bookID),
		slog.Int64("branch_id", branchID))

	var result *ReturnResult
	err := s.mutate(ctx, func(ctx context.Context, loans store.LoanStore, copies store.CopyStore) error {
		loan, err := loans.Get(ctx, bookID, cardNo, branchID)
		if err != nil {
			if errors.Is(err, store.ErrLoanNotFound) {
				return ErrLoanNotFound
			}
			return NewServiceError("return_book", "failed to look up loan", err)
		}

		if loan.IsOverdue(asOf) {
			// Policy refusal: the loan stays open and inventory is
			// untouched. The administrative override path handles
			// overdue loans.
			log.Info("return refused, loan overdue",
				slog.Int64("card_no", cardNo),
				slog.Int64("book_id", bookID),
				slog.Int64("branch_id", branchID),
				slog.Time("due_date", loan.DueDate),
				slog.Time("as_of", asOf))
			result = &ReturnResult{Status: ReturnRefusedOverdue, Loan: loan}
			return nil
		}

		if err := copies.Increment(ctx, branchID, bookID); err != nil {
			return NewServiceError("return_book", "failed to return copy to inventory", err)
		}
		if err := loans.Delete(ctx, bookID, cardNo, branchID); err != nil {
			return NewServiceError("return_book", "failed to close loan", err)
		}

		result = &ReturnResult{Status: ReturnAccepted, Loan: loan}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == ReturnAccepted {
		log.Info("return accepted",
			slog.Int64("card_no", cardNo),
			slog.Int64("book_id", bookID),
			slog.Int64("branch_id", branchID))
	}
	return result, nil
}

// OverrideDueDate implements Service.OverrideDueDate
func (s *serviceImpl) OverrideDueDate(
	ctx context.Context,
	bookID, cardNo, branchID int64,
	newDueDate time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	return s.mutate(ctx, func(ctx context.Context, loans store.LoanStore, _ store.CopyStore) error {
		loan, err := loans.Get(ctx, bookID, cardNo, branchID)
		if err != nil {
			if errors.Is(err, store.ErrLoanNotFound) {
				return ErrLoanNotFound
			}
			return NewServiceError("override_due_date", "failed to look up loan", err)
		}

		loan.DueDate = newDueDate
		if err := loans.Update(ctx, loan); err != nil {
			return NewServiceError("override_due_date", "failed to update loan", err)
		}

		log.Info("due date overridden",
			slog.Int64("card_no", cardNo),
			slog.Int64("book_id", bookID),
			slog.Int64("branch_id", branchID),
			slog.Time("new_due_date", newDueDate))
		return nil
	})
}

// SetBranchCopies implements Service.SetBranchCopies
func (s *serviceImpl) SetBranchCopies(
	ctx context.Context,
	branchID, bookID int64,
	count int,
) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", store.ErrNegativeCopyCount, count)
	}
	return s.mutate(ctx, func(ctx context.Context, _ store.LoanStore, copies store.CopyStore) error {
		return copies.SetCopies(ctx, branchID, bookID, count)
	})
}

// GetCopies implements Service.GetCopies
func (s *serviceImpl) GetCopies(ctx context.Context, branchID, bookID int64) (int, error) {
	return s.copies.GetCopies(ctx, branchID, bookID)
}

// GetAllBranchCopies implements Service.GetAllBranchCopies
func (s *serviceImpl) GetAllBranchCopies(
	ctx context.Context,
	branchID int64,
) (map[int64]int, error) {
	return s.copies.GetAllBranchCopies(ctx, branchID)
}

// GetAllBookCopies implements Service.GetAllBookCopies
func (s *serviceImpl) GetAllBookCopies(ctx context.Context, bookID int64) (map[int64]int, error) {
	return s.copies.GetAllBookCopies(ctx, bookID)
}

// GetAllCopies implements Service.GetAllCopies
func (s *serviceImpl) GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error) {
	return s.copies.GetAllCopies(ctx)
}

// ListLoans implements Service.ListLoans
func (s *serviceImpl) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	return s.loans.GetAll(ctx)
}

// ListBorrowerLoans implements Service.ListBorrowerLoans
func (s *serviceImpl) ListBorrowerLoans(
	ctx context.Context,
	cardNo int64,
) ([]*domain.Loan, error) {
	return s.loans.GetAllForBorrower(ctx, cardNo)
}

// ListBranchesWithLoans implements Service.ListBranchesWithLoans
func (s *serviceImpl) ListBranchesWithLoans(
	ctx context.Context,
	cardNo int64,
) ([]*domain.Branch, error) {
	loans, err := s.loans.GetAllForBorrower(ctx, cardNo)
	if err != nil {
		return nil, NewServiceError("list_branches_with_loans", "failed to list loans", err)
	}

	seen := make(map[int64]bool, len(loans))
	branches := make([]*domain.Branch, 0, len(loans))
	for _, loan := range loans {
		if seen[loan.BranchID] {
			continue
		}
		seen[loan.BranchID] = true

		branch, err := s.branches.GetByID(ctx, loan.BranchID)
		if err != nil {
			return nil, NewServiceError("list_branches_with_loans", "failed to load branch", err)
		}
		branches = append(branches, branch)
	}
	return branches, nil
}
