package circulation_test

import (
	"context"
	"database/sql"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/store"
)

// loanKey identifies a loan by its natural (book, borrower, branch) triple.
type loanKey struct {
	bookID   int64
	cardNo   int64
	branchID int64
}

// fakeLoanStore is an in-memory LoanStore for unit tests. Errors can be
// injected per operation to exercise failure paths.
type fakeLoanStore struct {
	loans map[loanKey]domain.Loan

	getErr    error
	createErr error
	updateErr error
	deleteErr error
}

func newFakeLoanStore() *fakeLoanStore {
	return &fakeLoanStore{loans: make(map[loanKey]domain.Loan)}
}

func (f *fakeLoanStore) Create(ctx context.Context, loan *domain.Loan) error {
	if f.createErr != nil {
		return f.createErr
	}
	key := loanKey{loan.BookID, loan.CardNo, loan.BranchID}
	if _, exists := f.loans[key]; exists {
		return store.ErrDuplicateLoan
	}
	f.loans[key] = *loan
	return nil
}

func (f *fakeLoanStore) Get(ctx context.Context, bookID, cardNo, branchID int64) (*domain.Loan, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	loan, ok := f.loans[loanKey{bookID, cardNo, branchID}]
	if !ok {
		return nil, store.ErrLoanNotFound
	}
	copy := loan
	return &copy, nil
}

func (f *fakeLoanStore) Update(ctx context.Context, loan *domain.Loan) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	key := loanKey{loan.BookID, loan.CardNo, loan.BranchID}
	if _, ok := f.loans[key]; !ok {
		return store.ErrLoanNotFound
	}
	f.loans[key] = *loan
	return nil
}

func (f *fakeLoanStore) Delete(ctx context.Context, bookID, cardNo, branchID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	key := loanKey{bookID, cardNo, branchID}
	if _, ok := f.loans[key]; !ok {
		return store.ErrLoanNotFound
	}
	delete(f.loans, key)
	return nil
}

func (f *fakeLoanStore) GetAll(ctx context.Context) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0, len(f.loans))
	for _, loan := range f.loans {
		copy := loan
		loans = append(loans, &copy)
	}
	return loans, nil
}

func (f *fakeLoanStore) GetAllForBorrower(ctx context.Context, cardNo int64) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range f.loans {
		if loan.CardNo == cardNo {
			copy := loan
			loans = append(loans, &copy)
		}
	}
	return loans, nil
}

func (f *fakeLoanStore) WithTx(tx *sql.Tx) store.LoanStore { return f }

// copyKey identifies a copy record by its (branch, book) pair.
type copyKey struct {
	branchID int64
	bookID   int64
}

// fakeCopyStore is an in-memory CopyStore for unit tests. A pair with no
// entry reads as zero, matching the real ledger's no-zero-rows invariant.
type fakeCopyStore struct {
	counts map[copyKey]int

	setErr       error
	decrementErr error
	incrementErr error
}

func newFakeCopyStore() *fakeCopyStore {
	return &fakeCopyStore{counts: make(map[copyKey]int)}
}

func (f *fakeCopyStore) GetCopies(ctx context.Context, branchID, bookID int64) (int, error) {
	return f.counts[copyKey{branchID, bookID}], nil
}

func (f *fakeCopyStore) SetCopies(ctx context.Context, branchID, bookID int64, count int) error {
	if f.setErr != nil {
		return f.setErr
	}
	if count < 0 {
		return store.ErrNegativeCopyCount
	}
	key := copyKey{branchID, bookID}
	if count == 0 {
		delete(f.counts, key)
		return nil
	}
	f.counts[key] = count
	return nil
}

func (f *fakeCopyStore) DecrementIfAvailable(ctx context.Context, branchID, bookID int64) (bool, error) {
	if f.decrementErr != nil {
		return false, f.decrementErr
	}
	key := copyKey{branchID, bookID}
	if f.counts[key] <= 0 {
		return false, nil
	}
	f.counts[key]--
	if f.counts[key] == 0 {
		delete(f.counts, key)
	}
	return true, nil
}

func (f *fakeCopyStore) Increment(ctx context.Context, branchID, bookID int64) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.counts[copyKey{branchID, bookID}]++
	return nil
}

func (f *fakeCopyStore) GetAllBranchCopies(ctx context.Context, branchID int64) (map[int64]int, error) {
	result := make(map[int64]int)
	for key, count := range f.counts {
		if key.branchID == branchID {
			result[key.bookID] = count
		}
	}
	return result, nil
}

func (f *fakeCopyStore) GetAllBookCopies(ctx context.Context, bookID int64) (map[int64]int, error) {
	result := make(map[int64]int)
	for key, count := range f.counts {
		if key.bookID == bookID {
			result[key.branchID] = count
		}
	}
	return result, nil
}

func (f *fakeCopyStore) GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error) {
	result := make(map[int64]map[int64]int)
	for key, count := range f.counts {
		if result[key.branchID] == nil {
			result[key.branchID] = make(map[int64]int)
		}
		result[key.branchID][key.bookID] = count
	}
	return result, nil
}

func (f *fakeCopyStore) WithTx(tx *sql.Tx) store.CopyStore { return f }

func newBranch(id int64, name string) domain.Branch {
	return domain.Branch{ID: id, Name: name}
}

// fakeBranchStore is an in-memory BranchStore for unit tests.
type fakeBranchStore struct {
	branches map[int64]domain.Branch
}

func newFakeBranchStore() *fakeBranchStore {
	return &fakeBranchStore{branches: make(map[int64]domain.Branch)}
}

func (f *fakeBranchStore) Create(ctx context.Context, branch *domain.Branch) error {
	f.branches[branch.ID] = *branch
	return nil
}

func (f *fakeBranchStore) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	branch, ok := f.branches[id]
	if !ok {
		return nil, store.ErrBranchNotFound
	}
	copy := branch
	return &copy, nil
}

func (f *fakeBranchStore) GetAll(ctx context.Context) ([]*domain.Branch, error) {
	branches := make([]*domain.Branch, 0, len(f.branches))
	for _, branch := range f.branches {
		copy := branch
		branches = append(branches, &copy)
	}
	return branches, nil
}

func (f *fakeBranchStore) Update(ctx context.Context, branch *domain.Branch) error {
	if _, ok := f.branches[branch.ID]; !ok {
		return store.ErrBranchNotFound
	}
	f.branches[branch.ID] = *branch
	return nil
}

func (f *fakeBranchStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.branches[id]; !ok {
		return store.ErrBranchNotFound
	}
	delete(f.branches, id)
	return nil
}

func (f *fakeBranchStore) WithTx(tx *sql.Tx) store.BranchStore { return f }
