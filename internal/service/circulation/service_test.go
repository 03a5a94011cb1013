package circulation_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/circ-api/internal/store"

	"github.com/shelfward/circ-api/internal/service/circulation"
)

// testFixture bundles a service wired to in-memory fakes.
type testFixture struct {
	service  circulation.Service
	loans    *fakeLoanStore
	copies   *fakeCopyStore
	branches *fakeBranchStore
}

// newTestFixture builds a circulation service over in-memory fakes. The
// service is bound to a placeholder transaction so its mutating operations
// run directly against the fakes instead of opening a real database
// transaction.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	loans := newFakeLoanStore()
	copies := newFakeCopyStore()
	branches := newFakeBranchStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := circulation.NewService(new(sql.DB), loans, copies, branches, logger).
		WithTx(new(sql.Tx))

	return &testFixture{
		service:  svc,
		loans:    loans,
		copies:   copies,
		branches: branches,
	}
}

var (
	day0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day7 = day0.AddDate(0, 0, 7)
	day8 = day0.AddDate(0, 0, 8)
)

func TestCheckOut_Succeeds(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 2

	loan, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)
	require.NotNil(t, loan)

	assert.Equal(t, int64(10), loan.BookID)
	assert.Equal(t, int64(100), loan.CardNo)
	assert.Equal(t, int64(1), loan.BranchID)
	assert.True(t, loan.DueDate.Equal(day7))

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "checkout should consume exactly one copy")

	_, ok := f.loans.loans[loanKey{bookID: 10, cardNo: 100, branchID: 1}]
	assert.True(t, ok, "loan should exist after checkout")
}

func TestCheckOut_RefusesDuplicateLoan(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 5

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	assert.ErrorIs(t, err, circulation.ErrDuplicateLoan)

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, count, "refused checkout must not consume a copy")
}

func TestCheckOut_SameBookOtherBranch(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	f.copies.counts[copyKey{branchID: 2, bookID: 10}] = 1

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	// The duplicate rule is per branch: the same borrower may hold the
	// same book from a different branch.
	_, err = f.service.CheckOut(ctx, 100, 10, 2, day0, day7)
	require.NoError(t, err)
}

func TestCheckOut_RefusesWhenNoCopies(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	// No ledger record at all: reads as zero copies.
	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)

	assert.Empty(t, f.loans.loans, "no loan should be created")
}

func TestCheckOut_LastCopyGoesToOneBorrower(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, 200, 10, 1, day0, day7)
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, f.loans.loans, 1)
}

func TestCheckOut_StoreDuplicateMapsToDuplicateLoan(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	// Simulate a concurrent checkout winning between the existence check
	// and the insert.
	f.loans.createErr = store.ErrDuplicateLoan

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	assert.ErrorIs(t, err, circulation.ErrDuplicateLoan)
}

func TestReturnBook_AcceptsOnTimeReturn(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	result, err := f.service.ReturnBook(ctx, 100, 10, 1, day7)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, circulation.ReturnAccepted, result.Status)
	assert.Empty(t, f.loans.loans, "accepted return should close the loan")

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "accepted return should restore the copy")
}

func TestReturnBook_RefusesOverdueReturn(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	result, err := f.service.ReturnBook(ctx, 100, 10, 1, day8)
	require.NoError(t, err, "an overdue refusal is an outcome, not an error")
	require.NotNil(t, result)

	assert.Equal(t, circulation.ReturnRefusedOverdue, result.Status)
	require.NotNil(t, result.Loan)
	assert.True(t, result.Loan.DueDate.Equal(day7))

	// Nothing changed: the loan stays open and inventory is untouched.
	assert.Len(t, f.loans.loans, 1)
	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReturnBook_NotFound(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	_, err := f.service.ReturnBook(ctx, 100, 10, 1, day7)
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func TestOverrideDueDate_RescuesOverdueLoan(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	// The overdue return is refused.
	result, err := f.service.ReturnBook(ctx, 100, 10, 1, day8)
	require.NoError(t, err)
	require.Equal(t, circulation.ReturnRefusedOverdue, result.Status)

	// An administrator moves the due date forward.
	newDue := day0.AddDate(0, 0, 14)
	require.NoError(t, f.service.OverrideDueDate(ctx, 10, 100, 1, newDue))

	// The same return now succeeds.
	result, err = f.service.ReturnBook(ctx, 100, 10, 1, day8)
	require.NoError(t, err)
	assert.Equal(t, circulation.ReturnAccepted, result.Status)

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOverrideDueDate_NotFound(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)

	err := f.service.OverrideDueDate(context.Background(), 10, 100, 1, day7)
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func TestOverrideDueDate_DoesNotTouchInventory(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 3
	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)

	require.NoError(t, f.service.OverrideDueDate(ctx, 10, 100, 1, day8))

	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "override must not change the copy ledger")
}

func TestSetBranchCopies(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.SetBranchCopies(ctx, 1, 10, 4))
	count, err := f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// Setting zero removes the record; the pair still reads as zero.
	require.NoError(t, f.service.SetBranchCopies(ctx, 1, 10, 0))
	count, err = f.service.GetCopies(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A negative count is rejected before any mutation.
	err = f.service.SetBranchCopies(ctx, 1, 10, -1)
	assert.ErrorIs(t, err, store.ErrNegativeCopyCount)
}

func TestListBranchesWithLoans(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.branches.branches[1] = newBranch(1, "Central")
	f.branches.branches[2] = newBranch(2, "East Side")

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	f.copies.counts[copyKey{branchID: 1, bookID: 11}] = 1
	f.copies.counts[copyKey{branchID: 2, bookID: 10}] = 1

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)
	_, err = f.service.CheckOut(ctx, 100, 11, 1, day0, day7)
	require.NoError(t, err)
	_, err = f.service.CheckOut(ctx, 100, 10, 2, day0, day7)
	require.NoError(t, err)

	branches, err := f.service.ListBranchesWithLoans(ctx, 100)
	require.NoError(t, err)

	// Two loans at branch 1 yield the branch once.
	assert.Len(t, branches, 2)
	ids := []int64{branches[0].ID, branches[1].ID}
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestListBorrowerLoans(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1
	f.copies.counts[copyKey{branchID: 1, bookID: 11}] = 1

	_, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)
	_, err = f.service.CheckOut(ctx, 200, 11, 1, day0, day7)
	require.NoError(t, err)

	loans, err := f.service.ListBorrowerLoans(ctx, 100)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, int64(10), loans[0].BookID)
}

// TestCirculationWeek walks a loan through a full cycle: checkout on day
// zero with a one-week period, a failed early duplicate attempt, an
// on-time return on day seven, and a fresh checkout afterwards.
func TestCirculationWeek(t *testing.T) {
	t.Parallel()
	f := newTestFixture(t)
	ctx := context.Background()

	f.copies.counts[copyKey{branchID: 1, bookID: 10}] = 1

	// Day 0: checkout.
	loan, err := f.service.CheckOut(ctx, 100, 10, 1, day0, day7)
	require.NoError(t, err)
	assert.False(t, loan.IsOverdue(day0))

	// Day 3: the same borrower tries again and is refused.
	day3 := day0.AddDate(0, 0, 3)
	_, err = f.service.CheckOut(ctx, 100, 10, 1, day3, day3.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, circulation.ErrDuplicateLoan)

	// Day 7: returned on the due date, which is still on time.
	result, err := f.service.ReturnBook(ctx, 100, 10, 1, day7)
	require.NoError(t, err)
	assert.Equal(t, circulation.ReturnAccepted, result.Status)

	// The copy is available again for anyone.
	_, err = f.service.CheckOut(ctx, 200, 10, 1, day7, day7.AddDate(0, 0, 7))
	require.NoError(t, err)
}
