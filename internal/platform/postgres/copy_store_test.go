package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/circ-api/internal/platform/postgres"
	"github.com/shelfward/circ-api/internal/store"
	"github.com/shelfward/circ-api/internal/testutils"
)

// copyLedgerRowCount counts raw ledger rows for a pair, to verify that
// zero counts are represented by row absence.
func copyLedgerRowCount(t *testing.T, tx *sql.Tx, branchID, bookID int64) int {
	t.Helper()

	var n int
	err := tx.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM book_copies WHERE branch_id = $1 AND book_id = $2",
		branchID, bookID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestCopyStore_SetAndGet(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchID := testutils.InsertBranch(t, tx, "Central")
		bookID := testutils.InsertBook(t, tx, "The Left Hand of Darkness")

		// Absent record reads as zero.
		count, err := copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 3))
		count, err = copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		// Overwrite with a new absolute count.
		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 1))
		count, err = copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestCopyStore_SetZeroDeletesRow(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchID := testutils.InsertBranch(t, tx, "Central")
		bookID := testutils.InsertBook(t, tx, "Orsinia")

		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 2))
		assert.Equal(t, 1, copyLedgerRowCount(t, tx, branchID, bookID))

		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 0))
		assert.Equal(t, 0, copyLedgerRowCount(t, tx, branchID, bookID),
			"a zero count must be stored as row absence")

		count, err := copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		// Setting zero for a pair that has no row is a no-op, not an error.
		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 0))
	})
}

func TestCopyStore_RejectsNegativeCount(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchID := testutils.InsertBranch(t, tx, "Central")
		bookID := testutils.InsertBook(t, tx, "Malafrena")

		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 2))

		err := copies.SetCopies(ctx, branchID, bookID, -1)
		assert.ErrorIs(t, err, store.ErrNegativeCopyCount)

		// The rejected write must not have touched the ledger.
		count, err := copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestCopyStore_SetCopiesUnknownBranch(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		bookID := testutils.InsertBook(t, tx, "Unlocking the Air")

		err := copies.SetCopies(ctx, 999999, bookID, 1)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestCopyStore_DecrementIfAvailable(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchID := testutils.InsertBranch(t, tx, "Central")
		bookID := testutils.InsertBook(t, tx, "The Lathe of Heaven")

		require.NoError(t, copies.SetCopies(ctx, branchID, bookID, 2))

		claimed, err := copies.DecrementIfAvailable(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.True(t, claimed)

		count, err := copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// Claiming the last copy prunes the row.
		claimed, err = copies.DecrementIfAvailable(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, 0, copyLedgerRowCount(t, tx, branchID, bookID))

		// Nothing left to claim.
		claimed, err = copies.DecrementIfAvailable(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.False(t, claimed)

		// A pair with no row at all cannot be claimed either.
		otherBook := testutils.InsertBook(t, tx, "Searoad")
		claimed, err = copies.DecrementIfAvailable(ctx, branchID, otherBook)
		require.NoError(t, err)
		assert.False(t, claimed)

		// A row created at exactly one copy is claimable and the claim
		// removes the row rather than writing a zero count.
		soloBook := testutils.InsertBook(t, tx, "The Word for World Is Forest")
		require.NoError(t, copies.SetCopies(ctx, branchID, soloBook, 1))
		claimed, err = copies.DecrementIfAvailable(ctx, branchID, soloBook)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, 0, copyLedgerRowCount(t, tx, branchID, soloBook))
	})
}

func TestCopyStore_Increment(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchID := testutils.InsertBranch(t, tx, "Central")
		bookID := testutils.InsertBook(t, tx, "Always Coming Home")

		// Increment with no existing row creates one at count 1.
		require.NoError(t, copies.Increment(ctx, branchID, bookID))
		count, err := copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, copies.Increment(ctx, branchID, bookID))
		count, err = copies.GetCopies(ctx, branchID, bookID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestCopyStore_Snapshots(t *testing.T) {
	t.Parallel()

	testutils.WithTx(t, testDB, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		copies := postgres.NewPostgresCopyStore(tx, nil)

		branchA := testutils.InsertBranch(t, tx, "Central")
		branchB := testutils.InsertBranch(t, tx, "East Side")
		bookX := testutils.InsertBook(t, tx, "The Word for World Is Forest")
		bookY := testutils.InsertBook(t, tx, "Four Ways to Forgiveness")

		require.NoError(t, copies.SetCopies(ctx, branchA, bookX, 2))
		require.NoError(t, copies.SetCopies(ctx, branchA, bookY, 1))
		require.NoError(t, copies.SetCopies(ctx, branchB, bookX, 5))

		branchCopies, err := copies.GetAllBranchCopies(ctx, branchA)
		require.NoError(t, err)
		assert.Equal(t, map[int64]int{bookX: 2, bookY: 1}, branchCopies)

		bookCopies, err := copies.GetAllBookCopies(ctx, bookX)
		require.NoError(t, err)
		assert.Equal(t, map[int64]int{branchA: 2, branchB: 5}, bookCopies)

		all, err := copies.GetAllCopies(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, all[branchA][bookX])
		assert.Equal(t, 1, all[branchA][bookY])
		assert.Equal(t, 5, all[branchB][bookX])
	})
}
