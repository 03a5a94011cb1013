package store

import (
	"context"
	"database/sql"
)

// CopyStore defines the interface for the copy ledger: the authoritative
// count of copies of each book held by each branch.
//
// The ledger never stores zero rows. A missing row reads as a count of
// zero, and a mutation that would leave a count of zero deletes the row
// instead. Snapshots therefore never contain a zero count.
type CopyStore interface {
	// GetCopies returns the number of copies of the book held by the
	// branch. A missing record is a count of zero, not an error.
	GetCopies(ctx context.Context, branchID, bookID int64) (int, error)

	// SetCopies upserts the count for the (branch, book) pair. A count of
	// zero deletes the record instead of storing a zero row. A negative
	// count is a contract violation: ErrNegativeCopyCount is returned and
	// nothing is mutated.
	SetCopies(ctx context.Context, branchID, bookID int64, count int) error

	// DecrementIfAvailable atomically decrements the count for the
	// (branch, book) pair if and only if at least one copy is available,
	// deleting the row if the count reaches zero. It reports whether a
	// copy was claimed. The check and the write are a single conditional
	// statement, so two concurrent callers can never both claim the last
	// copy.
	DecrementIfAvailable(ctx context.Context, branchID, bookID int64) (bool, error)

	// Increment atomically increments the count for the (branch, book)
	// pair, creating the record if none exists.
	Increment(ctx context.Context, branchID, bookID int64) error

	// GetAllBranchCopies returns a point-in-time snapshot of the branch's
	// holdings, keyed by book ID. No zero counts appear.
	GetAllBranchCopies(ctx context.Context, branchID int64) (map[int64]int, error)

	// GetAllBookCopies returns a point-in-time snapshot of which branches
	// hold the book, keyed by branch ID. No zero counts appear.
	GetAllBookCopies(ctx context.Context, bookID int64) (map[int64]int, error)

	// GetAllCopies returns a full snapshot of the ledger, keyed by branch
	// ID and then book ID. No zero counts appear.
	GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error)

	// WithTx returns a new CopyStore instance that uses the provided
	// transaction. The transaction should be created and managed by the
	// caller, typically via RunInTransaction.
	WithTx(tx *sql.Tx) CopyStore
}
