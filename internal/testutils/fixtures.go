package testutils

import (
	"context"
	"testing"

	"github.com/shelfward/circ-api/internal/store"
)

// InsertAuthor inserts an author row and returns its ID.
func InsertAuthor(t *testing.T, db store.DBTX, name string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		"INSERT INTO authors (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert test author: %v", err)
	}
	return id
}

// InsertPublisher inserts a publisher row and returns its ID.
func InsertPublisher(t *testing.T, db store.DBTX, name string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		"INSERT INTO publishers (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert test publisher: %v", err)
	}
	return id
}

// InsertBook inserts a book row with no author or publisher and returns
// its ID.
func InsertBook(t *testing.T, db store.DBTX, title string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		"INSERT INTO books (title) VALUES ($1) RETURNING id", title).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert test book: %v", err)
	}
	return id
}

// InsertBranch inserts a branch row and returns its ID.
func InsertBranch(t *testing.T, db store.DBTX, name string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		"INSERT INTO branches (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert test branch: %v", err)
	}
	return id
}

// InsertBorrower inserts a borrower row and returns its card number.
func InsertBorrower(t *testing.T, db store.DBTX, name string) int64 {
	t.Helper()

	var cardNo int64
	err := db.QueryRowContext(context.Background(),
		"INSERT INTO borrowers (name) VALUES ($1) RETURNING card_no", name).Scan(&cardNo)
	if err != nil {
		t.Fatalf("failed to insert test borrower: %v", err)
	}
	return cardNo
}

// SetCopies seeds the copy ledger with a count for the branch/book pair.
func SetCopies(t *testing.T, db store.DBTX, branchID, bookID int64, count int) {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		"INSERT INTO book_copies (branch_id, book_id, count) VALUES ($1, $2, $3)",
		branchID, bookID, count)
	if err != nil {
		t.Fatalf("failed to seed test copies: %v", err)
	}
}
