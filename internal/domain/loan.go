package domain

import (
	"fmt"
	"time"
)

// Loan-specific validation errors
var (
	// ErrLoanBookIDEmpty is returned when a loan's book reference is missing.
	ErrLoanBookIDEmpty = fmt.Errorf("%w: loan book ID cannot be empty", ErrValidation)

	// ErrLoanBranchIDEmpty is returned when a loan's branch reference is missing.
	ErrLoanBranchIDEmpty = fmt.Errorf("%w: loan branch ID cannot be empty", ErrValidation)

	// ErrLoanCardNoEmpty is returned when a loan's borrower reference is missing.
	ErrLoanCardNoEmpty = fmt.Errorf("%w: loan card number cannot be empty", ErrValidation)

	// ErrLoanDueDateZero is returned when a loan's due date is unset.
	ErrLoanDueDateZero = fmt.Errorf("%w: loan due date cannot be zero", ErrValidation)
)

// Loan records one checked-out copy. Its identity is the natural
// (book, borrower, branch) triple; there is no surrogate ID. At most one
// loan may exist for a given triple at any time, and the referenced
// entities are held by ID, so editing a borrower's own fields does not
// change loan identity.
type Loan struct {
	BookID   int64     `json:"book_id"`
	BranchID int64     `json:"branch_id"`
	CardNo   int64     `json:"card_no"`
	DateOut  time.Time `json:"date_out"`
	DueDate  time.Time `json:"due_date"`
}

// NewLoan creates a Loan for the given triple and dates.
// Returns an error if validation fails.
func NewLoan(bookID, cardNo, branchID int64, dateOut, dueDate time.Time) (*Loan, error) {
	loan := &Loan{
		BookID:   bookID,
		BranchID: branchID,
		CardNo:   cardNo,
		DateOut:  dateOut,
		DueDate:  dueDate,
	}

	if err := loan.Validate(); err != nil {
		return nil, err
	}

	return loan, nil
}

// Validate checks if the Loan has valid data.
func (l *Loan) Validate() error {
	if l.BookID == 0 {
		return ErrLoanBookIDEmpty
	}
	if l.BranchID == 0 {
		return ErrLoanBranchIDEmpty
	}
	if l.CardNo == 0 {
		return ErrLoanCardNoEmpty
	}
	if l.DueDate.IsZero() {
		return ErrLoanDueDateZero
	}
	return nil
}

// IsOverdue reports whether the loan is past due as of the given date.
// The comparison is date-granular: a return on the due date itself is
// not overdue.
func (l *Loan) IsOverdue(asOf time.Time) bool {
	due := l.DueDate
	y1, m1, d1 := asOf.Date()
	y2, m2, d2 := due.Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 > d2
}
