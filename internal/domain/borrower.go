package domain

import "fmt"

// Borrower-specific validation errors
var (
	// ErrBorrowerNameEmpty is returned when a borrower's name is empty.
	ErrBorrowerNameEmpty = fmt.Errorf("%w: borrower name cannot be empty", ErrValidation)
)

// Borrower represents a library patron, identified by a card number assigned
// by storage on registration. Address and Phone are optional.
type Borrower struct {
	CardNo  int64   `json:"card_no"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// NewBorrower creates a Borrower with the given name and optional contact
// details, ready to be persisted. Returns an error if validation fails.
func NewBorrower(name string, address, phone *string) (*Borrower, error) {
	borrower := &Borrower{
		Name:    name,
		Address: address,
		Phone:   phone,
	}
	if err := borrower.Validate(); err != nil {
		return nil, err
	}
	return borrower, nil
}

// Validate checks if the Borrower has valid data.
func (b *Borrower) Validate() error {
	if b.Name == "" {
		return ErrBorrowerNameEmpty
	}
	return nil
}
