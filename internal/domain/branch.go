package domain

import "fmt"

// Branch-specific validation errors
var (
	// ErrBranchNameEmpty is returned when a branch's name is empty.
	ErrBranchNameEmpty = fmt.Errorf("%w: branch name cannot be empty", ErrValidation)
)

// Branch represents a physical library branch that holds copies of books.
// Address is optional; the store translates an empty string to absent.
type Branch struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

// NewBranch creates a Branch with the given name and optional address,
// ready to be persisted. Returns an error if validation fails.
func NewBranch(name string, address *string) (*Branch, error) {
	branch := &Branch{
		Name:    name,
		Address: address,
	}
	if err := branch.Validate(); err != nil {
		return nil, err
	}
	return branch, nil
}

// Validate checks if the Branch has valid data.
func (b *Branch) Validate() error {
	if b.Name == "" {
		return ErrBranchNameEmpty
	}
	return nil
}
