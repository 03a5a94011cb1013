package domain

import "fmt"

// Author-specific validation errors. They wrap ErrValidation so callers
// can classify them without naming every field.
var (
	// ErrAuthorNameEmpty is returned when an author's name is empty.
	ErrAuthorNameEmpty = fmt.Errorf("%w: author name cannot be empty", ErrValidation)
)

// Author represents a book author. The ID is assigned by storage on creation
// and is zero for an author that has not been persisted yet.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewAuthor creates an Author with the given name, ready to be persisted.
// Returns an error if validation fails.
func NewAuthor(name string) (*Author, error) {
	author := &Author{Name: name}
	if err := author.Validate(); err != nil {
		return nil, err
	}
	return author, nil
}

// Validate checks if the Author has valid data.
func (a *Author) Validate() error {
	if a.Name == "" {
		return ErrAuthorNameEmpty
	}
	return nil
}
