package domain

import "fmt"

// Book-specific validation errors
var (
	// ErrBookTitleEmpty is returned when a book's title is empty.
	ErrBookTitleEmpty = fmt.Errorf("%w: book title cannot be empty", ErrValidation)
)

// Book represents a title in the catalog. AuthorID and PublisherID are
// optional references; nil means the author or publisher is unknown.
// Loans and copy records reference a Book by its ID, so renaming a book
// never changes loan identity.
type Book struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	AuthorID    *int64  `json:"author_id,omitempty"`
	PublisherID *int64  `json:"publisher_id,omitempty"`
}

// NewBook creates a Book with the given title and optional author and
// publisher references, ready to be persisted. Returns an error if
// validation fails.
func NewBook(title string, authorID, publisherID *int64) (*Book, error) {
	book := &Book{
		Title:       title,
		AuthorID:    authorID,
		PublisherID: publisherID,
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return book, nil
}

// Validate checks if the Book has valid data.
func (b *Book) Validate() error {
	if b.Title == "" {
		return ErrBookTitleEmpty
	}
	return nil
}
