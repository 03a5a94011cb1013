package domain

import "fmt"

// Publisher-specific validation errors
var (
	// ErrPublisherNameEmpty is returned when a publisher's name is empty.
	ErrPublisherNameEmpty = fmt.Errorf("%w: publisher name cannot be empty", ErrValidation)
)

// Publisher represents a book publisher. Address and Phone are optional and
// nil when unknown; an empty string is normalized to absent by the store.
type Publisher struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// NewPublisher creates a Publisher with the given name and optional contact
// details, ready to be persisted. Returns an error if validation fails.
func NewPublisher(name string, address, phone *string) (*Publisher, error) {
	publisher := &Publisher{
		Name:    name,
		Address: address,
		Phone:   phone,
	}
	if err := publisher.Validate(); err != nil {
		return nil, err
	}
	return publisher, nil
}

// Validate checks if the Publisher has valid data.
func (p *Publisher) Validate() error {
	if p.Name == "" {
		return ErrPublisherNameEmpty
	}
	return nil
}
