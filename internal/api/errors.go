package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shelfward/circ-api/internal/api/shared"
	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/service/circulation"
	"github.com/shelfward/circ-api/internal/store"
)

// MapErrorToStatusCode translates service and store errors into HTTP
// status codes. Unknown errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err),
		errors.Is(err, circulation.ErrLoanNotFound):
		return http.StatusNotFound
	case store.IsDuplicateError(err),
		errors.Is(err, circulation.ErrDuplicateLoan):
		return http.StatusConflict
	case errors.Is(err, circulation.ErrNoCopiesAvailable):
		return http.StatusConflict
	case errors.Is(err, store.ErrNegativeCopyCount),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for the given error.
// Internal details are never leaked; 500-class errors get a generic message.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, circulation.ErrDuplicateLoan):
		return "This book is already checked out by this borrower at this branch"
	case errors.Is(err, circulation.ErrNoCopiesAvailable):
		return "No copies of this book are available at this branch"
	case errors.Is(err, circulation.ErrLoanNotFound):
		return "Loan not found"
	case errors.Is(err, store.ErrNegativeCopyCount):
		return "Copy count cannot be negative"
	case errors.Is(err, store.ErrAuthorNotFound):
		return "Author not found"
	case errors.Is(err, store.ErrPublisherNotFound):
		return "Publisher not found"
	case errors.Is(err, store.ErrBookNotFound):
		return "Book not found"
	case errors.Is(err, store.ErrBranchNotFound):
		return "Branch not found"
	case errors.Is(err, store.ErrBorrowerNotFound):
		return "Borrower not found"
	case store.IsNotFoundError(err):
		return "Resource not found"
	case store.IsDuplicateError(err):
		return "Resource already exists"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Request references an entity that does not exist"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return err.Error()
	default:
		return "An internal error occurred"
	}
}

// HandleServiceError logs the full error and responds with the mapped
// status and a safe message.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger, operation string) {
	status := MapErrorToStatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error("operation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
	} else {
		log.Debug("operation rejected",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}
