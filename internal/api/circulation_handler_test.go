package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/service/circulation"
)

// stubCirculationService implements circulation.Service with per-method
// function fields so each test controls exactly the calls it expects.
type stubCirculationService struct {
	checkOut        func(ctx context.Context, cardNo, bookID, branchID int64, dateOut, dueDate time.Time) (*domain.Loan, error)
	returnBook      func(ctx context.Context, cardNo, bookID, branchID int64, asOf time.Time) (*circulation.ReturnResult, error)
	overrideDueDate func(ctx context.Context, bookID, cardNo, branchID int64, newDueDate time.Time) error
	setBranchCopies func(ctx context.Context, branchID, bookID int64, count int) error
	getCopies       func(ctx context.Context, branchID, bookID int64) (int, error)
}

func (s *stubCirculationService) CheckOut(
	ctx context.Context,
	cardNo, bookID, branchID int64,
	dateOut, dueDate time.Time,
) (*domain.Loan, error) {
	return s.checkOut(ctx, cardNo, bookID, branchID, dateOut, dueDate)
}

func (s *stubCirculationService) ReturnBook(
	ctx context.Context,
	cardNo, bookID, branchID int64,
	asOf time.Time,
) (*circulation.ReturnResult, error) {
	return s.returnBook(ctx, cardNo, bookID, branchID, asOf)
}

func (s *stubCirculationService) OverrideDueDate(
	ctx context.Context,
	bookID, cardNo, branchID int64,
	newDueDate time.Time,
) error {
	return s.overrideDueDate(ctx, bookID, cardNo, branchID, newDueDate)
}

func (s *stubCirculationService) SetBranchCopies(ctx context.Context, branchID, bookID int64, count int) error {
	return s.setBranchCopies(ctx, branchID, bookID, count)
}

func (s *stubCirculationService) GetCopies(ctx context.Context, branchID, bookID int64) (int, error) {
	return s.getCopies(ctx, branchID, bookID)
}

func (s *stubCirculationService) GetAllBranchCopies(ctx context.Context, branchID int64) (map[int64]int, error) {
	return map[int64]int{}, nil
}

func (s *stubCirculationService) GetAllBookCopies(ctx context.Context, bookID int64) (map[int64]int, error) {
	return map[int64]int{}, nil
}

func (s *stubCirculationService) GetAllCopies(ctx context.Context) (map[int64]map[int64]int, error) {
	return map[int64]map[int64]int{}, nil
}

func (s *stubCirculationService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	return []*domain.Loan{}, nil
}

func (s *stubCirculationService) ListBorrowerLoans(ctx context.Context, cardNo int64) ([]*domain.Loan, error) {
	return []*domain.Loan{}, nil
}

func (s *stubCirculationService) ListBranchesWithLoans(ctx context.Context, cardNo int64) ([]*domain.Branch, error) {
	return []*domain.Branch{}, nil
}

func (s *stubCirculationService) WithTx(tx *sql.Tx) circulation.Service { return s }

// newCirculationRouter mounts the handler the same way the server does.
func newCirculationRouter(svc circulation.Service) http.Handler {
	h := NewCirculationHandler(svc, nil)
	r := chi.NewRouter()
	r.Post("/loans/checkout", h.CheckOut)
	r.Post("/loans/return", h.Return)
	r.Patch("/loans/due-date", h.OverrideDueDate)
	r.Put("/branches/{branchID}/books/{bookID}/copies", h.SetCopies)
	r.Get("/branches/{branchID}/books/{bookID}/copies", h.GetCopies)
	return r
}

func TestCheckOutHandler_Success(t *testing.T) {
	t.Parallel()

	dueDate := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	svc := &stubCirculationService{
		checkOut: func(ctx context.Context, cardNo, bookID, branchID int64, dateOut, due time.Time) (*domain.Loan, error) {
			assert.Equal(t, int64(100), cardNo)
			assert.Equal(t, int64(10), bookID)
			assert.Equal(t, int64(1), branchID)
			assert.True(t, due.Equal(dueDate))
			return &domain.Loan{
				BookID:   bookID,
				BranchID: branchID,
				CardNo:   cardNo,
				DateOut:  dateOut,
				DueDate:  due,
			}, nil
		},
	}
	router := newCirculationRouter(svc)

	body := fmt.Sprintf(`{"card_no":100,"book_id":10,"branch_id":1,"due_date":%q}`,
		dueDate.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/loans/checkout", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var loan domain.Loan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loan))
	assert.Equal(t, int64(10), loan.BookID)
}

func TestCheckOutHandler_DefaultLoanPeriod(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		checkOut: func(ctx context.Context, cardNo, bookID, branchID int64, dateOut, due time.Time) (*domain.Loan, error) {
			assert.Equal(t, dateOut.AddDate(0, 0, 7), due,
				"a checkout without an explicit due date gets the default loan period")
			return &domain.Loan{BookID: bookID, BranchID: branchID, CardNo: cardNo, DateOut: dateOut, DueDate: due}, nil
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/checkout",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCheckOutHandler_DuplicateLoan(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		checkOut: func(ctx context.Context, cardNo, bookID, branchID int64, dateOut, due time.Time) (*domain.Loan, error) {
			return nil, circulation.ErrDuplicateLoan
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/checkout",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "already checked out")
}

func TestCheckOutHandler_NoCopies(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		checkOut: func(ctx context.Context, cardNo, bookID, branchID int64, dateOut, due time.Time) (*domain.Loan, error) {
			return nil, circulation.ErrNoCopiesAvailable
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/checkout",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckOutHandler_InvalidBody(t *testing.T) {
	t.Parallel()

	router := newCirculationRouter(&stubCirculationService{})

	// Malformed JSON.
	req := httptest.NewRequest(http.MethodPost, "/loans/checkout",
		bytes.NewBufferString(`{"card_no":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing required fields.
	req = httptest.NewRequest(http.MethodPost, "/loans/checkout",
		bytes.NewBufferString(`{"card_no":100}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReturnHandler_Accepted(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		returnBook: func(ctx context.Context, cardNo, bookID, branchID int64, asOf time.Time) (*circulation.ReturnResult, error) {
			return &circulation.ReturnResult{
				Status: circulation.ReturnAccepted,
				Loan: &domain.Loan{
					BookID:   bookID,
					BranchID: branchID,
					CardNo:   cardNo,
					DueDate:  asOf,
				},
			}, nil
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/return",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReturnResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, circulation.ReturnAccepted, resp.Status)
}

func TestReturnHandler_RefusedOverdueIsOK(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		returnBook: func(ctx context.Context, cardNo, bookID, branchID int64, asOf time.Time) (*circulation.ReturnResult, error) {
			return &circulation.ReturnResult{
				Status: circulation.ReturnRefusedOverdue,
				Loan: &domain.Loan{
					BookID:   bookID,
					BranchID: branchID,
					CardNo:   cardNo,
					DueDate:  asOf.AddDate(0, 0, -2),
				},
			}, nil
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/return",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// A policy refusal is a successful request reporting an outcome.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReturnResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, circulation.ReturnRefusedOverdue, resp.Status)
}

func TestReturnHandler_LoanNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		returnBook: func(ctx context.Context, cardNo, bookID, branchID int64, asOf time.Time) (*circulation.ReturnResult, error) {
			return nil, circulation.ErrLoanNotFound
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/loans/return",
		bytes.NewBufferString(`{"card_no":100,"book_id":10,"branch_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverrideDueDateHandler(t *testing.T) {
	t.Parallel()

	newDue := time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)
	svc := &stubCirculationService{
		overrideDueDate: func(ctx context.Context, bookID, cardNo, branchID int64, due time.Time) error {
			assert.Equal(t, int64(10), bookID)
			assert.Equal(t, int64(100), cardNo)
			assert.Equal(t, int64(1), branchID)
			assert.True(t, due.Equal(newDue))
			return nil
		},
	}
	router := newCirculationRouter(svc)

	body := fmt.Sprintf(`{"card_no":100,"book_id":10,"branch_id":1,"due_date":%q}`,
		newDue.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPatch, "/loans/due-date", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSetCopiesHandler(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		setBranchCopies: func(ctx context.Context, branchID, bookID int64, count int) error {
			assert.Equal(t, int64(1), branchID)
			assert.Equal(t, int64(10), bookID)
			assert.Equal(t, 4, count)
			return nil
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/branches/1/books/10/copies",
		bytes.NewBufferString(`{"count":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetCopiesHandler_BadParams(t *testing.T) {
	t.Parallel()

	router := newCirculationRouter(&stubCirculationService{})

	req := httptest.NewRequest(http.MethodPut, "/branches/zero/books/10/copies",
		bytes.NewBufferString(`{"count":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCopiesHandler(t *testing.T) {
	t.Parallel()

	svc := &stubCirculationService{
		getCopies: func(ctx context.Context, branchID, bookID int64) (int, error) {
			return 3, nil
		},
	}
	router := newCirculationRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/branches/1/books/10/copies", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp CopiesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, int64(1), resp.BranchID)
	assert.Equal(t, int64(10), resp.BookID)
}
