package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfward/circ-api/internal/api/shared"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/service/circulation"
)

// defaultLoanPeriodDays is the loan period applied when a checkout request
// does not carry an explicit due date.
const defaultLoanPeriodDays = 7

// CirculationHandler handles checkout, return, due-date override and
// inventory endpoints.
type CirculationHandler struct {
	service circulation.Service
	logger  *slog.Logger
}

// NewCirculationHandler creates a new CirculationHandler.
func NewCirculationHandler(service circulation.Service, log *slog.Logger) *CirculationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CirculationHandler{
		service: service,
		logger:  log.With(slog.String("component", "circulation_handler")),
	}
}

// CheckOutRequest is the request body for checking out a book.
type CheckOutRequest struct {
	CardNo   int64 `json:"card_no" validate:"required,gt=0"`
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
	BranchID int64 `json:"branch_id" validate:"required,gt=0"`
	// DueDate is optional; when absent the default loan period applies.
	DueDate *time.Time `json:"due_date,omitempty"`
}

// ReturnRequest is the request body for returning a book.
type ReturnRequest struct {
	CardNo   int64 `json:"card_no" validate:"required,gt=0"`
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
	BranchID int64 `json:"branch_id" validate:"required,gt=0"`
	// AsOf is the date the return is evaluated against; defaults to now.
	AsOf *time.Time `json:"as_of,omitempty"`
}

// ReturnResponse is the response body for a return attempt. Status is
// "returned" when the loan closed, "refused_overdue" when the loan was
// past due and nothing changed.
type ReturnResponse struct {
	Status   circulation.ReturnStatus `json:"status"`
	BookID   int64                    `json:"book_id"`
	BranchID int64                    `json:"branch_id"`
	CardNo   int64                    `json:"card_no"`
	DueDate  time.Time                `json:"due_date"`
}

// OverrideDueDateRequest is the request body for the administrative
// due-date override.
type OverrideDueDateRequest struct {
	CardNo   int64     `json:"card_no" validate:"required,gt=0"`
	BookID   int64     `json:"book_id" validate:"required,gt=0"`
	BranchID int64     `json:"branch_id" validate:"required,gt=0"`
	DueDate  time.Time `json:"due_date" validate:"required"`
}

// SetCopiesRequest is the request body for setting a branch's holdings of
// a book.
type SetCopiesRequest struct {
	Count int `json:"count"`
}

// CopiesResponse reports a single branch/book copy count.
type CopiesResponse struct {
	BranchID int64 `json:"branch_id"`
	BookID   int64 `json:"book_id"`
	Count    int   `json:"count"`
}

// CheckOut handles POST /loans/checkout.
func (h *CirculationHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req CheckOutRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	dateOut := time.Now().UTC()
	dueDate := dateOut.AddDate(0, 0, defaultLoanPeriodDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	loan, err := h.service.CheckOut(ctx, req.CardNo, req.BookID, req.BranchID, dateOut, dueDate)
	if err != nil {
		HandleServiceError(w, r, err, log, "check_out")
		return
	}

	log.Info("book checked out",
		slog.Int64("card_no", loan.CardNo),
		slog.Int64("book_id", loan.BookID),
		slog.Int64("branch_id", loan.BranchID))
	shared.RespondWithJSON(w, r, http.StatusCreated, loan)
}

// Return handles POST /loans/return.
func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req ReturnRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	result, err := h.service.ReturnBook(ctx, req.CardNo, req.BookID, req.BranchID, asOf)
	if err != nil {
		HandleServiceError(w, r, err, log, "return_book")
		return
	}

	resp := ReturnResponse{
		Status:   result.Status,
		BookID:   result.Loan.BookID,
		BranchID: result.Loan.BranchID,
		CardNo:   result.Loan.CardNo,
		DueDate:  result.Loan.DueDate,
	}

	// A refused return is a successful request reporting a policy outcome,
	// not a client error.
	if result.Status == circulation.ReturnRefusedOverdue {
		log.Info("return refused, loan overdue",
			slog.Int64("card_no", req.CardNo),
			slog.Int64("book_id", req.BookID),
			slog.Int64("branch_id", req.BranchID))
		shared.RespondWithJSON(w, r, http.StatusOK, resp)
		return
	}

	log.Info("book returned",
		slog.Int64("card_no", req.CardNo),
		slog.Int64("book_id", req.BookID),
		slog.Int64("branch_id", req.BranchID))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// OverrideDueDate handles PATCH /loans/due-date.
func (h *CirculationHandler) OverrideDueDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req OverrideDueDateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.service.OverrideDueDate(ctx, req.BookID, req.CardNo, req.BranchID, req.DueDate); err != nil {
		HandleServiceError(w, r, err, log, "override_due_date")
		return
	}

	log.Info("due date overridden",
		slog.Int64("card_no", req.CardNo),
		slog.Int64("book_id", req.BookID),
		slog.Int64("branch_id", req.BranchID),
		slog.Time("due_date", req.DueDate))
	w.WriteHeader(http.StatusNoContent)
}

// SetCopies handles PUT /branches/{branchID}/books/{bookID}/copies.
func (h *CirculationHandler) SetCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	var req SetCopiesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.service.SetBranchCopies(ctx, branchID, bookID, req.Count); err != nil {
		HandleServiceError(w, r, err, log, "set_branch_copies")
		return
	}

	log.Info("branch copies set",
		slog.Int64("branch_id", branchID),
		slog.Int64("book_id", bookID),
		slog.Int("count", req.Count))
	shared.RespondWithJSON(w, r, http.StatusOK, CopiesResponse{
		BranchID: branchID,
		BookID:   bookID,
		Count:    req.Count,
	})
}

// GetCopies handles GET /branches/{branchID}/books/{bookID}/copies.
func (h *CirculationHandler) GetCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	count, err := h.service.GetCopies(ctx, branchID, bookID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_copies")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CopiesResponse{
		BranchID: branchID,
		BookID:   bookID,
		Count:    count,
	})
}

// GetBranchCopies handles GET /branches/{branchID}/copies.
func (h *CirculationHandler) GetBranchCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}

	copies, err := h.service.GetAllBranchCopies(ctx, branchID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_branch_copies")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, copies)
}

// GetBookCopies handles GET /books/{bookID}/copies.
func (h *CirculationHandler) GetBookCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	copies, err := h.service.GetAllBookCopies(ctx, bookID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_book_copies")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, copies)
}

// GetAllCopies handles GET /copies.
func (h *CirculationHandler) GetAllCopies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	copies, err := h.service.GetAllCopies(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_all_copies")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, copies)
}

// ListLoans handles GET /loans.
func (h *CirculationHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	loans, err := h.service.ListLoans(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_loans")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, loans)
}

// ListBorrowerLoans handles GET /borrowers/{cardNo}/loans.
func (h *CirculationHandler) ListBorrowerLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	cardNo, ok := parseIDParam(w, r, "cardNo")
	if !ok {
		return
	}

	loans, err := h.service.ListBorrowerLoans(ctx, cardNo)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_borrower_loans")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, loans)
}

// ListBorrowerBranches handles GET /borrowers/{cardNo}/branches.
func (h *CirculationHandler) ListBorrowerBranches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	cardNo, ok := parseIDParam(w, r, "cardNo")
	if !ok {
		return
	}

	branches, err := h.service.ListBranchesWithLoans(ctx, cardNo)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_borrower_branches")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, branches)
}

// parseIDParam extracts a positive integer URL parameter, responding with
// 400 and returning ok=false when it is missing or malformed.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}
