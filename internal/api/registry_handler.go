package api

import (
	"log/slog"
	"net/http"

	"github.com/shelfward/circ-api/internal/api/shared"
	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// RegistryHandler handles branch and borrower endpoints.
type RegistryHandler struct {
	branches  store.BranchStore
	borrowers store.BorrowerStore
	logger    *slog.Logger
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(branches store.BranchStore, borrowers store.BorrowerStore, log *slog.Logger) *RegistryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RegistryHandler{
		branches:  branches,
		borrowers: borrowers,
		logger:    log.With(slog.String("component", "registry_handler")),
	}
}

// BranchRequest is the request body for creating or updating a branch.
type BranchRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address,omitempty"`
}

// BorrowerRequest is the request body for creating or updating a borrower.
type BorrowerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// CreateBranch handles POST /branches.
func (h *RegistryHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req BranchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	branch, err := domain.NewBranch(req.Name, req.Address)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.branches.Create(ctx, branch); err != nil {
		HandleServiceError(w, r, err, log, "create_branch")
		return
	}

	log.Info("branch created", slog.Int64("branch_id", branch.ID), slog.String("name", branch.Name))
	shared.RespondWithJSON(w, r, http.StatusCreated, branch)
}

// GetBranch handles GET /branches/{branchID}.
func (h *RegistryHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}

	branch, err := h.branches.GetByID(ctx, branchID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_branch")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, branch)
}

// ListBranches handles GET /branches.
func (h *RegistryHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branches, err := h.branches.GetAll(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_branches")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, branches)
}

// UpdateBranch handles PUT /branches/{branchID}.
func (h *RegistryHandler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}

	var req BranchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	branch := &domain.Branch{ID: branchID, Name: req.Name, Address: req.Address}
	if err := branch.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.branches.Update(ctx, branch); err != nil {
		HandleServiceError(w, r, err, log, "update_branch")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, branch)
}

// DeleteBranch handles DELETE /branches/{branchID}. The branch's copy
// records and loans are removed with it.
func (h *RegistryHandler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	branchID, ok := parseIDParam(w, r, "branchID")
	if !ok {
		return
	}

	if err := h.branches.Delete(ctx, branchID); err != nil {
		HandleServiceError(w, r, err, log, "delete_branch")
		return
	}

	log.Info("branch deleted", slog.Int64("branch_id", branchID))
	w.WriteHeader(http.StatusNoContent)
}

// CreateBorrower handles POST /borrowers.
func (h *RegistryHandler) CreateBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req BorrowerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	borrower, err := domain.NewBorrower(req.Name, req.Address, req.Phone)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.borrowers.Create(ctx, borrower); err != nil {
		HandleServiceError(w, r, err, log, "create_borrower")
		return
	}

	log.Info("borrower registered", slog.Int64("card_no", borrower.CardNo))
	shared.RespondWithJSON(w, r, http.StatusCreated, borrower)
}

// GetBorrower handles GET /borrowers/{cardNo}.
func (h *RegistryHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	cardNo, ok := parseIDParam(w, r, "cardNo")
	if !ok {
		return
	}

	borrower, err := h.borrowers.GetByCardNo(ctx, cardNo)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_borrower")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, borrower)
}

// ListBorrowers handles GET /borrowers.
func (h *RegistryHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	borrowers, err := h.borrowers.GetAll(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_borrowers")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, borrowers)
}

// UpdateBorrower handles PUT /borrowers/{cardNo}.
func (h *RegistryHandler) UpdateBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	cardNo, ok := parseIDParam(w, r, "cardNo")
	if !ok {
		return
	}

	var req BorrowerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	borrower := &domain.Borrower{CardNo: cardNo, Name: req.Name, Address: req.Address, Phone: req.Phone}
	if err := borrower.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.borrowers.Update(ctx, borrower); err != nil {
		HandleServiceError(w, r, err, log, "update_borrower")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, borrower)
}

// DeleteBorrower handles DELETE /borrowers/{cardNo}. The borrower's loans
// are removed with the card.
func (h *RegistryHandler) DeleteBorrower(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	cardNo, ok := parseIDParam(w, r, "cardNo")
	if !ok {
		return
	}

	if err := h.borrowers.Delete(ctx, cardNo); err != nil {
		HandleServiceError(w, r, err, log, "delete_borrower")
		return
	}

	log.Info("borrower removed", slog.Int64("card_no", cardNo))
	w.WriteHeader(http.StatusNoContent)
}
