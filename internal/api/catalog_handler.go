package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shelfward/circ-api/internal/api/shared"
	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/service/circulation"
	"github.com/shelfward/circ-api/internal/store"
)

// CatalogHandler handles book, author and publisher endpoints.
type CatalogHandler struct {
	db         *sql.DB
	books      store.BookStore
	authors    store.AuthorStore
	publishers store.PublisherStore
	service    circulation.Service
	logger     *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler. The service is used when
// a book is created together with initial branch holdings, so both land in
// the same transaction.
func NewCatalogHandler(
	db *sql.DB,
	books store.BookStore,
	authors store.AuthorStore,
	publishers store.PublisherStore,
	service circulation.Service,
	log *slog.Logger,
) *CatalogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{
		db:         db,
		books:      books,
		authors:    authors,
		publishers: publishers,
		service:    service,
		logger:     log.With(slog.String("component", "catalog_handler")),
	}
}

// CreateBookRequest is the request body for creating a book. InitialCopies
// optionally seeds branch holdings atomically with the book row.
type CreateBookRequest struct {
	Title         string        `json:"title" validate:"required"`
	AuthorID      *int64        `json:"author_id,omitempty"`
	PublisherID   *int64        `json:"publisher_id,omitempty"`
	InitialCopies map[int64]int `json:"initial_copies,omitempty"`
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Title       string `json:"title" validate:"required"`
	AuthorID    *int64 `json:"author_id,omitempty"`
	PublisherID *int64 `json:"publisher_id,omitempty"`
}

// AuthorRequest is the request body for creating or updating an author.
type AuthorRequest struct {
	Name string `json:"name" validate:"required"`
}

// PublisherRequest is the request body for creating or updating a publisher.
type PublisherRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// CreateBook handles POST /books. When initial_copies is present the book
// and its holdings are written in a single transaction; a bad count rolls
// back the book row too.
func (h *CatalogHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req CreateBookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	book, err := domain.NewBook(req.Title, req.AuthorID, req.PublisherID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err = store.RunInTransaction(ctx, h.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := h.books.WithTx(tx).Create(ctx, book); err != nil {
			return err
		}
		svc := h.service.WithTx(tx)
		for branchID, count := range req.InitialCopies {
			if err := svc.SetBranchCopies(ctx, branchID, book.ID, count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		HandleServiceError(w, r, err, log, "create_book")
		return
	}

	log.Info("book created", slog.Int64("book_id", book.ID), slog.String("title", book.Title))
	shared.RespondWithJSON(w, r, http.StatusCreated, book)
}

// GetBook handles GET /books/{bookID}.
func (h *CatalogHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	book, err := h.books.GetByID(ctx, bookID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_book")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, book)
}

// ListBooks handles GET /books.
func (h *CatalogHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	books, err := h.books.GetAll(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_books")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, books)
}

// UpdateBook handles PUT /books/{bookID}.
func (h *CatalogHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	book := &domain.Book{
		ID:          bookID,
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
	}
	if err := book.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.books.Update(ctx, book); err != nil {
		HandleServiceError(w, r, err, log, "update_book")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, book)
}

// DeleteBook handles DELETE /books/{bookID}. Copy records and loans for
// the book go with it.
func (h *CatalogHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	bookID, ok := parseIDParam(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.books.Delete(ctx, bookID); err != nil {
		HandleServiceError(w, r, err, log, "delete_book")
		return
	}

	log.Info("book deleted", slog.Int64("book_id", bookID))
	w.WriteHeader(http.StatusNoContent)
}

// CreateAuthor handles POST /authors.
func (h *CatalogHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req AuthorRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	author, err := domain.NewAuthor(req.Name)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authors.Create(ctx, author); err != nil {
		HandleServiceError(w, r, err, log, "create_author")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, author)
}

// GetAuthor handles GET /authors/{authorID}.
func (h *CatalogHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	authorID, ok := parseIDParam(w, r, "authorID")
	if !ok {
		return
	}

	author, err := h.authors.GetByID(ctx, authorID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_author")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, author)
}

// ListAuthors handles GET /authors.
func (h *CatalogHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	authors, err := h.authors.GetAll(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_authors")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, authors)
}

// UpdateAuthor handles PUT /authors/{authorID}.
func (h *CatalogHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	authorID, ok := parseIDParam(w, r, "authorID")
	if !ok {
		return
	}

	var req AuthorRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	author := &domain.Author{ID: authorID, Name: req.Name}
	if err := author.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authors.Update(ctx, author); err != nil {
		HandleServiceError(w, r, err, log, "update_author")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, author)
}

// DeleteAuthor handles DELETE /authors/{authorID}. Books referencing the
// author keep their rows with the reference cleared.
func (h *CatalogHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	authorID, ok := parseIDParam(w, r, "authorID")
	if !ok {
		return
	}

	if err := h.authors.Delete(ctx, authorID); err != nil {
		HandleServiceError(w, r, err, log, "delete_author")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreatePublisher handles POST /publishers.
func (h *CatalogHandler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var req PublisherRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	publisher, err := domain.NewPublisher(req.Name, req.Address, req.Phone)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.publishers.Create(ctx, publisher); err != nil {
		HandleServiceError(w, r, err, log, "create_publisher")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, publisher)
}

// GetPublisher handles GET /publishers/{publisherID}.
func (h *CatalogHandler) GetPublisher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	publisherID, ok := parseIDParam(w, r, "publisherID")
	if !ok {
		return
	}

	publisher, err := h.publishers.GetByID(ctx, publisherID)
	if err != nil {
		HandleServiceError(w, r, err, log, "get_publisher")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, publisher)
}

// ListPublishers handles GET /publishers.
func (h *CatalogHandler) ListPublishers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	publishers, err := h.publishers.GetAll(ctx)
	if err != nil {
		HandleServiceError(w, r, err, log, "list_publishers")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, publishers)
}

// UpdatePublisher handles PUT /publishers/{publisherID}.
func (h *CatalogHandler) UpdatePublisher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	publisherID, ok := parseIDParam(w, r, "publisherID")
	if !ok {
		return
	}

	var req PublisherRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	publisher := &domain.Publisher{
		ID:      publisherID,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := publisher.Validate(); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.publishers.Update(ctx, publisher); err != nil {
		HandleServiceError(w, r, err, log, "update_publisher")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, publisher)
}

// DeletePublisher handles DELETE /publishers/{publisherID}. Books
// referencing the publisher keep their rows with the reference cleared.
func (h *CatalogHandler) DeletePublisher(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	publisherID, ok := parseIDParam(w, r, "publisherID")
	if !ok {
		return
	}

	if err := h.publishers.Delete(ctx, publisherID); err != nil {
		HandleServiceError(w, r, err, log, "delete_publisher")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
