package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfward/circ-api/internal/api"
	apimiddleware "github.com/shelfward/circ-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	circulationHandler := api.NewCirculationHandler(app.circulationService, app.logger)
	catalogHandler := api.NewCatalogHandler(
		app.db,
		app.bookStore,
		app.authorStore,
		app.publisherStore,
		app.circulationService,
		app.logger,
	)
	registryHandler := api.NewRegistryHandler(app.branchStore, app.borrowerStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Circulation
		r.Post("/loans/checkout", circulationHandler.CheckOut)
		r.Post("/loans/return", circulationHandler.Return)
		r.Patch("/loans/due-date", circulationHandler.OverrideDueDate)
		r.Get("/loans", circulationHandler.ListLoans)

		// Inventory
		r.Get("/copies", circulationHandler.GetAllCopies)
		r.Put("/branches/{branchID}/books/{bookID}/copies", circulationHandler.SetCopies)
		r.Get("/branches/{branchID}/books/{bookID}/copies", circulationHandler.GetCopies)
		r.Get("/branches/{branchID}/copies", circulationHandler.GetBranchCopies)
		r.Get("/books/{bookID}/copies", circulationHandler.GetBookCopies)

		// Catalog
		r.Post("/books", catalogHandler.CreateBook)
		r.Get("/books", catalogHandler.ListBooks)
		r.Get("/books/{bookID}", catalogHandler.GetBook)
		r.Put("/books/{bookID}", catalogHandler.UpdateBook)
		r.Delete("/books/{bookID}", catalogHandler.DeleteBook)

		r.Post("/authors", catalogHandler.CreateAuthor)
		r.Get("/authors", catalogHandler.ListAuthors)
		r.Get("/authors/{authorID}", catalogHandler.GetAuthor)
		r.Put("/authors/{authorID}", catalogHandler.UpdateAuthor)
		r.Delete("/authors/{authorID}", catalogHandler.DeleteAuthor)

		r.Post("/publishers", catalogHandler.CreatePublisher)
		r.Get("/publishers", catalogHandler.ListPublishers)
		r.Get("/publishers/{publisherID}", catalogHandler.GetPublisher)
		r.Put("/publishers/{publisherID}", catalogHandler.UpdatePublisher)
		r.Delete("/publishers/{publisherID}", catalogHandler.DeletePublisher)

		// Registry
		r.Post("/branches", registryHandler.CreateBranch)
		r.Get("/branches", registryHandler.ListBranches)
		r.Get("/branches/{branchID}", registryHandler.GetBranch)
		r.Put("/branches/{branchID}", registryHandler.UpdateBranch)
		r.Delete("/branches/{branchID}", registryHandler.DeleteBranch)

		r.Post("/borrowers", registryHandler.CreateBorrower)
		r.Get("/borrowers", registryHandler.ListBorrowers)
		r.Get("/borrowers/{cardNo}", registryHandler.GetBorrower)
		r.Put("/borrowers/{cardNo}", registryHandler.UpdateBorrower)
		r.Delete("/borrowers/{cardNo}", registryHandler.DeleteBorrower)
		r.Get("/borrowers/{cardNo}/loans", circulationHandler.ListBorrowerLoans)
		r.Get("/borrowers/{cardNo}/branches", circulationHandler.ListBorrowerBranches)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
