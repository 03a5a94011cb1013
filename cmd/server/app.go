package main

import (
	"database/sql"
	"log/slog"

	"github.com/shelfward/circ-api/internal/config"
	"github.com/shelfward/circ-api/internal/platform/postgres"
	"github.com/shelfward/circ-api/internal/service/circulation"
	"github.com/shelfward/circ-api/internal/store"
)

// application bundles the server's long-lived dependencies: config, logger,
// the database pool, the stores and the circulation service.
type application struct {
	config *config.Config
	logger *slog.Logger

	db *sql.DB

	authorStore    store.AuthorStore
	publisherStore store.PublisherStore
	bookStore      store.BookStore
	branchStore    store.BranchStore
	borrowerStore  store.BorrowerStore
	loanStore      store.LoanStore
	copyStore      store.CopyStore

	circulationService circulation.Service
}

// newApplication connects to the database and wires the stores and
// services together.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,

		authorStore:    postgres.NewPostgresAuthorStore(db, logger),
		publisherStore: postgres.NewPostgresPublisherStore(db, logger),
		bookStore:      postgres.NewPostgresBookStore(db, logger),
		branchStore:    postgres.NewPostgresBranchStore(db, logger),
		borrowerStore:  postgres.NewPostgresBorrowerStore(db, logger),
		loanStore:      postgres.NewPostgresLoanStore(db, logger),
		copyStore:      postgres.NewPostgresCopyStore(db, logger),
	}

	app.circulationService = circulation.NewService(
		db,
		app.loanStore,
		app.copyStore,
		app.branchStore,
		logger,
	)

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
