package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shelfward/circ-api/internal/domain"
	"github.com/shelfward/circ-api/internal/platform/logger"
	"github.com/shelfward/circ-api/internal/store"
)

// PostgresBranchStore implements the store.BranchStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBranchStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBranchStore creates a new PostgreSQL implementation of the BranchStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBranchStore(db store.DBTX, logger *slog.Logger) *PostgresBranchStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBranchStore{
		db:     db,
		logger: logger.With(slog.String("component", "branch_store")),
	}
}

// Ensure PostgresBranchStore implements store.BranchStore interface
var _ store.BranchStore = (*PostgresBranchStore)(nil)

// WithTx implements store.BranchStore.WithTx
func (s *PostgresBranchStore) WithTx(tx *sql.Tx) store.BranchStore {
	return &PostgresBranchStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.BranchStore.Create
// An empty address is stored as NULL.
func (s *PostgresBranchStore) Create(ctx context.Context, branch *domain.Branch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := branch.Validate(); err != nil {
		log.Warn("branch validation failed during create",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO branches (name, address)
		VALUES ($1, $2)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, branch.Name, nullableString(branch.Address)).
		Scan(&branch.ID)
	if err != nil {
		log.Error("failed to create branch",
			slog.String("error", err.Error()),
			slog.String("name", branch.Name))
		return err
	}

	log.Info("branch created",
		slog.Int64("branch_id", branch.ID),
		slog.String("name", branch.Name))
	return nil
}

// GetByID implements store.BranchStore.GetByID
func (s *PostgresBranchStore) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, address
		FROM branches
		WHERE id = $1
	`

	var branch domain.Branch
	var address sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&branch.ID, &branch.Name, &address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBranchNotFound
		}
		log.Error("failed to get branch",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", id))
		return nil, err
	}
	branch.Address = stringPtr(address)

	return &branch, nil
}

// GetAll implements store.BranchStore.GetAll
func (s *PostgresBranchStore) GetAll(ctx context.Context) ([]*domain.Branch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, address
		FROM branches
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query branches", slog.String("error", err.Error()))
		return nil, err
	}
	defer closeRows(rows, log)

	var branches []*domain.Branch
	for rows.Next() {
		var branch domain.Branch
		var address sql.NullString
		if err := rows.Scan(&branch.ID, &branch.Name, &address); err != nil {
			log.Error("failed to scan branch row", slog.String("error", err.Error()))
			return nil, err
		}
		branch.Address = stringPtr(address)
		branches = append(branches, &branch)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if branches == nil {
		branches = []*domain.Branch{}
	}
	return branches, nil
}

// Update implements store.BranchStore.Update
func (s *PostgresBranchStore) Update(ctx context.Context, branch *domain.Branch) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := branch.Validate(); err != nil {
		log.Warn("branch validation failed during update",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE branches
		SET name = $1, address = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, branch.Name, nullableString(branch.Address), branch.ID)
	if err != nil {
		log.Error("failed to update branch",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", branch.ID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBranchNotFound
	}

	log.Info("branch updated", slog.Int64("branch_id", branch.ID))
	return nil
}

// Delete implements store.BranchStore.Delete
// Dependent copy records and loans go with it via ON DELETE CASCADE.
func (s *PostgresBranchStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM branches
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete branch",
			slog.String("error", err.Error()),
			slog.Int64("branch_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrBranchNotFound
	}

	log.Info("branch deleted", slog.Int64("branch_id", id))
	return nil
}
