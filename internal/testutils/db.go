// Package testutils provides database testing helpers built around
// transaction isolation: each test runs inside its own transaction, which
// is rolled back when the test completes, so tests can share a database
// without interfering with each other or needing manual cleanup.
package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/pressly/goose/v3"
)

// migrationsRunOnce ensures migrations are only run once across all tests.
var migrationsRunOnce sync.Once

// IsIntegrationTestEnvironment reports whether the integration test
// database is configured. Tests that need a real database should skip
// when this returns false.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// MustGetTestDatabaseURL returns the test database URL, panicking when it
// is not configured. Call IsIntegrationTestEnvironment first.
func MustGetTestDatabaseURL() string {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		panic("DATABASE_URL is not set; integration tests require a test database")
	}
	return url
}

// GetTestDB opens a connection to the test database and registers cleanup
// with the test. The schema is assumed to be in place (see
// SetupTestDatabaseSchema, typically called from TestMain).
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", MustGetTestDatabaseURL())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}
	return db
}

// SetupTestDatabaseSchema resets the schema to baseline and applies all
// migrations. Call it once from TestMain; repeated calls are no-ops.
func SetupTestDatabaseSchema(db *sql.DB) error {
	var setupErr error
	migrationsRunOnce.Do(func() {
		if err := goose.SetDialect("postgres"); err != nil {
			setupErr = fmt.Errorf("failed to set goose dialect: %w", err)
			return
		}

		projectRoot, err := findProjectRoot()
		if err != nil {
			setupErr = fmt.Errorf("failed to find project root: %w", err)
			return
		}
		migrationsDir := filepath.Join(projectRoot, "migrations")

		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			setupErr = fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
			return
		}

		goose.SetLogger(&testGooseLogger{})

		if err := goose.DownTo(db, migrationsDir, 0); err != nil {
			setupErr = fmt.Errorf("failed to reset database schema: %w", err)
			return
		}
		if err := goose.Up(db, migrationsDir); err != nil {
			setupErr = fmt.Errorf("failed to apply migrations: %w", err)
			return
		}
	})
	return setupErr
}

// WithTx runs fn inside a transaction that is always rolled back, giving
// the test a private, self-cleaning view of the database.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer AssertRollbackNoError(t, tx)

	fn(t, tx)
}

// AssertRollbackNoError rolls back the transaction, failing the test on
// any error other than the transaction already being finished.
func AssertRollbackNoError(t *testing.T, tx *sql.Tx) {
	t.Helper()

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.Errorf("failed to roll back transaction: %v", err)
	}
}

// findProjectRoot walks up from this file's directory until it finds go.mod.
func findProjectRoot() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	dir := filepath.Dir(currentFile)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod file)")
		}
		dir = parent
	}
}

// testGooseLogger silences goose's default output during tests.
type testGooseLogger struct{}

func (*testGooseLogger) Fatalf(format string, v ...interface{}) {
	panic(fmt.Sprintf(format, v...))
}

func (*testGooseLogger) Printf(format string, v ...interface{}) {}
