// Package store is the credential and backend-descriptor persistence
// layer (§3, §4.1, §6): a SQLite-backed pool with goose-managed schema
// migrations and a bounded, timeout-guarded connection acquisition path.
package store

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
	"golang.org/x/sync/semaphore"

	"github.com/metamcp/metamcp/pkg/errors"
	"github.com/metamcp/metamcp/pkg/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	maxOpenConns       = 100
	acquisitionTimeout = 3 * time.Second
)

// Store owns the database handle shared by the backend and credential
// repositories, and a semaphore bounding concurrent acquisition to the
// resource model of §5.
type Store struct {
	db   *sql.DB
	sema *semaphore.Weighted
}

// Open connects to databaseURL, runs pending goose migrations, and
// returns a Store ready for repository construction.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("sqlite", databaseURL)
	if err != nil {
		return nil, errors.NewInternalError("failed to open database", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.NewInternalError("failed to ping database", err)
	}

	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, errors.NewInternalError("failed to set goose dialect", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, errors.NewInternalError("failed to apply migrations", err)
	}

	logger.Info("database migrations applied")
	return &Store{db: db, sema: semaphore.NewWeighted(maxOpenConns)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// acquire bounds concurrent DB use to maxOpenConns with a 3s timeout,
// matching the pool-acquisition contract of §5.
func (s *Store) acquire(ctx context.Context) (context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, acquisitionTimeout)
	if err := s.sema.Acquire(ctx, 1); err != nil {
		cancel()
		return nil, errors.NewInternalError("timed out acquiring database connection", err)
	}
	return func() {
		s.sema.Release(1)
		cancel()
	}, nil
}
