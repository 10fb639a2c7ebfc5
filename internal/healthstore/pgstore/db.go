// Package pgstore is a healthstore.Client backed by PostgreSQL. Records live in
// the health_records table; reads page with an opaque keyset cursor and grouped
// aggregation buckets by slice index in SQL.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/healthbridge/internal/healthstore"
)

// Store wraps a pgxpool.Pool.
type Store struct {
	Pool     *pgxpool.Pool
	pageSize int
	log      *slog.Logger
}

// New creates a Store with a connection pool. pageSize <= 0 uses
// healthstore.DefaultPageSize.
func New(ctx context.Context, dsn string, pageSize int, log *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if pageSize <= 0 {
		pageSize = healthstore.DefaultPageSize
	}
	return &Store{Pool: pool, pageSize: pageSize, log: log}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.Pool.Close()
}

// Status reports the store available while the database answers a ping.
func (s *Store) Status(ctx context.Context) healthstore.SDKStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.Pool.Ping(ctx); err != nil {
		s.log.Warn("health store ping failed", "error", err)
		return healthstore.SDKUnavailable
	}
	return healthstore.SDKAvailable
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
