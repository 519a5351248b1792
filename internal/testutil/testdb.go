// Package testutil provides shared database fixtures for tests. SQLite
// databases live in a per-test temp dir; PostgreSQL runs in a throwaway
// container started through testcontainers-go.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/picshelf/service/internal/db"
)

// OpenSQLite opens a migrated SQLite database that is closed with the test.
func OpenSQLite(t *testing.T) *db.SQLite {
	t.Helper()
	st, err := db.OpenSQLite(filepath.Join(t.TempDir(), "picshelf.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// PostgresDB holds a PostgreSQL test container and connection pool.
type PostgresDB struct {
	Pool      *pgxpool.Pool
	container testcontainers.Container
}

// SetupPostgres starts a PostgreSQL container, runs all migrations and
// returns an open pool.
func SetupPostgres(ctx context.Context) (*PostgresDB, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("picshelf_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("getting connection string: %w", err)
	}
	if err := db.Migrate(connStr); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	pool, err := db.Connect(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresDB{Pool: pool, container: container}, nil
}

// Postgres starts a container for t, skipping the test in -short mode or
// when no container runtime is available.
func Postgres(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	// testcontainers can panic while probing for a Docker host.
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("postgres unavailable: %v", r)
		}
	}()
	pg, err := SetupPostgres(context.Background())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pg.Close)
	return pg
}

// Close closes the pool and terminates the container.
func (p *PostgresDB) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.container != nil {
		_ = p.container.Terminate(context.Background())
	}
}

// Truncate removes all rows, children first.
func (p *PostgresDB) Truncate(t *testing.T) {
	t.Helper()
	if _, err := p.Pool.Exec(context.Background(), `TRUNCATE images, users RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
