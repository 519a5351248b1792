// Package db provides database connection and migration utilities for the
// two supported engines: PostgreSQL (pgx pool) and embedded SQLite.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations
var migrationsFS embed.FS

// Connect creates and validates a pgx connection pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	slog.Info("connected to database", "engine", "postgres")
	return pool, nil
}

// Migrate runs all pending up migrations embedded in the binary against a
// PostgreSQL database.
func Migrate(databaseURL string) error {
	return migrateUp("postgres", databaseURL)
}

func migrateUp(engine, databaseURL string) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+engine)
	if err != nil {
		return fmt.Errorf("locate %s migrations: %w", engine, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	slog.Info("database migrations applied", "engine", engine)
	return nil
}
