// Package user manages user accounts and their object-storage configuration.
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, password_hash, endpoint, region, access_key, secret_key, created_at, updated_at`

// Repository handles all user database operations on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the created record.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING `+userColumns,
		username, passwordHash,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByUsername fetches a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// SetStorage replaces the user's storage configuration.
func (r *Repository) SetStorage(ctx context.Context, id int64, cfg *StorageConfig) error {
	endpoint, region, accessKey, secretKey := storageColumns(cfg)
	tag, err := r.db.Exec(ctx,
		`UPDATE users
		 SET endpoint = $1, region = $2, access_key = $3, secret_key = $4, updated_at = NOW()
		 WHERE id = $5`,
		endpoint, region, accessKey, secretKey, id,
	)
	if err != nil {
		return fmt.Errorf("update user storage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var endpoint, region, accessKey, secretKey *string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &endpoint, &region, &accessKey, &secretKey, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.storage = storageFromColumns(endpoint, region, accessKey, secretKey)
	return u, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
