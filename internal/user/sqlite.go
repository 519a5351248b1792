package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/picshelf/service/internal/db"
)

// SQLiteRepository handles user persistence on the embedded SQLite engine.
type SQLiteRepository struct {
	st *db.SQLite
}

// NewSQLiteRepository creates a SQLiteRepository backed by st.
func NewSQLiteRepository(st *db.SQLite) *SQLiteRepository {
	return &SQLiteRepository{st: st}
}

// Create inserts a new user and returns the created record.
func (r *SQLiteRepository) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	var id int64
	err := r.st.Write(func(conn *sql.DB) error {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
			username, passwordHash,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a user by id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanSQLiteUser(r.st.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByUsername fetches a user by username.
func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanSQLiteUser(r.st.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// SetStorage replaces the user's storage configuration.
func (r *SQLiteRepository) SetStorage(ctx context.Context, id int64, cfg *StorageConfig) error {
	endpoint, region, accessKey, secretKey := storageColumns(cfg)
	var affected int64
	err := r.st.Write(func(conn *sql.DB) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE users
			 SET endpoint = ?, region = ?, access_key = ?, secret_key = ?,
			     updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			 WHERE id = ?`,
			endpoint, region, accessKey, secretKey, id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update user storage: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSQLiteUser(row *sql.Row) (*User, error) {
	u := &User{}
	var endpoint, region, accessKey, secretKey sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &endpoint, &region, &accessKey, &secretKey, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = db.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	u.storage = storageFromColumns(nullable(endpoint), nullable(region), nullable(accessKey), nullable(secretKey))
	return u, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
