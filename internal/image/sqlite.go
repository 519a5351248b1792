package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/picshelf/service/internal/db"
)

// SQLiteRepository stores image groups in the embedded SQLite engine.
// Inserts go through the engine's single writer.
type SQLiteRepository struct {
	st *db.SQLite
}

// NewSQLiteRepository creates a SQLiteRepository backed by st.
func NewSQLiteRepository(st *db.SQLite) *SQLiteRepository {
	return &SQLiteRepository{st: st}
}

// InsertGroup records g and returns its id.
func (r *SQLiteRepository) InsertGroup(ctx context.Context, g Group) (int64, error) {
	var id int64
	err := r.st.Write(func(conn *sql.DB) error {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO images (filename_small, filename_medium, filename_original, user_id)
			 VALUES (?, ?, ?, ?)`,
			g.Small, g.Medium, g.Original, g.UserID,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: insert image group: %w", ErrPersistence, err)
	}
	return id, nil
}

// ListGroups returns every group of userID ordered by insertion.
func (r *SQLiteRepository) ListGroups(ctx context.Context, userID int64) ([]Group, error) {
	rows, err := r.st.DB.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM images WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list image groups: %w", ErrPersistence, err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		g, err := scanSQLiteGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan image group: %w", ErrPersistence, err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list image groups: %w", ErrPersistence, err)
	}
	return groups, nil
}

// FindGroupContaining returns the group of userID holding filename, or nil.
func (r *SQLiteRepository) FindGroupContaining(ctx context.Context, userID int64, filename string) (*Group, error) {
	g, err := scanSQLiteGroup(r.st.DB.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM images
		 WHERE user_id = ?1 AND `+matchAnyVariant("?2")+`
		 ORDER BY id
		 LIMIT 1`,
		userID, filename,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find image group: %w", ErrPersistence, err)
	}
	return g, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGroup(row scanner) (*Group, error) {
	g := &Group{}
	var createdAt string
	if err := row.Scan(&g.ID, &g.UserID, &g.Small, &g.Medium, &g.Original, &createdAt); err != nil {
		return nil, err
	}
	t, err := db.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.CreatedAt = t
	return g, nil
}
