package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores image groups in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertGroup records g and returns its id.
func (r *Repository) InsertGroup(ctx context.Context, g Group) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (filename_small, filename_medium, filename_original, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		g.Small, g.Medium, g.Original, g.UserID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert image group: %w", ErrPersistence, err)
	}
	return id, nil
}

// ListGroups returns every group of userID ordered by insertion.
func (r *Repository) ListGroups(ctx context.Context, userID int64) ([]Group, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+groupColumns+` FROM images WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list image groups: %w", ErrPersistence, err)
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
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
func (r *Repository) FindGroupContaining(ctx context.Context, userID int64, filename string) (*Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM images
		 WHERE user_id = $1 AND `+matchAnyVariant("$2")+`
		 ORDER BY id
		 LIMIT 1`,
		userID, filename,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find image group: %w", ErrPersistence, err)
	}
	return g, nil
}

func scanGroup(row pgx.Row) (*Group, error) {
	g := &Group{}
	if err := row.Scan(&g.ID, &g.UserID, &g.Small, &g.Medium, &g.Original, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}
