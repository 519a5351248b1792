package image

import (
	"context"
	"strings"
)

// GroupStore persists image groups.
type GroupStore interface {
	// InsertGroup records g and returns its id.
	InsertGroup(ctx context.Context, g Group) (int64, error)
	// ListGroups returns every group of userID ordered by insertion.
	ListGroups(ctx context.Context, userID int64) ([]Group, error)
	// FindGroupContaining returns the group of userID holding filename in any
	// variant, or nil when there is none.
	FindGroupContaining(ctx context.Context, userID int64, filename string) (*Group, error)
}

var (
	_ GroupStore = (*Repository)(nil)
	_ GroupStore = (*SQLiteRepository)(nil)
)

const groupColumns = `id, user_id, filename_small, filename_medium, filename_original, created_at`

// matchAnyVariant compares placeholder with each variant column, one equality
// per column so every UNIQUE filename index stays usable.
func matchAnyVariant(placeholder string) string {
	terms := make([]string, len(Variants))
	for i, v := range Variants {
		terms[i] = v.column() + " = " + placeholder
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}
