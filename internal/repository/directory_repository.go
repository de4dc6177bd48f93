package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DirectoryRepository resolves display names from master data owned by other modules.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

type namedRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// SubjectNames maps subject ids of the school to their names. Unknown ids are absent.
func (r *DirectoryRepository) SubjectNames(ctx context.Context, schoolID string, ids []string) (map[string]string, error) {
	return r.names(ctx, `SELECT id, name FROM subjects WHERE school_id = $1 AND id = ANY($2)`, schoolID, ids, "subject")
}

// TeacherNames maps staff ids of the school to their full names.
func (r *DirectoryRepository) TeacherNames(ctx context.Context, schoolID string, ids []string) (map[string]string, error) {
	return r.names(ctx, `SELECT id, full_name AS name FROM staff WHERE school_id = $1 AND id = ANY($2)`, schoolID, ids, "teacher")
}

func (r *DirectoryRepository) names(ctx context.Context, query, schoolID string, ids []string, kind string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []namedRow
	if err := r.db.SelectContext(ctx, &rows, query, schoolID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup %s names: %w", kind, err)
	}
	for _, row := range rows {
		result[row.ID] = row.Name
	}
	return result, nil
}
