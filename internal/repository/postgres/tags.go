package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/lists"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// TagRepo implements lists.TagRepository against PostgreSQL.
type TagRepo struct{ db *sql.DB }

// NewTagRepo creates a Postgres-backed tag repository.
func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{db: db} }

func (r *TagRepo) List(ctx context.Context, orgID string) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM dm_tags WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepo) Create(ctx context.Context, orgID string, t *domain.Tag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dm_tags (id, organization_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
	`, t.ID, orgID, t.Name)
	if isUniqueViolation(err) {
		return lists.ErrDuplicateTag
	}
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *TagRepo) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dm_tags WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lists.ErrTagNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
