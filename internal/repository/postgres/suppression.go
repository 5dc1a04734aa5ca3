package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/suppression"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) Suppress(ctx context.Context, s *domain.Suppression) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO dm_suppressions (id, organization_id, email, address_key, reason, source, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (organization_id, email, address_key)
		DO UPDATE SET reason = EXCLUDED.reason, updated_at = NOW()
		RETURNING id, created_at
	`, s.ID, s.OrganizationID, s.Email, s.AddressKey, string(s.Reason), string(s.Source), s.Note,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("suppress: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Remove(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dm_suppressions WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("remove suppression: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return suppression.ErrNotFound
	}
	return nil
}

func (r *SuppressionRepo) List(ctx context.Context, orgID string, f suppression.ListFilter) ([]domain.Suppression, int, error) {
	where := " WHERE organization_id = $1"
	args := []interface{}{orgID}
	idx := 2
	if f.Reason != "" {
		where += fmt.Sprintf(" AND reason = $%d", idx)
		args = append(args, f.Reason)
		idx++
	}
	if f.Source != "" {
		where += fmt.Sprintf(" AND source = $%d", idx)
		args = append(args, f.Source)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (email ILIKE $%d OR address_key ILIKE $%d)", idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dm_suppressions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppressions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}

	q := `
		SELECT id, organization_id, email, address_key, reason, source, COALESCE(note, ''), created_at
		FROM dm_suppressions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var out []domain.Suppression
	for rows.Next() {
		var s domain.Suppression
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Email, &s.AddressKey,
			&s.Reason, &s.Source, &s.Note, &s.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) Count(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dm_suppressions WHERE organization_id = $1`, orgID,
	).Scan(&n)
	return n, err
}

func (r *SuppressionRepo) Matching(ctx context.Context, orgID string, emails, addressKeys []string) (suppression.Matches, error) {
	m := suppression.Matches{Emails: map[string]bool{}, AddressKeys: map[string]bool{}}
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, address_key
		FROM dm_suppressions
		WHERE organization_id = $1
		  AND ((email <> '' AND email = ANY($2)) OR (address_key <> '' AND address_key = ANY($3)))
	`, orgID, pq.Array(emails), pq.Array(addressKeys))
	if err != nil {
		return m, fmt.Errorf("match suppressions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email, key string
		if err := rows.Scan(&email, &key); err != nil {
			return m, err
		}
		if email != "" {
			m.Emails[email] = true
		}
		if key != "" {
			m.AddressKeys[key] = true
		}
	}
	return m, rows.Err()
}
