package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/lists"
)

// ListRepo implements lists.ListRepository against PostgreSQL.
type ListRepo struct{ db *sql.DB }

// NewListRepo creates a Postgres-backed list repository.
func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{db: db} }

// listSelect loads lists with their tags (join-row shape, in assignment
// order) and live campaigns aggregated as JSON.
const listSelect = `
	SELECT l.id, l.organization_id, l.name, COALESCE(l.description, ''), l.record_count,
	       l.created_at, COALESCE(l.created_by, ''), l.modified_at, COALESCE(l.modified_by, ''),
	       l.criteria, l.metadata,
	       COALESCE((
	           SELECT json_agg(json_build_object('tag', json_build_object('id', t.id, 'name', t.name))
	                           ORDER BY lt.position)
	           FROM dm_list_tags lt JOIN dm_tags t ON t.id = lt.tag_id
	           WHERE lt.list_id = l.id
	       ), '[]'::json) AS tags,
	       COALESCE((
	           SELECT json_agg(json_build_object(
	                      'id', c.id, 'active_order_id', c.active_order_id,
	                      'order_id', c.order_id, 'vendor_order_id', c.vendor_order_id,
	                      'sent_at', c.sent_at, 'completed_at', c.completed_at,
	                      'scheduled_at', c.scheduled_at, 'created_at', c.created_at)
	                  ORDER BY c.created_at)
	           FROM dm_campaigns c
	           WHERE c.list_id = l.id AND c.status <> 'cancelled'
	       ), '[]'::json) AS campaigns
	FROM dm_lists l`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*domain.MailingList, error) {
	var (
		l                       domain.MailingList
		modifiedAt              sql.NullTime
		criteria, metadata      []byte
		tagsJSON, campaignsJSON []byte
	)
	if err := row.Scan(
		&l.ID, &l.OrganizationID, &l.Name, &l.Description, &l.RecordCount,
		&l.CreatedAt, &l.CreatedBy, &modifiedAt, &l.ModifiedBy,
		&criteria, &metadata, &tagsJSON, &campaignsJSON,
	); err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		t := modifiedAt.Time
		l.ModifiedAt = &t
	}
	if len(criteria) > 0 {
		l.Criteria = json.RawMessage(criteria)
	}
	if len(metadata) > 0 {
		l.Metadata = json.RawMessage(metadata)
	}
	if err := json.Unmarshal(tagsJSON, &l.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of list %s: %w", l.ID, err)
	}
	if err := json.Unmarshal(campaignsJSON, &l.Campaigns); err != nil {
		return nil, fmt.Errorf("decode campaigns of list %s: %w", l.ID, err)
	}
	if l.Tags == nil {
		l.Tags = []domain.TagEntry{}
	}
	if l.Campaigns == nil {
		l.Campaigns = []domain.Campaign{}
	}
	return &l, nil
}

func (r *ListRepo) Snapshot(ctx context.Context, orgID string) ([]domain.MailingList, error) {
	rows, err := r.db.QueryContext(ctx, listSelect+`
		WHERE l.organization_id = $1
		ORDER BY l.created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("snapshot lists: %w", err)
	}
	defer rows.Close()

	out := []domain.MailingList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *ListRepo) Get(ctx context.Context, orgID, id string) (*domain.MailingList, error) {
	l, err := scanList(r.db.QueryRowContext(ctx, listSelect+`
		WHERE l.id = $1 AND l.organization_id = $2`, id, orgID))
	if err == sql.ErrNoRows {
		return nil, lists.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (r *ListRepo) Create(ctx context.Context, l *domain.MailingList) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dm_lists
			(id, organization_id, name, description, record_count,
			 created_at, created_by, criteria, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, l.ID, l.OrganizationID, l.Name, l.Description, l.RecordCount,
		l.CreatedAt, l.CreatedBy, nullJSON(l.Criteria), nullJSON(l.Metadata))
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (r *ListRepo) Update(ctx context.Context, orgID, id string, u lists.UpdateFields) error {
	sets := []string{"modified_at = NOW()"}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Criteria != nil {
		add("criteria", nullJSON(u.Criteria))
	}
	if u.Metadata != nil {
		add("metadata", nullJSON(u.Metadata))
	}
	add("modified_by", u.ModifiedBy)

	q := fmt.Sprintf("UPDATE dm_lists SET %s WHERE id = $%d AND organization_id = $%d",
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, id, orgID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lists.ErrNotFound
	}
	return nil
}

func (r *ListRepo) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dm_lists WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lists.ErrNotFound
	}
	return nil
}

func (r *ListRepo) SetTags(ctx context.Context, orgID, listID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set tags: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM dm_lists WHERE id = $1 AND organization_id = $2)`,
		listID, orgID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check list: %w", err)
	}
	if !exists {
		return lists.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dm_list_tags WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	if len(tagIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dm_list_tags (list_id, tag_id, position)
			SELECT $1, x.tag_id, x.position
			FROM unnest($2::text[]) WITH ORDINALITY AS x(tag_id, position)
		`, listID, pq.Array(tagIDs)); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE dm_lists SET modified_at = NOW() WHERE id = $1`, listID); err != nil {
		return fmt.Errorf("touch list: %w", err)
	}
	return tx.Commit()
}

// nullJSON maps an empty raw message to SQL NULL.
func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
