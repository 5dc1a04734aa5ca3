package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/lists"
)

// RecordRepo implements lists.RecordRepository against PostgreSQL.
type RecordRepo struct{ db *sql.DB }

// NewRecordRepo creates a Postgres-backed record repository.
func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

const syncRecordCount = `
	UPDATE dm_lists
	SET record_count = (SELECT COUNT(*) FROM dm_records WHERE list_id = $1)
	WHERE id = $1`

func (r *RecordRepo) List(ctx context.Context, listID string, q lists.RecordQuery) ([]domain.Record, int, error) {
	where := " WHERE list_id = $1"
	args := []interface{}{listID}
	idx := 2

	if q.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, q.Status)
		idx++
	}
	if q.Tag != "" {
		where += fmt.Sprintf(" AND $%d = ANY(tags)", idx)
		args = append(args, q.Tag)
		idx++
	}
	if q.Search != "" {
		where += fmt.Sprintf(` AND (first_name || ' ' || last_name || ' ' || COALESCE(company, '')
			|| ' ' || address || ' ' || COALESCE(email, '')) ILIKE $%d`, idx)
		args = append(args, "%"+q.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dm_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	query := `
		SELECT id, list_id, first_name, last_name, COALESCE(company, ''), address, city, state, zip,
		       COALESCE(email, ''), COALESCE(phone, ''), status, tags, data, created_at
		FROM dm_records` + where +
		fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		var (
			rec  domain.Record
			data []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.ListID, &rec.FirstName, &rec.LastName, &rec.Company,
			&rec.Address, &rec.City, &rec.State, &rec.Zip, &rec.Email, &rec.Phone,
			&rec.Status, pq.Array(&rec.Tags), &data, &rec.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan record: %w", err)
		}
		if len(data) > 0 {
			rec.Data = json.RawMessage(data)
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// BulkInsert streams the batch with COPY and refreshes the list's
// record_count in the same transaction.
func (r *RecordRepo) BulkInsert(ctx context.Context, listID string, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback()

	stmt, err := txn.Prepare(pq.CopyIn(
		"dm_records",
		"id", "list_id", "first_name", "last_name", "company",
		"address", "city", "state", "zip", "email", "phone",
		"status", "tags", "data", "created_at",
	))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare COPY: %w", err)
	}

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, listID, rec.FirstName, rec.LastName, rec.Company,
			rec.Address, rec.City, rec.State, rec.Zip, rec.Email, rec.Phone,
			string(rec.Status), pq.Array(rec.Tags), nullJSON(rec.Data), rec.CreatedAt,
		); err != nil {
			return 0, fmt.Errorf("copy record %s: %w", rec.ID, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush COPY: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close COPY statement: %w", err)
	}

	if _, err := txn.ExecContext(ctx, syncRecordCount, listID); err != nil {
		return 0, fmt.Errorf("sync record count: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(records), nil
}

func (r *RecordRepo) Delete(ctx context.Context, listID, recordID string) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback()

	res, err := txn.ExecContext(ctx,
		`DELETE FROM dm_records WHERE id = $1 AND list_id = $2`, recordID, listID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lists.ErrRecordNotFound
	}

	if _, err := txn.ExecContext(ctx, syncRecordCount, listID); err != nil {
		return fmt.Errorf("sync record count: %w", err)
	}
	return txn.Commit()
}
