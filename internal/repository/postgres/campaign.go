package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `
	id, organization_id, list_id, name, status,
	COALESCE(active_order_id, ''), COALESCE(order_id, ''), COALESCE(vendor_order_id, ''),
	piece_count, sent_at, completed_at, scheduled_at, created_at`

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var (
		c                                         domain.Campaign
		sentAt, completedAt, scheduledAt, created sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.OrganizationID, &c.ListID, &c.Name, &c.Status,
		&c.ActiveOrderID, &c.OrderID, &c.VendorOrderID,
		&c.PieceCount, &sentAt, &completedAt, &scheduledAt, &created,
	); err != nil {
		return nil, err
	}
	c.SentAt = timePtr(sentAt)
	c.CompletedAt = timePtr(completedAt)
	c.ScheduledAt = timePtr(scheduledAt)
	c.CreatedAt = timePtr(created)
	return &c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM dm_campaigns WHERE id = $1 AND organization_id = $2`,
		id, orgID))
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) ListByList(ctx context.Context, orgID, listID string) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+campaignColumns+`
		FROM dm_campaigns
		WHERE organization_id = $1 AND list_id = $2
		ORDER BY created_at DESC`, orgID, listID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dm_campaigns
			(id, organization_id, list_id, name, status, order_id, vendor_order_id,
			 piece_count, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)
	`, c.ID, c.OrganizationID, c.ListID, c.Name, string(c.Status), c.OrderID, c.VendorOrderID,
		c.PieceCount, c.ScheduledAt, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, orgID, id string, status domain.CampaignStatus, at time.Time) error {
	q := `UPDATE dm_campaigns SET status = $1 WHERE id = $2 AND organization_id = $3`
	switch status {
	case domain.CampaignMailed:
		q = `UPDATE dm_campaigns SET status = $1, sent_at = $4 WHERE id = $2 AND organization_id = $3`
	case domain.CampaignCompleted:
		q = `UPDATE dm_campaigns SET status = $1, completed_at = $4 WHERE id = $2 AND organization_id = $3`
	}
	args := []interface{}{string(status), id, orgID}
	if status == domain.CampaignMailed || status == domain.CampaignCompleted {
		args = append(args, at)
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, orgID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dm_campaigns WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
