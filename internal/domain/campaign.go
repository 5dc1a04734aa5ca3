package domain

import (
	"time"
)

// CampaignStatus is the lifecycle state of a mail drop.
type CampaignStatus string

const (
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignMailed    CampaignStatus = "mailed"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign is a mail drop that used a list. Snapshots carry only the
// order ids and dates; the bookkeeping fields are filled when a campaign is
// read on its own.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	OrganizationID string         `json:"organization_id,omitempty" db:"organization_id"`
	ListID         string         `json:"list_id,omitempty" db:"list_id"`
	Name           string         `json:"name,omitempty" db:"name"`
	Status         CampaignStatus `json:"status,omitempty" db:"status"`

	ActiveOrderID string `json:"active_order_id,omitempty" db:"active_order_id"`
	OrderID       string `json:"order_id,omitempty" db:"order_id"`
	VendorOrderID string `json:"vendor_order_id,omitempty" db:"vendor_order_id"`
	PieceCount    int    `json:"piece_count,omitempty" db:"piece_count"`

	SentAt      *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	CreatedAt   *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// MailedDate returns the effective mail date of the campaign: the first
// present value of sent_at, completed_at, scheduled_at, created_at.
func (c Campaign) MailedDate() *time.Time {
	for _, t := range []*time.Time{c.SentAt, c.CompletedAt, c.ScheduledAt, c.CreatedAt} {
		if t != nil && !t.IsZero() {
			return t
		}
	}
	return nil
}

// ResolvedOrderID returns the first non-empty of active_order_id, order_id,
// vendor_order_id and id.
func (c Campaign) ResolvedOrderID() string {
	for _, id := range []string{c.ActiveOrderID, c.OrderID, c.VendorOrderID, c.ID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// UICampaign is the flattened campaign shape rendered next to a list.
type UICampaign struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"orderId"`
	MailedDate *time.Time `json:"mailedDate"`
}
