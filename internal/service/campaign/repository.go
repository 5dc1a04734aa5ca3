package campaign

import (
	"context"
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, orgID, id string) (*domain.Campaign, error)

	// ListByList returns the campaigns of one list, newest first.
	ListByList(ctx context.Context, orgID, listID string) ([]domain.Campaign, error)

	// Create inserts a new campaign. ID and CreatedAt are set by the caller.
	Create(ctx context.Context, c *domain.Campaign) error

	// UpdateStatus moves a campaign to status, stamping the matching date
	// column (sent_at for mailed, completed_at for completed) with at.
	UpdateStatus(ctx context.Context, orgID, id string, status domain.CampaignStatus, at time.Time) error

	// Delete removes a campaign.
	Delete(ctx context.Context, orgID, id string) error
}

// Lists is the slice of the list service campaigns depend on.
type Lists interface {
	Get(ctx context.Context, orgID, id string) (*domain.MailingList, error)
	InvalidateSnapshot(ctx context.Context, orgID string)
}
