package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/logger"
)

// Service implements campaign business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo  Repository
	lists Lists
	now   func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository, lists Lists) *Service {
	return &Service{repo: repo, lists: lists, now: time.Now}
}

// transitions lists the allowed status moves.
var transitions = map[domain.CampaignStatus][]domain.CampaignStatus{
	domain.CampaignScheduled: {domain.CampaignMailed, domain.CampaignCancelled},
	domain.CampaignMailed:    {domain.CampaignCompleted},
}

// CreateInput holds the fields for recording a new mail drop.
type CreateInput struct {
	Name          string     `json:"name"`
	OrderID       string     `json:"orderId"`
	VendorOrderID string     `json:"vendorOrderId"`
	PieceCount    int        `json:"pieceCount"`
	ScheduledAt   *time.Time `json:"scheduledAt"`
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, orgID, id)
}

// ListForList returns the campaigns made from a list.
func (s *Service) ListForList(ctx context.Context, orgID, listID string) ([]domain.Campaign, error) {
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByList(ctx, orgID, listID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	if out == nil {
		out = []domain.Campaign{}
	}
	return out, nil
}

// Create records a scheduled mail drop against a list.
func (s *Service) Create(ctx context.Context, orgID, listID string, in CreateInput) (*domain.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.PieceCount < 0 {
		return nil, fmt.Errorf("%w: piece count cannot be negative", ErrInvalidInput)
	}
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &domain.Campaign{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		ListID:         listID,
		Name:           name,
		Status:         domain.CampaignScheduled,
		OrderID:        strings.TrimSpace(in.OrderID),
		VendorOrderID:  strings.TrimSpace(in.VendorOrderID),
		PieceCount:     in.PieceCount,
		ScheduledAt:    in.ScheduledAt,
		CreatedAt:      &now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	s.lists.InvalidateSnapshot(ctx, orgID)

	logger.Info("campaign scheduled", "org_id", orgID, "list_id", listID, "campaign_id", c.ID)
	return c, nil
}

// MarkMailed records that the vendor dropped the campaign at the given
// time, or now when at is zero.
func (s *Service) MarkMailed(ctx context.Context, orgID, id string, at time.Time) (*domain.Campaign, error) {
	return s.transition(ctx, orgID, id, domain.CampaignMailed, at)
}

// MarkCompleted closes out a mailed campaign.
func (s *Service) MarkCompleted(ctx context.Context, orgID, id string, at time.Time) (*domain.Campaign, error) {
	return s.transition(ctx, orgID, id, domain.CampaignCompleted, at)
}

// Cancel cancels a scheduled campaign. Cancelled campaigns no longer count
// towards a list's mailing history.
func (s *Service) Cancel(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	return s.transition(ctx, orgID, id, domain.CampaignCancelled, time.Time{})
}

func (s *Service) transition(ctx context.Context, orgID, id string, to domain.CampaignStatus, at time.Time) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range transitions[c.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.Status, to)
	}
	if at.IsZero() {
		at = s.now()
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, to, at.UTC()); err != nil {
		return nil, fmt.Errorf("update campaign status: %w", err)
	}
	s.lists.InvalidateSnapshot(ctx, orgID)

	logger.Info("campaign status changed", "org_id", orgID, "campaign_id", id, "from", c.Status, "to", to)
	return s.repo.Get(ctx, orgID, id)
}

// Delete removes a campaign that never mailed.
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	c, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignMailed || c.Status == domain.CampaignCompleted {
		return ErrAlreadyMailed
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.lists.InvalidateSnapshot(ctx, orgID)
	return nil
}
