package campaign_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/service/campaign"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign // keyed by id
}

func newMemRepo() *memRepo {
	return &memRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memRepo) Get(_ context.Context, orgID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != orgID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) ListByList(_ context.Context, orgID, listID string) ([]domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.OrganizationID == orgID && c.ListID == listID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, orgID, id string, status domain.CampaignStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != orgID {
		return campaign.ErrNotFound
	}
	c.Status = status
	switch status {
	case domain.CampaignMailed:
		c.SentAt = &at
	case domain.CampaignCompleted:
		c.CompletedAt = &at
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != orgID {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

// fakeLists knows one list and counts snapshot invalidations.
type fakeLists struct {
	mu            sync.Mutex
	invalidations int
}

func (f *fakeLists) Get(_ context.Context, orgID, id string) (*domain.MailingList, error) {
	if orgID != testOrg || id != testList {
		return nil, errListNotFound
	}
	return &domain.MailingList{ID: id, OrganizationID: orgID}, nil
}

func (f *fakeLists) InvalidateSnapshot(context.Context, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations++
}

var errListNotFound = errors.New("list not found")

const (
	testOrg  = "org-1"
	testList = "list-1"
)

func newTestService() (*campaign.Service, *fakeLists) {
	lists := &fakeLists{}
	return campaign.NewService(newMemRepo(), lists), lists
}

func TestCreate(t *testing.T) {
	svc, lists := newTestService()
	c, err := svc.Create(context.Background(), testOrg, testList, campaign.CreateInput{
		Name: " Spring Postcard ", OrderID: "ORD-1", PieceCount: 2500,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != domain.CampaignScheduled {
		t.Fatalf("expected scheduled, got %s", c.Status)
	}
	if c.Name != "Spring Postcard" || c.ListID != testList {
		t.Fatalf("unexpected campaign: %+v", c)
	}
	if c.CreatedAt == nil {
		t.Fatal("expected created_at to be set")
	}
	if lists.invalidations != 1 {
		t.Fatalf("expected snapshot invalidation, got %d", lists.invalidations)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), testOrg, testList, campaign.CreateInput{})
	if !errors.Is(err, campaign.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.Create(context.Background(), testOrg, testList, campaign.CreateInput{Name: "x", PieceCount: -1})
	if !errors.Is(err, campaign.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.Create(context.Background(), testOrg, "other", campaign.CreateInput{Name: "x"})
	if !errors.Is(err, errListNotFound) {
		t.Fatalf("expected list lookup error, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), testOrg, "nonexistent")
	if err != campaign.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, _ := svc.Create(ctx, testOrg, testList, campaign.CreateInput{Name: "Drop"})

	mailed := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	got, err := svc.MarkMailed(ctx, testOrg, c.ID, mailed)
	if err != nil {
		t.Fatalf("mark mailed: %v", err)
	}
	if got.Status != domain.CampaignMailed || got.SentAt == nil || !got.SentAt.Equal(mailed) {
		t.Fatalf("unexpected campaign after mailing: %+v", got)
	}
	if d := got.MailedDate(); d == nil || !d.Equal(mailed) {
		t.Fatalf("mailed date should be sent_at, got %v", d)
	}

	got, err = svc.MarkCompleted(ctx, testOrg, c.ID, time.Time{})
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if got.Status != domain.CampaignCompleted || got.CompletedAt == nil {
		t.Fatalf("unexpected campaign after completion: %+v", got)
	}

	if _, err := svc.Cancel(ctx, testOrg, c.ID); !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteBeforeMailed(t *testing.T) {
	svc, _ := newTestService()
	c, _ := svc.Create(context.Background(), testOrg, testList, campaign.CreateInput{Name: "Drop"})

	_, err := svc.MarkCompleted(context.Background(), testOrg, c.ID, time.Time{})
	if !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, _ := svc.Create(ctx, testOrg, testList, campaign.CreateInput{Name: "Drop"})

	if err := svc.Delete(ctx, testOrg, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := svc.Get(ctx, testOrg, c.ID)
	if err != campaign.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteMailed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, _ := svc.Create(ctx, testOrg, testList, campaign.CreateInput{Name: "Drop"})
	_, _ = svc.MarkMailed(ctx, testOrg, c.ID, time.Time{})

	if err := svc.Delete(ctx, testOrg, c.ID); err != campaign.ErrAlreadyMailed {
		t.Fatalf("expected ErrAlreadyMailed, got %v", err)
	}
}

func TestListForList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Create(ctx, testOrg, testList, campaign.CreateInput{Name: "A"})
	svc.Create(ctx, testOrg, testList, campaign.CreateInput{Name: "B"})

	list, err := svc.ListForList(ctx, testOrg, testList)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 campaigns, got %d", len(list))
	}

	if _, err := svc.ListForList(ctx, testOrg, "other"); !errors.Is(err, errListNotFound) {
		t.Fatalf("expected list lookup error, got %v", err)
	}
}
