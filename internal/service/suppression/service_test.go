package suppression

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ignite/directmail/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.Suppression // keyed by "orgID:email|addressKey"
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.Suppression)}
}

func (m *mockRepo) key(s *domain.Suppression) string {
	return s.OrganizationID + ":" + s.Email + "|" + s.AddressKey
}

func (m *mockRepo) Suppress(_ context.Context, s *domain.Suppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(s)
	if existing, ok := m.store[k]; ok {
		existing.Reason = s.Reason
		s.ID = existing.ID
		return nil
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	cp := *s
	m.store[k] = &cp
	return nil
}

func (m *mockRepo) Remove(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, s := range m.store {
		if s.OrganizationID == orgID && s.ID == id {
			delete(m.store, k)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockRepo) List(_ context.Context, orgID string, f ListFilter) ([]domain.Suppression, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []domain.Suppression
	for _, s := range m.store {
		if s.OrganizationID != orgID {
			continue
		}
		if f.Reason != "" && string(s.Reason) != f.Reason {
			continue
		}
		if f.Search != "" && !strings.Contains(s.Email+s.AddressKey, strings.ToLower(f.Search)) {
			continue
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockRepo) Count(_ context.Context, orgID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.store {
		if s.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) Matching(_ context.Context, orgID string, emails, keys []string) (Matches, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Matches{Emails: map[string]bool{}, AddressKeys: map[string]bool{}}
	for _, s := range m.store {
		if s.OrganizationID != orgID {
			continue
		}
		for _, e := range emails {
			if s.Email != "" && s.Email == e {
				out.Emails[e] = true
			}
		}
		for _, k := range keys {
			if s.AddressKey != "" && s.AddressKey == k {
				out.AddressKeys[k] = true
			}
		}
	}
	return out, nil
}

const testOrgID = "org-001"

func TestSuppress_NormalisesEntry(t *testing.T) {
	svc := NewService(newMockRepo())

	s, err := svc.Suppress(context.Background(), testOrgID, SuppressInput{
		Email:   " OptOut@Example.com ",
		Address: "12  Main St",
		Zip:     "85004-1234",
	})
	if err != nil {
		t.Fatalf("Suppress: %v", err)
	}
	if s.Email != "optout@example.com" {
		t.Errorf("email = %q", s.Email)
	}
	if s.AddressKey != "12 main st|85004" {
		t.Errorf("address key = %q", s.AddressKey)
	}
	if s.Reason != domain.ReasonManual || s.Source != domain.SourceManual {
		t.Errorf("defaults not applied: %s/%s", s.Reason, s.Source)
	}
}

func TestSuppress_Idempotent(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Suppress(ctx, testOrgID, SuppressInput{Email: "dup@example.com", Reason: domain.ReasonMoved})
		if err != nil {
			t.Fatalf("Suppress #%d: %v", i, err)
		}
	}

	count, _ := svc.Count(ctx, testOrgID)
	if count != 1 {
		t.Errorf("expected 1 suppression, got %d", count)
	}
}

func TestSuppress_NothingToMatch_Fails(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Suppress(context.Background(), testOrgID, SuppressInput{Address: "12 Main St"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSuppress_UnknownReason_Fails(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Suppress(context.Background(), testOrgID, SuppressInput{
		Email:  "a@example.com",
		Reason: "bored",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestImport_CountsInvalidRows(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	res, err := svc.Import(ctx, testOrgID, []SuppressInput{
		{Email: "one@example.com", Reason: domain.ReasonOptOut},
		{Address: "no zip"},
		{Address: "5 Elm St", Zip: "10001"},
		{Email: "two@example.com", Reason: "nope"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Added != 2 || res.Invalid != 2 {
		t.Errorf("added=%d invalid=%d, want 2/2", res.Added, res.Invalid)
	}
	if len(res.Errors) != 2 || !strings.HasPrefix(res.Errors[0], "row 2:") {
		t.Errorf("errors = %v", res.Errors)
	}

	list, _, _ := svc.List(ctx, testOrgID, ListFilter{})
	for _, s := range list {
		if s.Source != domain.SourceImport {
			t.Errorf("source = %s, want import", s.Source)
		}
	}
}

func TestImport_Empty_Fails(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Import(context.Background(), testOrgID, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRemove_DeletesSuppression(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	s, _ := svc.Suppress(ctx, testOrgID, SuppressInput{Email: "remove@example.com"})
	if err := svc.Remove(ctx, testOrgID, s.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	count, _ := svc.Count(ctx, testOrgID)
	if count != 0 {
		t.Errorf("expected no suppressions after Remove(), got %d", count)
	}
}

func TestRemove_NotFound_ReturnsError(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Remove(context.Background(), testOrgID, "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkSuppressed(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "gone@example.com", Reason: domain.ReasonDeceased})
	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Address: "9 Oak Rd", Zip: "85004", Reason: domain.ReasonMoved})
	_, _ = svc.Suppress(ctx, "other-org", SuppressInput{Email: "keep@example.com"})

	recs := []domain.Record{
		{Email: "gone@example.com", Status: domain.RecordActive},
		{Address: "9 oak rd", Zip: "85004-0001", Status: domain.RecordActive},
		{Email: "keep@example.com", Status: domain.RecordActive},
		{Email: "gone@example.com", Status: domain.RecordDuplicate},
	}
	n, err := svc.MarkSuppressed(ctx, testOrgID, recs)
	if err != nil {
		t.Fatalf("MarkSuppressed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 marked, got %d", n)
	}
	want := []domain.RecordStatus{domain.RecordSuppressed, domain.RecordSuppressed, domain.RecordActive, domain.RecordDuplicate}
	for i, r := range recs {
		if r.Status != want[i] {
			t.Errorf("record %d status = %s, want %s", i, r.Status, want[i])
		}
	}
}

func TestMarkSuppressed_NoKeys(t *testing.T) {
	svc := NewService(newMockRepo())

	n, err := svc.MarkSuppressed(context.Background(), testOrgID, []domain.Record{{FirstName: "Nobody"}})
	if err != nil || n != 0 {
		t.Errorf("expected 0, nil; got %d, %v", n, err)
	}
}

func TestList_FiltersByReason(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "a@example.com", Reason: domain.ReasonMoved})
	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "b@example.com", Reason: domain.ReasonOptOut})
	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "c@example.com", Reason: domain.ReasonMoved})

	results, total, err := svc.List(ctx, testOrgID, ListFilter{Reason: "moved"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 moved, got %d", total)
	}
	for _, r := range results {
		if r.Reason != domain.ReasonMoved {
			t.Errorf("unexpected reason: %s", r.Reason)
		}
	}
}

func TestGetStats_AggregatesByReasonAndSource(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "a@example.com", Reason: domain.ReasonMoved, Source: domain.SourceNCOA})
	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "b@example.com", Reason: domain.ReasonReturnedMail, Source: domain.SourceReturnedMail})
	_, _ = svc.Suppress(ctx, testOrgID, SuppressInput{Email: "c@example.com", Reason: domain.ReasonMoved})

	stats, err := svc.GetStats(ctx, testOrgID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected total=3, got %d", stats.Total)
	}
	if stats.ByReason["moved"] != 2 {
		t.Errorf("expected 2 moved, got %d", stats.ByReason["moved"])
	}
	if stats.BySource["ncoa"] != 1 {
		t.Errorf("expected 1 ncoa, got %d", stats.BySource["ncoa"])
	}
}
