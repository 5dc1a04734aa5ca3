package suppression

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/logger"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SuppressInput describes a new do-not-mail entry. At least an email or a
// full address (street and zip) is required.
type SuppressInput struct {
	Email   string                   `json:"email"`
	Address string                   `json:"address"`
	Zip     string                   `json:"zip"`
	Reason  domain.SuppressionReason `json:"reason"`
	Source  domain.SuppressionSource `json:"source"`
	Note    string                   `json:"note"`
}

// Suppress adds an entry to the do-not-mail list. Idempotent on the
// email/address pair.
func (s *Service) Suppress(ctx context.Context, orgID string, in SuppressInput) (*domain.Suppression, error) {
	entry := &domain.Suppression{
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		AddressKey:     domain.AddressKey(in.Address, in.Zip),
		Reason:         in.Reason,
		Source:         in.Source,
		Note:           strings.TrimSpace(in.Note),
	}
	if entry.Email == "" && entry.AddressKey == "" {
		return nil, fmt.Errorf("%w: email or address with zip is required", ErrInvalidInput)
	}
	if entry.Reason == "" {
		entry.Reason = domain.ReasonManual
	}
	if entry.Source == "" {
		entry.Source = domain.SourceManual
	}
	if !entry.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidInput, entry.Reason)
	}
	if !entry.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, entry.Source)
	}

	if err := s.repo.Suppress(ctx, entry); err != nil {
		return nil, fmt.Errorf("suppress: %w", err)
	}
	logger.Info("suppression added", "org_id", orgID, "email", entry.Email,
		"reason", entry.Reason, "source", entry.Source)
	return entry, nil
}

// ImportResult summarises a bulk Import.
type ImportResult struct {
	Added   int      `json:"added"`
	Invalid int      `json:"invalid"`
	Errors  []string `json:"errors,omitempty"` // first few rejected rows
}

const maxReportedErrors = 10

// Import adds many entries, defaulting their source to import. Invalid
// rows are counted and skipped; any other failure stops the import.
func (s *Service) Import(ctx context.Context, orgID string, entries []SuppressInput) (*ImportResult, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidInput)
	}

	res := &ImportResult{}
	for i, in := range entries {
		if in.Source == "" {
			in.Source = domain.SourceImport
		}
		if _, err := s.Suppress(ctx, orgID, in); err != nil {
			if !errors.Is(err, ErrInvalidInput) {
				return nil, err
			}
			res.Invalid++
			if len(res.Errors) < maxReportedErrors {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			}
			continue
		}
		res.Added++
	}
	logger.Info("suppressions imported", "org_id", orgID, "added", res.Added, "invalid", res.Invalid)
	return res, nil
}

// Remove deletes an entry.
func (s *Service) Remove(ctx context.Context, orgID, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.repo.Remove(ctx, orgID, id)
}

// List returns entries matching the given filter.
func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]domain.Suppression, int, error) {
	out, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, 0, err
	}
	if out == nil {
		out = []domain.Suppression{}
	}
	return out, total, nil
}

// Count returns the number of entries for an organization.
func (s *Service) Count(ctx context.Context, orgID string) (int, error) {
	return s.repo.Count(ctx, orgID)
}

// MarkSuppressed sets the status of every active record that matches the
// do-not-mail list to suppressed and returns how many were marked. Records
// are matched by email and by address key; they must already be normalised.
func (s *Service) MarkSuppressed(ctx context.Context, orgID string, recs []domain.Record) (int, error) {
	var emails, keys []string
	for _, r := range recs {
		if r.Email != "" {
			emails = append(emails, r.Email)
		}
		if k := domain.AddressKey(r.Address, r.Zip); k != "" {
			keys = append(keys, k)
		}
	}
	if len(emails) == 0 && len(keys) == 0 {
		return 0, nil
	}

	m, err := s.repo.Matching(ctx, orgID, emails, keys)
	if err != nil {
		return 0, fmt.Errorf("match suppressions: %w", err)
	}

	marked := 0
	for i := range recs {
		if recs[i].Status != domain.RecordActive && recs[i].Status != "" {
			continue
		}
		if m.Emails[recs[i].Email] || m.AddressKeys[domain.AddressKey(recs[i].Address, recs[i].Zip)] {
			recs[i].Status = domain.RecordSuppressed
			marked++
		}
	}
	return marked, nil
}

// Stats returns aggregate counts grouped by reason and source.
type Stats struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
	BySource map[string]int `json:"by_source"`
}

// GetStats computes suppression statistics for the dashboard.
func (s *Service) GetStats(ctx context.Context, orgID string) (*Stats, error) {
	entries, total, err := s.repo.List(ctx, orgID, ListFilter{Limit: 0})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:    total,
		ByReason: make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, e := range entries {
		stats.ByReason[string(e.Reason)]++
		stats.BySource[string(e.Source)]++
	}
	return stats, nil
}
