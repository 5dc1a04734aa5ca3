package suppression

import (
	"context"

	"github.com/ignite/directmail/internal/domain"
)

// Repository defines the data access contract for the do-not-mail list.
type Repository interface {
	// Suppress adds an entry. If an entry with the same email and address
	// key already exists it is kept and only its reason is refreshed.
	Suppress(ctx context.Context, s *domain.Suppression) error

	// Remove deletes an entry by id. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, orgID, id string) error

	// List returns entries matching the filter, newest first, plus the total.
	List(ctx context.Context, orgID string, filter ListFilter) ([]domain.Suppression, int, error)

	// Count returns the number of entries for an org.
	Count(ctx context.Context, orgID string) (int, error)

	// Matching returns the subset of the given emails and address keys that
	// are suppressed for the org.
	Matching(ctx context.Context, orgID string, emails, addressKeys []string) (Matches, error)
}

// ListFilter controls pagination and filtering for suppression lists.
type ListFilter struct {
	Reason string
	Source string
	Search string
	Limit  int
	Offset int
}

// Matches is the result of a Matching lookup.
type Matches struct {
	Emails      map[string]bool
	AddressKeys map[string]bool
}
