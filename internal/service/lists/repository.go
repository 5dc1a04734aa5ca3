package lists

import (
	"context"
	"encoding/json"

	"github.com/ignite/directmail/internal/domain"
)

// ListRepository defines the data access contract for mailing lists.
// Implementations must be safe for concurrent use.
type ListRepository interface {
	// Snapshot returns every list of the organization with tags and
	// campaigns joined in, newest first.
	Snapshot(ctx context.Context, orgID string) ([]domain.MailingList, error)

	// Get returns a single list with tags and campaigns. Returns ErrNotFound
	// if it doesn't exist in the organization.
	Get(ctx context.Context, orgID, id string) (*domain.MailingList, error)

	// Create inserts a new list. ID and CreatedAt are set by the caller.
	Create(ctx context.Context, l *domain.MailingList) error

	// Update applies the non-nil fields and stamps modified_at/modified_by.
	Update(ctx context.Context, orgID, id string, u UpdateFields) error

	// Delete removes a list with its records and tag links.
	Delete(ctx context.Context, orgID, id string) error

	// SetTags replaces the list's tag set.
	SetTags(ctx context.Context, orgID, listID string, tagIDs []string) error
}

// UpdateFields holds the mutable fields for a list update.
// Nil fields are not applied.
type UpdateFields struct {
	Name        *string
	Description *string
	Criteria    json.RawMessage
	Metadata    json.RawMessage
	ModifiedBy  string
}

// RecordRepository defines the data access contract for list records.
// Writes keep the owning list's record_count in step.
type RecordRepository interface {
	// List returns one page of records plus the total matching count,
	// ordered by created_at.
	List(ctx context.Context, listID string, q RecordQuery) ([]domain.Record, int, error)

	// BulkInsert stores records in one transaction and returns how many
	// were written.
	BulkInsert(ctx context.Context, listID string, records []domain.Record) (int, error)

	// Delete removes one record. Returns ErrRecordNotFound if absent.
	Delete(ctx context.Context, listID, recordID string) error
}

// RecordQuery controls filtering and pagination for record lists.
type RecordQuery struct {
	Search string // name, company, address or email substring
	Status string
	Tag    string
	Limit  int
	Offset int
}

// TagRepository defines the data access contract for tags.
type TagRepository interface {
	// List returns the organization's tags ordered by name.
	List(ctx context.Context, orgID string) ([]domain.Tag, error)

	// Create inserts a tag. Returns ErrDuplicateTag when the organization
	// already has a tag with that name.
	Create(ctx context.Context, orgID string, t *domain.Tag) error

	// Delete removes a tag and detaches it from every list.
	Delete(ctx context.Context, orgID, id string) error
}
