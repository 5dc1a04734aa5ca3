package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/listquery"
	"github.com/ignite/directmail/internal/pkg/logger"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
)

// Service implements the list manager. All public methods are safe for
// concurrent use if the underlying repositories and cache are.
type Service struct {
	lists   ListRepository
	records RecordRepository
	tags    TagRepository
	cache   SnapshotCache
	dnm     Suppressor
	now     func() time.Time

	defaultPageSize int
	maxPageSize     int
}

// Option configures a Service.
type Option func(*Service)

// WithCache puts a snapshot cache in front of ListRepository.Snapshot.
func WithCache(c SnapshotCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// Suppressor marks records that are on the organization's do-not-mail list.
type Suppressor interface {
	MarkSuppressed(ctx context.Context, orgID string, recs []domain.Record) (int, error)
}

// WithSuppressor checks added records against a do-not-mail list.
func WithSuppressor(sp Suppressor) Option {
	return func(s *Service) { s.dnm = sp }
}

// WithClock overrides time.Now, which anchors the relative date filters.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPageSizes sets the search page size used when the caller sends none
// and the largest page size a caller may ask for.
func WithPageSizes(def, maxSize int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultPageSize = def
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// NewService creates a list service backed by the given repositories.
func NewService(lists ListRepository, records RecordRepository, tags TagRepository, opts ...Option) *Service {
	s := &Service{
		lists:           lists,
		records:         records,
		tags:            tags,
		cache:           NopCache{},
		now:             time.Now,
		defaultPageSize: listquery.DefaultPageSize,
		maxPageSize:     200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==========================================
// SEARCH
// ==========================================

// Search runs the list engine over the organization's snapshot.
func (s *Service) Search(ctx context.Context, orgID string, opts listquery.Options) (listquery.Result, error) {
	snapshot, err := s.Snapshot(ctx, orgID)
	if err != nil {
		return listquery.Result{}, err
	}

	if opts.PageSize < 1 {
		opts.PageSize = s.defaultPageSize
	}
	if opts.PageSize > s.maxPageSize {
		opts.PageSize = s.maxPageSize
	}
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	return listquery.FilterSortPaginate(snapshot, opts), nil
}

// Snapshot returns every list of the organization, from the cache when warm.
func (s *Service) Snapshot(ctx context.Context, orgID string) ([]domain.MailingList, error) {
	if lists, ok := s.cache.Get(ctx, orgID); ok {
		return lists, nil
	}

	lists, err := s.lists.Snapshot(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.cache.Set(ctx, orgID, lists)
	return lists, nil
}

// InvalidateSnapshot drops the organization's cached snapshot. Writers
// outside this package that change what a snapshot contains call it.
func (s *Service) InvalidateSnapshot(ctx context.Context, orgID string) {
	s.cache.Invalidate(ctx, orgID)
}

// ==========================================
// LISTS
// ==========================================

// CreateInput holds the fields for creating a new list.
type CreateInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"createdBy"`
	Criteria    json.RawMessage `json:"criteria,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	TagIDs      []string        `json:"tagIds,omitempty"`
}

// UpdateInput holds the mutable list fields. Nil fields are left alone.
type UpdateInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Criteria    json.RawMessage `json:"criteria,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	ModifiedBy  string          `json:"modifiedBy"`
}

// Get returns a single list.
func (s *Service) Get(ctx context.Context, orgID, id string) (*domain.MailingList, error) {
	return s.lists.Get(ctx, orgID, id)
}

// Create validates and persists a new, empty list.
func (s *Service) Create(ctx context.Context, orgID string, in CreateInput) (*domain.MailingList, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validRawJSON(in.Criteria, "criteria"); err != nil {
		return nil, err
	}
	if err := validRawJSON(in.Metadata, "metadata"); err != nil {
		return nil, err
	}

	var tagIDs []string
	if len(in.TagIDs) > 0 {
		var err error
		if tagIDs, err = s.resolveTags(ctx, orgID, in.TagIDs); err != nil {
			return nil, err
		}
	}

	l := &domain.MailingList{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		CreatedAt:      s.now().UTC(),
		CreatedBy:      strings.TrimSpace(in.CreatedBy),
		Criteria:       in.Criteria,
		Metadata:       in.Metadata,
		Tags:           []domain.TagEntry{},
		Campaigns:      []domain.Campaign{},
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	if len(tagIDs) > 0 {
		if err := s.lists.SetTags(ctx, orgID, l.ID, tagIDs); err != nil {
			return nil, fmt.Errorf("tag new list: %w", err)
		}
	}
	s.cache.Invalidate(ctx, orgID)

	logger.Info("list created", "org_id", orgID, "list_id", l.ID, "tags", len(tagIDs))
	return s.lists.Get(ctx, orgID, l.ID)
}

// Update modifies list fields and returns the updated list.
func (s *Service) Update(ctx context.Context, orgID, id string, in UpdateInput) (*domain.MailingList, error) {
	u := UpdateFields{
		Description: in.Description,
		Criteria:    in.Criteria,
		Metadata:    in.Metadata,
		ModifiedBy:  strings.TrimSpace(in.ModifiedBy),
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		u.Name = &name
	}
	if err := validRawJSON(in.Criteria, "criteria"); err != nil {
		return nil, err
	}
	if err := validRawJSON(in.Metadata, "metadata"); err != nil {
		return nil, err
	}

	if err := s.lists.Update(ctx, orgID, id, u); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, orgID)
	return s.lists.Get(ctx, orgID, id)
}

// Delete removes a list with its records.
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	if err := s.lists.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, orgID)
	logger.Info("list deleted", "org_id", orgID, "list_id", id)
	return nil
}

// SetTags replaces the list's tags. Every id must name a tag of the
// organization; repeats are collapsed.
func (s *Service) SetTags(ctx context.Context, orgID, listID string, tagIDs []string) (*domain.MailingList, error) {
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return nil, err
	}
	ids, err := s.resolveTags(ctx, orgID, tagIDs)
	if err != nil {
		return nil, err
	}
	if err := s.lists.SetTags(ctx, orgID, listID, ids); err != nil {
		return nil, fmt.Errorf("set tags: %w", err)
	}
	s.cache.Invalidate(ctx, orgID)
	return s.lists.Get(ctx, orgID, listID)
}

func (s *Service) resolveTags(ctx context.Context, orgID string, tagIDs []string) ([]string, error) {
	known, err := s.tags.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	valid := make(map[string]bool, len(known))
	for _, t := range known {
		valid[t.ID] = true
	}

	out := make([]string, 0, len(tagIDs))
	seen := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		if !valid[id] {
			return nil, fmt.Errorf("%w: %q", ErrTagNotFound, id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func validRawJSON(raw json.RawMessage, field string) error {
	if len(raw) == 0 || json.Valid(raw) {
		return nil
	}
	return fmt.Errorf("%w: %s is not valid JSON", ErrInvalidInput, field)
}

// ==========================================
// TAGS
// ==========================================

// ListTags returns the organization's tags.
func (s *Service) ListTags(ctx context.Context, orgID string) ([]domain.Tag, error) {
	tags, err := s.tags.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

// CreateTag adds a tag. Names are trimmed and unique per organization,
// ignoring case.
func (s *Service) CreateTag(ctx context.Context, orgID, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrInvalidInput)
	}

	existing, err := s.tags.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	for _, t := range existing {
		if strings.EqualFold(t.Name, name) {
			return nil, ErrDuplicateTag
		}
	}

	t := &domain.Tag{ID: uuid.New().String(), Name: name}
	if err := s.tags.Create(ctx, orgID, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag from the organization and from every list.
func (s *Service) DeleteTag(ctx context.Context, orgID, id string) error {
	if err := s.tags.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, orgID)
	return nil
}

// ==========================================
// RECORDS
// ==========================================

// AddResult summarises an AddRecords call.
type AddResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Suppressed int `json:"suppressed"`
}

// ListRecords returns one page of a list's records and the matching total.
func (s *Service) ListRecords(ctx context.Context, orgID, listID string, q RecordQuery) ([]domain.Record, int, error) {
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return nil, 0, err
	}
	if q.Limit < 1 {
		q.Limit = defaultRecordLimit
	}
	if q.Limit > maxRecordLimit {
		q.Limit = maxRecordLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Search = strings.TrimSpace(q.Search)

	recs, total, err := s.records.List(ctx, listID, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, total, nil
}

// AddRecords normalises and stores records on a list. Rows repeating an
// address (or, lacking one, an email) already seen in the batch are stored
// as duplicates; rows with neither a full address nor an email are stored
// as invalid. Active rows on the do-not-mail list are stored as suppressed.
func (s *Service) AddRecords(ctx context.Context, orgID, listID string, recs []domain.Record) (AddResult, error) {
	if len(recs) == 0 {
		return AddResult{}, fmt.Errorf("%w: no records", ErrInvalidInput)
	}
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return AddResult{}, err
	}

	now := s.now().UTC()
	batch := make([]domain.Record, len(recs))
	seen := make(map[string]bool, len(recs))
	var res AddResult
	for i, r := range recs {
		r = NormalizeRecord(r)
		r.ListID = listID
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}

		switch key := dedupeKey(r); {
		case key == "":
			r.Status = domain.RecordInvalid
			res.Invalid++
		case seen[key]:
			r.Status = domain.RecordDuplicate
			res.Duplicates++
		default:
			seen[key] = true
		}
		batch[i] = r
	}

	if s.dnm != nil {
		marked, err := s.dnm.MarkSuppressed(ctx, orgID, batch)
		if err != nil {
			return AddResult{}, fmt.Errorf("check suppressions: %w", err)
		}
		res.Suppressed = marked
	}

	n, err := s.records.BulkInsert(ctx, listID, batch)
	if err != nil {
		return AddResult{}, fmt.Errorf("insert records: %w", err)
	}
	res.Inserted = n
	s.cache.Invalidate(ctx, orgID)

	logger.Info("records added", "org_id", orgID, "list_id", listID,
		"inserted", res.Inserted, "duplicates", res.Duplicates, "invalid", res.Invalid,
		"suppressed", res.Suppressed)
	return res, nil
}

// DeleteRecord removes one record from a list.
func (s *Service) DeleteRecord(ctx context.Context, orgID, listID, recordID string) error {
	if _, err := s.lists.Get(ctx, orgID, listID); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, listID, recordID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, orgID)
	return nil
}

// NormalizeRecord trims every field, upper-cases the state, lower-cases the
// email and defaults the status to active.
func NormalizeRecord(r domain.Record) domain.Record {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Company = strings.TrimSpace(r.Company)
	r.Address = strings.Join(strings.Fields(r.Address), " ")
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Status == "" {
		r.Status = domain.RecordActive
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

func dedupeKey(r domain.Record) string {
	if key := domain.AddressKey(r.Address, r.Zip); key != "" {
		return "addr:" + key
	}
	if r.Email != "" {
		return "email:" + r.Email
	}
	return ""
}
