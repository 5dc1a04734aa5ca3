// Package importer pulls households from the data provider into a mailing
// list. One import per list runs at a time across all server instances.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/distlock"
	"github.com/ignite/directmail/internal/pkg/logger"
	"github.com/ignite/directmail/internal/service/lists"
)

// Sentinel errors for imports.
var (
	ErrImportInProgress = errors.New("an import is already running for this list")
	ErrInvalidCriteria  = errors.New("invalid list criteria")
)

// Provider searches the data provider.
type Provider interface {
	Search(ctx context.Context, criteria accuzip.ListCriteria, page int) (*accuzip.SearchPage, error)
}

// Lists is the slice of the list service an import writes through.
type Lists interface {
	Get(ctx context.Context, orgID, id string) (*domain.MailingList, error)
	AddRecords(ctx context.Context, orgID, listID string, recs []domain.Record) (lists.AddResult, error)
	Update(ctx context.Context, orgID, id string, in lists.UpdateInput) (*domain.MailingList, error)
}

// LockTTL is how long an import lock lives without being extended. The
// lock is extended by this much after every page.
const LockTTL = 30 * time.Minute

// LockFunc returns the lock guarding key.
type LockFunc func(key string) distlock.DistLock

// extender is implemented by locks that expire, such as distlock.RedisLock.
type extender interface {
	Extend(ctx context.Context, ttl time.Duration) error
}

// Importer runs provider imports.
type Importer struct {
	provider   Provider
	lists      Lists
	lock       LockFunc
	maxRecords int
	lockTTL    time.Duration
	now        func() time.Time
}

// New creates an importer. maxRecords caps every import; criteria may ask
// for fewer.
func New(provider Provider, l Lists, lock LockFunc, maxRecords int) *Importer {
	if maxRecords <= 0 {
		maxRecords = 50000
	}
	return &Importer{provider: provider, lists: l, lock: lock, maxRecords: maxRecords, lockTTL: LockTTL, now: time.Now}
}

// Result summarises a finished import.
type Result struct {
	ImportID      string    `json:"importId"`
	ListID        string    `json:"listId"`
	Pages         int       `json:"pages"`
	Fetched       int       `json:"fetched"`
	Inserted      int       `json:"inserted"`
	Duplicates    int       `json:"duplicates"`
	Invalid       int       `json:"invalid"`
	Suppressed    int       `json:"suppressed"`
	ProviderTotal int       `json:"providerTotal"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Import pulls up to the record limit into the list, page by page, then
// stores the criteria on the list and the import summary in its metadata
// under "lastImport". Pages already added stay added if a later page fails.
func (im *Importer) Import(ctx context.Context, orgID, listID string, criteria accuzip.ListCriteria, requestedBy string) (*Result, error) {
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	if _, err := im.lists.Get(ctx, orgID, listID); err != nil {
		return nil, err
	}

	limit := im.maxRecords
	if criteria.MaxRecords > 0 && criteria.MaxRecords < limit {
		limit = criteria.MaxRecords
	}

	res := &Result{ImportID: uuid.New().String(), ListID: listID, StartedAt: im.now().UTC()}
	lock := im.lock("import:" + listID)
	err := distlock.Run(ctx, lock, func(ctx context.Context) error {
		logger.Info("import started", "org_id", orgID, "list_id", listID, "import_id", res.ImportID, "limit", limit)
		if err := im.pull(ctx, lock, orgID, listID, criteria, limit, res); err != nil {
			return err
		}
		res.FinishedAt = im.now().UTC()
		return im.recordImport(ctx, orgID, listID, criteria, requestedBy, res)
	})
	if errors.Is(err, distlock.ErrNotAcquired) {
		return nil, ErrImportInProgress
	}
	if err != nil {
		logger.Error("import failed", "org_id", orgID, "list_id", listID, "import_id", res.ImportID,
			"fetched", res.Fetched, "error", err)
		return nil, err
	}

	logger.Info("import finished", "org_id", orgID, "list_id", listID, "import_id", res.ImportID,
		"pages", res.Pages, "fetched", res.Fetched, "inserted", res.Inserted,
		"duplicates", res.Duplicates, "suppressed", res.Suppressed)
	return res, nil
}

func (im *Importer) pull(ctx context.Context, lock distlock.DistLock, orgID, listID string, criteria accuzip.ListCriteria, limit int, res *Result) error {
	ext, _ := lock.(extender)
	for page := 1; res.Fetched < limit; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ext != nil && page > 1 {
			if err := ext.Extend(ctx, im.lockTTL); err != nil {
				return fmt.Errorf("extend import lock before page %d: %w", page, err)
			}
		}

		sp, err := im.provider.Search(ctx, criteria, page)
		if err != nil {
			return fmt.Errorf("provider page %d: %w", page, err)
		}
		res.Pages++
		res.ProviderTotal = sp.Total

		rows := sp.Records
		if remaining := limit - res.Fetched; len(rows) > remaining {
			rows = rows[:remaining]
		}
		if len(rows) == 0 {
			break
		}

		batch := make([]domain.Record, len(rows))
		for i, p := range rows {
			batch[i] = accuzip.ToRecord(p, listID)
		}
		added, err := im.lists.AddRecords(ctx, orgID, listID, batch)
		if err != nil {
			return fmt.Errorf("add page %d: %w", page, err)
		}
		res.Fetched += len(rows)
		res.Inserted += added.Inserted
		res.Duplicates += added.Duplicates
		res.Invalid += added.Invalid
		res.Suppressed += added.Suppressed

		if !sp.HasMore {
			break
		}
	}
	return nil
}

func (im *Importer) recordImport(ctx context.Context, orgID, listID string, criteria accuzip.ListCriteria, requestedBy string, res *Result) error {
	l, err := im.lists.Get(ctx, orgID, listID)
	if err != nil {
		return err
	}

	meta := map[string]json.RawMessage{}
	if len(l.Metadata) > 0 {
		// non-object metadata is replaced
		_ = json.Unmarshal(l.Metadata, &meta)
		if meta == nil {
			meta = map[string]json.RawMessage{}
		}
	}
	summary, err := json.Marshal(struct {
		Provider string `json:"provider"`
		*Result
	}{"accuzip", res})
	if err != nil {
		return fmt.Errorf("encode import summary: %w", err)
	}
	meta["lastImport"] = summary

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}

	_, err = im.lists.Update(ctx, orgID, listID, lists.UpdateInput{
		Criteria:   criteriaJSON,
		Metadata:   metaJSON,
		ModifiedBy: requestedBy,
	})
	return err
}
