package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/distlock"
	"github.com/ignite/directmail/internal/service/lists"
)

// fakeProvider serves total rows in pages of pageSize.
type fakeProvider struct {
	total    int
	pageSize int
	failPage int
	entered  chan struct{} // closed on the first call when block is set
	block    chan struct{}
	onPage   func(page int)
	calls    []int
}

func (p *fakeProvider) Search(_ context.Context, _ accuzip.ListCriteria, page int) (*accuzip.SearchPage, error) {
	p.calls = append(p.calls, page)
	if p.onPage != nil {
		p.onPage(page)
	}
	if p.block != nil {
		if len(p.calls) == 1 {
			close(p.entered)
		}
		<-p.block
	}
	if page == p.failPage {
		return nil, errors.New("provider unavailable")
	}
	var rows []accuzip.ProviderRecord
	for i := (page - 1) * p.pageSize; i < page*p.pageSize && i < p.total; i++ {
		rows = append(rows, accuzip.ProviderRecord{
			First:   fmt.Sprintf("OWNER%d", i),
			Address: fmt.Sprintf("%d MAIN ST", i),
			Zip:     "85004",
		})
	}
	return &accuzip.SearchPage{
		Records: rows,
		Total:   p.total,
		Page:    page,
		HasMore: page*p.pageSize < p.total,
	}, nil
}

type fakeLists struct {
	mu      sync.Mutex
	list    domain.MailingList
	added   []domain.Record
	updates []lists.UpdateInput
}

func (f *fakeLists) Get(_ context.Context, orgID, id string) (*domain.MailingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if orgID != f.list.OrganizationID || id != f.list.ID {
		return nil, lists.ErrNotFound
	}
	l := f.list
	return &l, nil
}

func (f *fakeLists) AddRecords(_ context.Context, _, _ string, recs []domain.Record) (lists.AddResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, recs...)
	return lists.AddResult{Inserted: len(recs), Duplicates: 1}, nil
}

func (f *fakeLists) Update(_ context.Context, _, _ string, in lists.UpdateInput) (*domain.MailingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	f.list.Criteria = in.Criteria
	f.list.Metadata = in.Metadata
	l := f.list
	return &l, nil
}

func setup(t *testing.T, p *fakeProvider, maxRecords int) (*Importer, *fakeLists, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	fl := &fakeLists{list: domain.MailingList{
		ID: "l-1", OrganizationID: "org-1", Metadata: json.RawMessage(`{"owner":"dana"}`),
	}}
	lock := func(key string) distlock.DistLock { return distlock.NewRedisLock(client, key, time.Minute) }
	im := New(p, fl, lock, maxRecords)
	im.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return im, fl, client
}

func criteria() accuzip.ListCriteria {
	return accuzip.ListCriteria{Geography: accuzip.Geography{ZipCodes: []string{"85004"}}}
}

func TestImport_PagesUntilDone(t *testing.T) {
	p := &fakeProvider{total: 5, pageSize: 2}
	im, fl, _ := setup(t, p, 100)

	res, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "dana")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, p.calls)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 5, res.Fetched)
	assert.Equal(t, 5, res.Inserted)
	assert.Equal(t, 3, res.Duplicates)
	assert.Equal(t, 5, res.ProviderTotal)
	require.Len(t, fl.added, 5)
	assert.Equal(t, "Owner0", fl.added[0].FirstName)
	assert.Equal(t, "l-1", fl.added[0].ListID)

	require.Len(t, fl.updates, 1)
	assert.Equal(t, "dana", fl.updates[0].ModifiedBy)
	assert.JSONEq(t, `{"geography":{"zipCodes":["85004"]},"property":{},"demographic":{}}`, string(fl.updates[0].Criteria))

	var meta map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fl.list.Metadata, &meta))
	assert.JSONEq(t, `"dana"`, string(meta["owner"]))
	var last map[string]any
	require.NoError(t, json.Unmarshal(meta["lastImport"], &last))
	assert.Equal(t, "accuzip", last["provider"])
	assert.Equal(t, float64(5), last["fetched"])
	assert.Equal(t, res.ImportID, last["importId"])
}

func TestImport_RespectsLimits(t *testing.T) {
	p := &fakeProvider{total: 100, pageSize: 4}
	im, fl, _ := setup(t, p, 10)

	res, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Fetched)
	assert.Equal(t, []int{1, 2, 3}, p.calls)
	assert.Len(t, fl.added, 10)

	c := criteria()
	c.MaxRecords = 3
	p.calls = nil
	fl.added = nil
	res, err = im.Import(context.Background(), "org-1", "l-1", c, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, []int{1}, p.calls)
}

func TestImport_InvalidCriteria(t *testing.T) {
	im, _, _ := setup(t, &fakeProvider{}, 10)
	_, err := im.Import(context.Background(), "org-1", "l-1", accuzip.ListCriteria{}, "")
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestImport_UnknownList(t *testing.T) {
	im, _, _ := setup(t, &fakeProvider{}, 10)
	_, err := im.Import(context.Background(), "org-1", "missing", criteria(), "")
	assert.ErrorIs(t, err, lists.ErrNotFound)
}

func TestImport_ProviderFailureReleasesLock(t *testing.T) {
	p := &fakeProvider{total: 10, pageSize: 2, failPage: 2}
	im, fl, client := setup(t, p, 100)

	_, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider page 2")
	assert.Len(t, fl.added, 2)
	assert.Empty(t, fl.updates)

	n, err := client.Exists(context.Background(), "lock:import:l-1").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImport_ConcurrentImportRejected(t *testing.T) {
	p := &fakeProvider{total: 2, pageSize: 2, entered: make(chan struct{}), block: make(chan struct{})}
	im, _, _ := setup(t, p, 100)

	done := make(chan error, 1)
	go func() {
		_, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "")
		done <- err
	}()
	<-p.entered

	other := New(&fakeProvider{}, im.lists, im.lock, 100)
	_, err := other.Import(context.Background(), "org-1", "l-1", criteria(), "")
	assert.ErrorIs(t, err, ErrImportInProgress)

	close(p.block)
	require.NoError(t, <-done)
}

func TestImport_ExtendsLockBetweenPages(t *testing.T) {
	p := &fakeProvider{total: 5, pageSize: 2}
	im, _, client := setup(t, p, 100)
	im.lockTTL = 5 * time.Minute

	ttls := map[int]time.Duration{}
	p.onPage = func(page int) {
		ttl, err := client.TTL(context.Background(), "lock:import:l-1").Result()
		require.NoError(t, err)
		ttls[page] = ttl
	}

	_, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "")
	require.NoError(t, err)

	assert.Equal(t, time.Minute, ttls[1])
	assert.Equal(t, 5*time.Minute, ttls[2])
	assert.Equal(t, 5*time.Minute, ttls[3])
}

func TestImport_StopsWhenLockLost(t *testing.T) {
	p := &fakeProvider{total: 5, pageSize: 2}
	im, fl, client := setup(t, p, 100)
	p.onPage = func(page int) {
		if page == 1 {
			client.Del(context.Background(), "lock:import:l-1")
		}
	}

	_, err := im.Import(context.Background(), "org-1", "l-1", criteria(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extend import lock before page 2")
	assert.Equal(t, []int{1}, p.calls)
	assert.Len(t, fl.added, 2)
	assert.Empty(t, fl.updates)
}
