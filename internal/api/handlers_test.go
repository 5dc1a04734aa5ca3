package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/export"
	"github.com/ignite/directmail/internal/importer"
	"github.com/ignite/directmail/internal/listquery"
	"github.com/ignite/directmail/internal/service/campaign"
	"github.com/ignite/directmail/internal/service/lists"
	"github.com/ignite/directmail/internal/service/suppression"
)

const testOrg = "5f0c6b1e-8c1d-4b7a-9d63-2a4e1f0b9c11"

// fakeLists embeds the interface so tests only implement what they call.
type fakeLists struct {
	ListService

	searchOpts  listquery.Options
	created     lists.CreateInput
	recordQuery lists.RecordQuery
	added       []domain.Record
	err         error
}

func (f *fakeLists) Search(_ context.Context, orgID string, opts listquery.Options) (listquery.Result, error) {
	f.searchOpts = opts
	if f.err != nil {
		return listquery.Result{}, f.err
	}
	return listquery.Result{Items: []domain.UIMailingList{{ID: "l1", Name: "Alpha"}}, Total: 1}, nil
}

func (f *fakeLists) Get(_ context.Context, orgID, id string) (*domain.MailingList, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MailingList{ID: id, OrganizationID: orgID, Name: "Alpha"}, nil
}

func (f *fakeLists) Create(_ context.Context, orgID string, in lists.CreateInput) (*domain.MailingList, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MailingList{ID: "new", OrganizationID: orgID, Name: in.Name, CreatedBy: in.CreatedBy}, nil
}

func (f *fakeLists) Delete(context.Context, string, string) error { return f.err }

func (f *fakeLists) CreateTag(_ context.Context, _ string, name string) (*domain.Tag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Tag{ID: "t1", Name: name}, nil
}

func (f *fakeLists) ListRecords(_ context.Context, _, _ string, q lists.RecordQuery) ([]domain.Record, int, error) {
	f.recordQuery = q
	if f.err != nil {
		return nil, 0, f.err
	}
	return []domain.Record{{ID: "r1", FirstName: "Ann"}}, 120, nil
}

func (f *fakeLists) AddRecords(_ context.Context, _, _ string, recs []domain.Record) (lists.AddResult, error) {
	f.added = recs
	if f.err != nil {
		return lists.AddResult{}, f.err
	}
	return lists.AddResult{Inserted: len(recs)}, nil
}

func (f *fakeLists) DeleteRecord(context.Context, string, string, string) error { return f.err }

type fakeCampaigns struct {
	CampaignService

	mailedAt time.Time
	err      error
}

func (f *fakeCampaigns) MarkMailed(_ context.Context, _, id string, at time.Time) (*domain.Campaign, error) {
	f.mailedAt = at
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Campaign{ID: id, Status: domain.CampaignMailed, SentAt: &at}, nil
}

func (f *fakeCampaigns) Cancel(context.Context, string, string) (*domain.Campaign, error) {
	return nil, f.err
}

func (f *fakeCampaigns) ListForList(context.Context, string, string) ([]domain.Campaign, error) {
	return []domain.Campaign{{ID: "c1"}}, f.err
}

type fakeSuppressions struct {
	SuppressionService

	filter suppression.ListFilter
	err    error
}

func (f *fakeSuppressions) Suppress(_ context.Context, orgID string, in suppression.SuppressInput) (*domain.Suppression, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Suppression{ID: "s1", OrganizationID: orgID, Email: in.Email}, nil
}

func (f *fakeSuppressions) List(_ context.Context, _ string, filter suppression.ListFilter) ([]domain.Suppression, int, error) {
	f.filter = filter
	return []domain.Suppression{{ID: "s1"}}, 1, f.err
}

func (f *fakeSuppressions) GetStats(context.Context, string) (*suppression.Stats, error) {
	return &suppression.Stats{Total: 3, ByReason: map[string]int{"opt_out": 3}}, f.err
}

type fakeImporter struct{ err error }

func (f fakeImporter) Import(_ context.Context, _, listID string, _ accuzip.ListCriteria, _ string) (*importer.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &importer.Result{ListID: listID, Inserted: 10}, nil
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(context.Context, accuzip.ListCriteria) (int, error) { return f.n, f.err }

type fakeExporter struct{ opts export.Options }

func (f *fakeExporter) ExportList(_ context.Context, orgID, listID string, opts export.Options) (*export.Result, error) {
	f.opts = opts
	return &export.Result{Bucket: "b", Key: orgID + "/" + listID + ".csv", Rows: 2}, nil
}

func newRouter(h *Handlers) http.Handler {
	return SetupRoutes(h, RouterConfig{})
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Organization-ID", testOrg)
	req.Header.Set("X-User-Email", "ops@example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthRoutes(t *testing.T) {
	router := newRouter(&Handlers{Lists: &fakeLists{}})

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp := decode(t, rec)
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp["checks"], "database")
}

func TestRequireOrg(t *testing.T) {
	router := newRouter(&Handlers{Lists: &fakeLists{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/lists", nil)
	req.Header.Set("X-Organization-ID", "not-a-uuid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/lists?org_id="+testOrg, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOrg_DefaultOrg(t *testing.T) {
	router := SetupRoutes(&Handlers{Lists: &fakeLists{}}, RouterConfig{Orgs: NewOrgContextProvider(testOrg)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lists", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListLists_QueryParams(t *testing.T) {
	fl := &fakeLists{}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodGet,
		"/api/lists?quick_filter=last_7_days&search=alp&sort=name&direction=DESC&page=2&page_size=25&seed=abc", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listquery.QuickLast7Days, fl.searchOpts.QuickFilter)
	assert.Equal(t, "alp", fl.searchOpts.SearchQuery)
	assert.Equal(t, 2, fl.searchOpts.Page)
	assert.Equal(t, 25, fl.searchOpts.PageSize)
	assert.Equal(t, "abc", fl.searchOpts.Seed)
	require.NotNil(t, fl.searchOpts.SortBy)
	assert.Equal(t, "name", fl.searchOpts.SortBy.Column)
	assert.Equal(t, listquery.SortDesc, fl.searchOpts.SortBy.Direction)

	resp := decode(t, rec)
	assert.Equal(t, float64(1), resp["total"])
}

func TestListLists_NoSort(t *testing.T) {
	fl := &fakeLists{}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodGet, "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, fl.searchOpts.SortBy)
}

func TestSearchLists(t *testing.T) {
	fl := &fakeLists{}
	body := map[string]interface{}{
		"quickFilter": "used_in_campaign",
		"sortBy":      map[string]string{"column": "recordCount", "direction": "asc"},
		"pageSize":    10,
	}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodPost, "/api/lists/search", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listquery.QuickUsedInCampaign, fl.searchOpts.QuickFilter)
	assert.Equal(t, 10, fl.searchOpts.PageSize)
	assert.Equal(t, "recordCount", fl.searchOpts.SortBy.Column)
}

func TestSearchLists_BadJSON(t *testing.T) {
	router := newRouter(&Handlers{Lists: &fakeLists{}})
	req := httptest.NewRequest(http.MethodPost, "/api/lists/search", bytes.NewBufferString("{"))
	req.Header.Set("X-Organization-ID", testOrg)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateList(t *testing.T) {
	fl := &fakeLists{}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodPost, "/api/lists", map[string]string{"name": "Spring"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ops@example.com", fl.created.CreatedBy)
	assert.Equal(t, "Spring", decode(t, rec)["name"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{lists.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: name is required", lists.ErrInvalidInput), http.StatusBadRequest},
		{lists.ErrDuplicateTag, http.StatusConflict},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := do(t, newRouter(&Handlers{Lists: &fakeLists{err: tt.err}}), http.MethodGet, "/api/lists/l1", nil)
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}

	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{err: errors.New("pq: secret detail")}}), http.MethodGet, "/api/lists/l1", nil)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestDeleteList(t *testing.T) {
	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{}}), http.MethodDelete, "/api/lists/l1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateTag_Duplicate(t *testing.T) {
	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{err: lists.ErrDuplicateTag}}), http.MethodPost, "/api/tags", map[string]string{"name": "VIP"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListRecords_Paginated(t *testing.T) {
	fl := &fakeLists{}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodGet, "/api/lists/l1/records?page=3&limit=20&status=active&tag=vip&search=ann", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lists.RecordQuery{Search: "ann", Status: "active", Tag: "vip", Limit: 20, Offset: 40}, fl.recordQuery)

	resp := decode(t, rec)
	pagination := resp["pagination"].(map[string]interface{})
	assert.Equal(t, float64(120), pagination["total"])
	assert.Equal(t, float64(6), pagination["total_pages"])
	assert.Equal(t, true, pagination["has_more"])
}

func TestAddRecords(t *testing.T) {
	fl := &fakeLists{}
	body := map[string]interface{}{"records": []map[string]string{
		{"first_name": "Ann", "address": "1 Main St", "zip": "78701"},
		{"email": "bob@example.com"},
	}}
	rec := do(t, newRouter(&Handlers{Lists: fl}), http.MethodPost, "/api/lists/l1/records", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, fl.added, 2)
	assert.Equal(t, float64(2), decode(t, rec)["inserted"])
}

func TestDeleteRecord_NotFound(t *testing.T) {
	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{err: lists.ErrRecordNotFound}}), http.MethodDelete, "/api/lists/l1/records/r9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport(t *testing.T) {
	criteria := map[string]interface{}{"geography": map[string]interface{}{"states": []string{"TX"}}}

	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{}}), http.MethodPost, "/api/lists/l1/import", criteria)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, newRouter(&Handlers{Lists: &fakeLists{}, Importer: fakeImporter{}}), http.MethodPost, "/api/lists/l1/import", criteria)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "l1", decode(t, rec)["listId"])

	rec = do(t, newRouter(&Handlers{Lists: &fakeLists{}, Importer: fakeImporter{err: importer.ErrImportInProgress}}), http.MethodPost, "/api/lists/l1/import", criteria)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, newRouter(&Handlers{Lists: &fakeLists{}, Importer: fakeImporter{err: fmt.Errorf("%w: no geography", importer.ErrInvalidCriteria)}}), http.MethodPost, "/api/lists/l1/import", criteria)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderCount(t *testing.T) {
	h := &Handlers{Lists: &fakeLists{}, Provider: fakeCounter{n: 4321}}
	rec := do(t, newRouter(h), http.MethodPost, "/api/provider/count",
		map[string]interface{}{"geography": map[string]interface{}{"zipCodes": []string{"78701"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4321), decode(t, rec)["count"])

	rec = do(t, newRouter(h), http.MethodPost, "/api/provider/count", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.Provider = fakeCounter{err: errors.New("upstream 500")}
	rec = do(t, newRouter(h), http.MethodPost, "/api/provider/count",
		map[string]interface{}{"geography": map[string]interface{}{"states": []string{"TX"}}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExport(t *testing.T) {
	ex := &fakeExporter{}
	router := newRouter(&Handlers{Lists: &fakeLists{}, Exporter: ex})

	req := httptest.NewRequest(http.MethodPost, "/api/lists/l1/export", nil)
	req.Header.Set("X-Organization-ID", testOrg)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrg+"/l1.csv", decode(t, rec)["key"])

	rec = do(t, router, http.MethodPost, "/api/lists/l1/export", map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", ex.opts.Status)

	rec = do(t, newRouter(&Handlers{Lists: &fakeLists{}}), http.MethodPost, "/api/lists/l1/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCampaignRoutes(t *testing.T) {
	fc := &fakeCampaigns{}
	router := newRouter(&Handlers{Lists: &fakeLists{}, Campaigns: fc})

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := do(t, router, http.MethodPost, "/api/campaigns/c1/mailed", map[string]time.Time{"at": at})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fc.mailedAt.Equal(at))

	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	h := &Handlers{Lists: &fakeLists{}, Campaigns: fc, now: func() time.Time { return fixed }}
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns/c1/mailed", nil)
	req.Header.Set("X-Organization-ID", testOrg)
	rec = httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, fc.mailedAt.Equal(fixed))

	rec = do(t, router, http.MethodGet, "/api/lists/l1/campaigns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total"])

	fc.err = campaign.ErrInvalidTransition
	rec = do(t, router, http.MethodPost, "/api/campaigns/c1/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCampaignRoutes_NotMounted(t *testing.T) {
	rec := do(t, newRouter(&Handlers{Lists: &fakeLists{}}), http.MethodPost, "/api/campaigns/c1/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuppressionRoutes(t *testing.T) {
	fs := &fakeSuppressions{}
	router := newRouter(&Handlers{Lists: &fakeLists{}, Suppressions: fs})

	rec := do(t, router, http.MethodGet, "/api/suppressions?reason=opt_out&limit=10&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, suppression.ListFilter{Reason: "opt_out", Limit: 10, Offset: 10}, fs.filter)

	rec = do(t, router, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a@example.com", decode(t, rec)["email"])

	rec = do(t, router, http.MethodGet, "/api/suppressions/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec)["total"])

	fs.err = fmt.Errorf("%w: email or address with zip is required", suppression.ErrInvalidInput)
	rec = do(t, router, http.MethodPost, "/api/suppressions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
