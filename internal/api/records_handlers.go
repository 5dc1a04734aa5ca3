package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/service/lists"
)

const maxRecordsPerRequest = 10000

// HandleListRecords returns one page of a list's records.
//
//	GET /api/lists/{listId}/records?page=&limit=&search=&status=&tag=
func (h *Handlers) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 50, 500)
	q := r.URL.Query()

	recs, total, err := h.Lists.ListRecords(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), lists.RecordQuery{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(recs, p, int64(total)))
}

// HandleAddRecords stores a batch of records on a list.
//
//	POST /api/lists/{listId}/records
func (h *Handlers) HandleAddRecords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []domain.Record `json:"records"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}
	if len(body.Records) > maxRecordsPerRequest {
		httputil.Error(w, http.StatusRequestEntityTooLarge, "too many records in one request")
		return
	}

	res, err := h.Lists.AddRecords(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), body.Records)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, res)
}

// HandleDeleteRecord removes one record.
//
//	DELETE /api/lists/{listId}/records/{recordId}
func (h *Handlers) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	err := h.Lists.DeleteRecord(r.Context(), GetOrgIDFromContext(r.Context()),
		chi.URLParam(r, "listId"), chi.URLParam(r, "recordId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
