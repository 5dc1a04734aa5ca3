package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/service/suppression"
)

// HandleListSuppressions returns a page of the do-not-mail list.
//
//	GET /api/suppressions?reason=&source=&search=&page=&limit=
func (h *Handlers) HandleListSuppressions(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 100, 1000)
	q := r.URL.Query()

	entries, total, err := h.Suppressions.List(r.Context(), GetOrgIDFromContext(r.Context()), suppression.ListFilter{
		Reason: q.Get("reason"),
		Source: q.Get("source"),
		Search: q.Get("search"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(entries, p, int64(total)))
}

// HandleCreateSuppression adds an email or address to the do-not-mail list.
//
//	POST /api/suppressions
func (h *Handlers) HandleCreateSuppression(w http.ResponseWriter, r *http.Request) {
	var in suppression.SuppressInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	entry, err := h.Suppressions.Suppress(r.Context(), GetOrgIDFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, entry)
}

// HandleDeleteSuppression lifts a suppression.
//
//	DELETE /api/suppressions/{suppressionId}
func (h *Handlers) HandleDeleteSuppression(w http.ResponseWriter, r *http.Request) {
	if err := h.Suppressions.Remove(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "suppressionId")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleSuppressionStats returns counts by reason and source.
//
//	GET /api/suppressions/stats
func (h *Handlers) HandleSuppressionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Suppressions.GetStats(r.Context(), GetOrgIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, stats)
}
