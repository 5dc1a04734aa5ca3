package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/export"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/pkg/logger"
)

// HandleImport pulls provider records matching the criteria into a list.
// Runs to completion within the request.
//
//	POST /api/lists/{listId}/import
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	if h.Importer == nil {
		httputil.ServiceUnavailable(w, "data provider is not configured")
		return
	}
	var criteria accuzip.ListCriteria
	if !httputil.Decode(w, r, &criteria) {
		return
	}

	res, err := h.Importer.Import(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"),
		criteria, GetUserFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// HandleProviderCount sizes a provider selection before importing it.
//
//	POST /api/provider/count
func (h *Handlers) HandleProviderCount(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil {
		httputil.ServiceUnavailable(w, "data provider is not configured")
		return
	}
	var criteria accuzip.ListCriteria
	if !httputil.Decode(w, r, &criteria) {
		return
	}
	if err := criteria.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	n, err := h.Provider.Count(r.Context(), criteria)
	if err != nil {
		logger.Warn("provider count failed", "error", err)
		httputil.ErrorWithCode(w, http.StatusBadGateway, "provider_error", "data provider request failed")
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// HandleExport writes the list's records as CSV to the export bucket. The
// optional body narrows the export by status or tag.
//
//	POST /api/lists/{listId}/export
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	if h.Exporter == nil {
		httputil.ServiceUnavailable(w, "export storage is not configured")
		return
	}
	var opts export.Options
	if hasBody(r) && !httputil.Decode(w, r, &opts) {
		return
	}

	res, err := h.Exporter.ExportList(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}
