package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/listquery"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/service/lists"
)

// HandleListLists runs the list engine from query parameters. Advanced
// criteria need the POST search endpoint.
//
//	GET /api/lists?quick_filter=&search=&sort=&direction=&page=&page_size=&seed=
func (h *Handlers) HandleListLists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := listquery.Options{
		QuickFilter: listquery.QuickFilter(q.Get("quick_filter")),
		SearchQuery: q.Get("search"),
		Seed:        q.Get("seed"),
	}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if col := strings.TrimSpace(q.Get("sort")); col != "" {
		dir := listquery.SortDirection(strings.ToLower(q.Get("direction")))
		if dir != listquery.SortDesc {
			dir = listquery.SortAsc
		}
		opts.SortBy = &listquery.SortSpec{Column: col, Direction: dir}
	}

	res, err := h.Lists.Search(r.Context(), GetOrgIDFromContext(r.Context()), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// HandleSearchLists runs the list engine with the full option set.
//
//	POST /api/lists/search
func (h *Handlers) HandleSearchLists(w http.ResponseWriter, r *http.Request) {
	var opts listquery.Options
	if !httputil.Decode(w, r, &opts) {
		return
	}

	res, err := h.Lists.Search(r.Context(), GetOrgIDFromContext(r.Context()), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// HandleCreateList creates an empty list.
//
//	POST /api/lists
func (h *Handlers) HandleCreateList(w http.ResponseWriter, r *http.Request) {
	var in lists.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = GetUserFromContext(r.Context())
	}

	l, err := h.Lists.Create(r.Context(), GetOrgIDFromContext(r.Context()), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, l)
}

// HandleGetList returns one list.
//
//	GET /api/lists/{listId}
func (h *Handlers) HandleGetList(w http.ResponseWriter, r *http.Request) {
	l, err := h.Lists.Get(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, l)
}

// HandleUpdateList patches the fields present in the body.
//
//	PUT /api/lists/{listId}
func (h *Handlers) HandleUpdateList(w http.ResponseWriter, r *http.Request) {
	var in lists.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.ModifiedBy == "" {
		in.ModifiedBy = GetUserFromContext(r.Context())
	}

	l, err := h.Lists.Update(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, l)
}

// HandleDeleteList removes a list and its records.
//
//	DELETE /api/lists/{listId}
func (h *Handlers) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.Lists.Delete(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleSetListTags replaces a list's tag set.
//
//	PUT /api/lists/{listId}/tags
func (h *Handlers) HandleSetListTags(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TagIDs []string `json:"tagIds"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}

	l, err := h.Lists.SetTags(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), body.TagIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, l)
}

// HandleListTags returns the organization's tags.
//
//	GET /api/tags
func (h *Handlers) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Lists.ListTags(r.Context(), GetOrgIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"tags": tags, "total": len(tags)})
}

// HandleCreateTag adds a tag.
//
//	POST /api/tags
func (h *Handlers) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !httputil.Decode(w, r, &body) {
		return
	}

	t, err := h.Lists.CreateTag(r.Context(), GetOrgIDFromContext(r.Context()), body.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, t)
}

// HandleDeleteTag removes a tag from the organization and every list.
//
//	DELETE /api/tags/{tagId}
func (h *Handlers) HandleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.Lists.DeleteTag(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "tagId")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
