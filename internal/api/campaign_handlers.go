package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/directmail/internal/domain"
	"github.com/ignite/directmail/internal/pkg/httputil"
	"github.com/ignite/directmail/internal/service/campaign"
)

// HandleListCampaigns returns the mail drops recorded for a list.
//
//	GET /api/lists/{listId}/campaigns
func (h *Handlers) HandleListCampaigns(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Campaigns.ListForList(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"campaigns": cs, "total": len(cs)})
}

// HandleCreateCampaign schedules a mail drop against a list.
//
//	POST /api/lists/{listId}/campaigns
func (h *Handlers) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	c, err := h.Campaigns.Create(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "listId"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// HandleGetCampaign returns one campaign.
//
//	GET /api/campaigns/{campaignId}
func (h *Handlers) HandleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.Get(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "campaignId"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// HandleMarkMailed records that the drop went out. The body may carry
// {"at": "<RFC 3339>"}; otherwise now is used.
//
//	POST /api/campaigns/{campaignId}/mailed
func (h *Handlers) HandleMarkMailed(w http.ResponseWriter, r *http.Request) {
	at, ok := h.decodeAt(w, r)
	if !ok {
		return
	}
	c, err := h.Campaigns.MarkMailed(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "campaignId"), at)
	h.respondCampaign(w, c, err)
}

// HandleMarkCompleted closes out a mailed drop.
//
//	POST /api/campaigns/{campaignId}/complete
func (h *Handlers) HandleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	at, ok := h.decodeAt(w, r)
	if !ok {
		return
	}
	c, err := h.Campaigns.MarkCompleted(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "campaignId"), at)
	h.respondCampaign(w, c, err)
}

// HandleCancelCampaign cancels a scheduled drop.
//
//	POST /api/campaigns/{campaignId}/cancel
func (h *Handlers) HandleCancelCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.Cancel(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "campaignId"))
	h.respondCampaign(w, c, err)
}

// HandleDeleteCampaign removes a drop that has not mailed.
//
//	DELETE /api/campaigns/{campaignId}
func (h *Handlers) HandleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.Campaigns.Delete(r.Context(), GetOrgIDFromContext(r.Context()), chi.URLParam(r, "campaignId")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) respondCampaign(w http.ResponseWriter, c *domain.Campaign, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) decodeAt(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	var body struct {
		At *time.Time `json:"at"`
	}
	if hasBody(r) && !httputil.Decode(w, r, &body) {
		return time.Time{}, false
	}
	if body.At != nil {
		return body.At.UTC(), true
	}
	return h.clock().UTC(), true
}

// hasBody reports whether the client sent a body worth decoding.
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
