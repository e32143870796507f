package api

import (
	"net/http"

	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/types"
)

// EngagementHandler serves the engagement endpoints.
type EngagementHandler struct {
	deps EngagementDependencies
	rw   responder
}

// HandleCreate handles POST /engagements.
func (h *EngagementHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_engagement"
	var req engagement.CreateRequest
	if err := decodeBody(w, r, op, smallBodyBytes, &req); err != nil {
		h.rw.fail(w, r, err)
		return
	}
	e, err := h.deps.CreateEngagement(r.Context(), req)
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/engagements/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// HandleUpdate handles PATCH /engagements/{id}.
func (h *EngagementHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_engagement"
	var upd types.EngagementUpdate
	if err := decodeBody(w, r, op, smallBodyBytes, &upd); err != nil {
		h.rw.fail(w, r, err)
		return
	}
	e, err := h.deps.UpdateEngagement(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleGet handles GET /engagements/{id}.
func (h *EngagementHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.GetEngagement(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rw.fail(w, r, Wrap("api.get_engagement", err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleListByGig handles GET /gigs/{gigId}/engagements?status=a,b|cohort=c.
func (h *EngagementHandler) HandleListByGig(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.deps.ListGigEngagements(r.Context(), r.PathValue("gigId"), q.Get("status"), q.Get("cohort"))
	if err != nil {
		h.rw.fail(w, r, Wrap("api.list_gig_engagements", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleListByAgent handles GET /agents/{agentId}/engagements?status=a,b|cohort=c.
func (h *EngagementHandler) HandleListByAgent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.deps.ListAgentEngagements(r.Context(), r.PathValue("agentId"), q.Get("status"), q.Get("cohort"))
	if err != nil {
		h.rw.fail(w, r, Wrap("api.list_agent_engagements", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
