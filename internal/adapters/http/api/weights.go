package api

import (
	"net/http"
)

// WeightsHandler serves /gigs/{gigId}/weights.
type WeightsHandler struct {
	deps WeightDependencies
	rw   responder
}

// HandleGet handles GET /gigs/{gigId}/weights. A gig without a stored vector
// gets the zero vector with configured=false.
func (h *WeightsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weights"
	view, err := h.deps.GetWeights(r.Context(), r.PathValue("gigId"))
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePut handles PUT /gigs/{gigId}/weights with a full replacement vector.
func (h *WeightsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_weights"
	raw, err := readBody(w, r, op, smallBodyBytes)
	if err != nil {
		h.rw.fail(w, r, err)
		return
	}
	weights, err := h.deps.ParseWeights(raw)
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	view, err := h.deps.PutWeights(r.Context(), r.PathValue("gigId"), weights)
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /gigs/{gigId}/weights.
func (h *WeightsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_weights"
	if err := h.deps.DeleteWeights(r.Context(), r.PathValue("gigId")); err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
