// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/gigmatch/internal/domain/types"
)

// RankHandler handles rank requests.
type RankHandler struct {
	deps    RankDependencies
	rw      responder
	maxBody int64
}

// HandleRank handles POST /gigs/{gigId}/rank requests.
func (h *RankHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank"
	var req types.RankRequest
	if err := decodeBody(w, r, op, h.maxBody, &req); err != nil {
		h.rw.fail(w, r, err)
		return
	}
	res, err := h.deps.Rank(r.Context(), r.PathValue("gigId"), req)
	if err != nil {
		h.rw.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
