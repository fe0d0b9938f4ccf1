package handler

import (
	"encoding/json"
	"net/http"

	"sweatervote/internal/httputil"
	"sweatervote/internal/model"
	"sweatervote/internal/service"
	"sweatervote/internal/transport/http/middleware"
)

type VoteHandler struct {
	source service.DataSource
}

func NewVoteHandler(source service.DataSource) *VoteHandler {
	return &VoteHandler{source: source}
}

// Vote handles POST /vote
// Body: {"participantId": "..."}. Responds {"ok": true}, plus "demo": true when
// the vote was not persisted.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.GetDeviceIDFromContext(r.Context())
	if !ok {
		writeActionError(w, "vote", model.ErrIdentityMissing)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	res, err := h.source.Vote(r.Context(), deviceID, req.ParticipantID)
	if err != nil {
		writeActionError(w, "vote", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.VoteResponse{OK: true, Demo: res.Demo})
}
