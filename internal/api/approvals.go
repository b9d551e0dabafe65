package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/repository"
)

// DecisionRequest is the JSON body for resolving a pending approval.
type DecisionRequest struct {
	Approved bool `json:"approved"`
}

// decideApproval resumes a suspended run with the reviewer's decision and
// streams the remainder of the run over SSE. A decision for an unknown or
// already-decided approval id still answers with an SSE stream carrying a
// single error event, so the frontend handles both cases uniformly.
func (s *Server) decideApproval(w http.ResponseWriter, r *http.Request) {
	approvalID := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events, err := s.runner.Resume(r.Context(), approvalID, req.Approved)
	if err != nil {
		msg := "failed to resume workflow"
		if errors.Is(err, repository.ErrApprovalNotFound) {
			msg = "approval not found or already decided"
		}
		s.log.Warn("approval decision failed", "approval_id", approvalID, "err", err)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		writeSSEEvent(w, hub.ErrorEvent(msg))
		flusher.Flush()
		return
	}

	streamEvents(w, r.Context(), events)
}
