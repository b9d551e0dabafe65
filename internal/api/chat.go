package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/aihub/internal/engine"
	"github.com/soochol/aihub/internal/extract"
	"github.com/soochol/aihub/internal/hub"
)

// ChatRequest is the JSON body for starting a workflow run.
type ChatRequest struct {
	Message     string           `json:"message"`
	ImageBase64 string           `json:"image_base64,omitempty"`
	MimeType    string           `json:"mime_type,omitempty"`
	History     []engine.Message `json:"conversation_history,omitempty"`
}

// chat starts a workflow run for the agent and streams its events over SSE
// until the run completes, suspends at an approval gate, or fails.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	family := chi.URLParam(r, "id")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, ok := s.registry.Family(family); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown agent %q", family))
		return
	}

	// Document attachments become text in the message; only images travel
	// on to the vision model.
	if req.ImageBase64 != "" && req.MimeType != "" && !extract.IsImage(req.MimeType) {
		text, err := extract.FromBase64(req.MimeType, req.ImageBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read attachment")
			return
		}
		if text != "" {
			req.Message = strings.TrimSpace(req.Message + "\n\n" + text)
		}
		req.ImageBase64, req.MimeType = "", ""
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(r.Context(), family); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy, try again later")
			return
		}
		defer s.limiter.Release(family)
	}

	events, err := s.runner.Start(r.Context(), family, engine.Input{
		Message:     req.Message,
		ImageBase64: req.ImageBase64,
		MimeType:    req.MimeType,
		History:     req.History,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	streamEvents(w, r.Context(), events)
}

// streamEvents writes workflow events to the response as SSE frames. The
// stream ends when the event channel closes or the client goes away.
func streamEvents(w http.ResponseWriter, ctx context.Context, events <-chan hub.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			writeSSEEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev hub.Event) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
