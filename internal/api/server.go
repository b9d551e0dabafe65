package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/aihub/internal/engine"
	"github.com/soochol/aihub/internal/registry"
	"github.com/soochol/aihub/internal/services"
)

// Server exposes the workflow hub over HTTP: agent discovery, chat runs
// streamed via SSE, approval decisions, and run history.
type Server struct {
	registry *registry.Registry
	runner   *engine.WorkflowRunner
	history  *services.RunHistoryService
	limiter  *services.ConcurrencyLimiter
	log      *slog.Logger
}

func NewServer(reg *registry.Registry, runner *engine.WorkflowRunner, history *services.RunHistoryService, limiter *services.ConcurrencyLimiter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		registry: reg,
		runner:   runner,
		history:  history,
		limiter:  limiter,
		log:      log,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", s.listAgents)
			r.Post("/{id}/chat", s.chat)
		})
		r.Post("/approvals/{id}/decision", s.decideApproval)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.listRuns)
			r.Get("/{id}", s.getRun)
		})
		r.Get("/stats", s.getStats)
	})

	return r
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	if s.limiter == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.limiter.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
