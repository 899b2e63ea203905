// Package server exposes the action dispatch proxy over HTTP.
//
// The endpoint is public-facing: a static front-end on another origin
// calls it to request an on-demand data refresh, so every response
// carries permissive CORS headers and the privileged upstream credential
// never leaves the process.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/boilerwatch/boilerwatch/internal/trigger"
	"github.com/go-chi/chi/v5"
)

// Triggerer runs one trigger request. Implemented by *trigger.Service.
type Triggerer interface {
	Trigger(ctx context.Context, action string) (trigger.Result, error)
}

// Server handles trigger requests.
type Server struct {
	svc     Triggerer
	logger  *slog.Logger
	metrics *Metrics
}

// NewHandler builds the HTTP handler: the trigger endpoint at / and
// /trigger, a health probe, and Prometheus metrics.
func NewHandler(svc Triggerer, logger *slog.Logger, metrics *Metrics) http.Handler {
	s := &Server{svc: svc, logger: logger, metrics: metrics}

	r := chi.NewRouter()
	r.Use(cors)

	for _, path := range []string{"/", "/trigger"} {
		r.Post(path, s.handleTrigger)
		r.Options(path, s.handlePreflight)
	}
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST only"})
	})

	return r
}

// cors makes responses readable by browser callers on other origins.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// handlePreflight answers the CORS preflight negotiation. No side
// effects: neither the cooldown store nor the upstream API is touched.
func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

type triggerRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	// The body is optional and may be anything the front-end sends; an
	// unreadable body simply resolves to the default action.
	var req triggerRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	res, err := s.svc.Trigger(r.Context(), req.Action)
	if err != nil {
		s.logger.Error("trigger request failed", "action", req.Action, "error", err)
		s.metrics.ObserveOutcome("store_error")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "cooldown store unavailable"})
		return
	}

	switch res.Outcome {
	case trigger.Triggered:
		s.logger.Info("action triggered", "action", res.Action)
		s.metrics.ObserveOutcome("triggered")
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "triggered",
			"action": res.Action,
		})
	case trigger.Cooldown:
		s.metrics.ObserveOutcome("cooldown")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"status":   "cooldown",
			"action":   res.Action,
			"retry_in": res.RetryIn,
		})
	case trigger.ConfigError:
		s.metrics.ObserveOutcome("config_error")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "GITHUB_TOKEN not configured",
		})
	case trigger.UpstreamError:
		s.metrics.ObserveOutcome("upstream_error")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  "GitHub API error",
			"status": res.UpstreamStatus,
			"body":   res.UpstreamBody,
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
