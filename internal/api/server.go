// Package api serves archived runs over a read-only HTTP API.
// All endpoints are GET and answer from the SQLite results archive, so the
// server never touches a running simulation.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/territory-sim/internal/agents"
	"github.com/talgya/territory-sim/internal/engine"
	"github.com/talgya/territory-sim/internal/persistence"
	"github.com/talgya/territory-sim/internal/report"
)

const defaultRunsLimit = 20

// Server serves archived results over HTTP.
type Server struct {
	DB   *persistence.DB
	Addr string

	// Limiter throttles requests per client IP. Nil disables throttling.
	Limiter *RateLimiter
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/runs", s.handleRuns)
	mux.HandleFunc("GET /api/v1/run/{id}", s.handleRun)
	mux.HandleFunc("GET /api/v1/run/{id}/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/v1/run/{id}/agent/{agent}/sizes", s.handleAgentSizes)

	var h http.Handler = mux
	if s.Limiter != nil {
		h = RateLimitMiddleware(s.Limiter, h)
	}
	return corsMiddleware(h)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API starting", "addr", s.Addr, "rate_limited", s.Limiter != nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware allows GET from origins listed in CORS_ORIGINS
// (comma-separated). Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", defaultRunsLimit)
	if !ok {
		return
	}
	runs, err := s.DB.Runs(limit)
	if err != nil {
		serverError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.GetRun(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "get run", err)
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, ok := intParam(w, r, "top", 100)
	if !ok {
		return
	}
	standings, err := s.DB.Standings(r.PathValue("id"))
	if err != nil {
		serverError(w, "standings", err)
		return
	}
	if len(standings) == 0 {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if name := r.URL.Query().Get("variant"); name != "" {
		v, err := agents.ParseVariant(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		standings = slices.DeleteFunc(standings, func(st engine.Standing) bool {
			return st.Variant != v
		})
	}
	writeJSON(w, report.Leaderboard(standings, top))
}

func (s *Server) handleAgentSizes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("agent"), 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}
	sizes, err := s.DB.StepSizes(r.PathValue("id"), agents.AgentID(id))
	if err != nil {
		serverError(w, "step sizes", err)
		return
	}
	if len(sizes) == 0 {
		http.Error(w, "no history for agent", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"agent": id,
		"sizes": sizes,
	})
}

// intParam reads a positive integer query parameter, writing a 400 on error.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func serverError(w http.ResponseWriter, what string, err error) {
	slog.Error("api query failed", "query", what, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
