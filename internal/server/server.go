// Package server exposes the operational HTTP surface: health, signal
// listing/approval/rejection, meeting lookup, and manual job triggers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/trading-council/internal/config"
	"github.com/aristath/trading-council/internal/council"
	"github.com/aristath/trading-council/internal/execution"
	"github.com/aristath/trading-council/internal/scheduler"
)

// Config holds everything the Server needs to wire its routes.
type Config struct {
	Log          zerolog.Logger
	Config       *config.Config
	Port         int
	DevMode      bool
	Signals      execution.SignalStore
	Pipeline     *execution.Pipeline
	Meetings     *council.Registry
	Jobs         map[string]scheduler.Job
}

// Server wraps the chi router and the underlying http.Server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New builds a Server with routes registered, ready for Start.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/signals", s.handleListSignals)
		r.Get("/signals/{id}", s.handleGetSignal)
		r.Post("/signals/{id}/approve", s.handleApproveSignal)
		r.Post("/signals/{id}/reject", s.handleRejectSignal)
		r.Get("/meetings/{id}", s.handleGetMeeting)
		r.Post("/jobs/{name}/run", s.handleRunJob)
	})
}

// Start begins serving HTTP traffic; blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}

	if pct, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pct) > 0 {
		resp["cpu_percent"] = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory_used_percent"] = vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "PENDING"
	}
	signals, err := s.cfg.Signals.List(r.Context(), statusOf(status), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sig, err := s.cfg.Signals.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sig == nil {
		writeError(w, http.StatusNotFound, "signal not found")
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

func (s *Server) handleApproveSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cfg.Pipeline.Approve(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "APPROVED"})
}

func (s *Server) handleRejectSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if err := s.cfg.Pipeline.Reject(r.Context(), id, body.Reason); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "REJECTED"})
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	meeting := s.cfg.Meetings.Get(id)
	if meeting == nil {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := s.cfg.Jobs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	if err := job.Run(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "completed"})
}
