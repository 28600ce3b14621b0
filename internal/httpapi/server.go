package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/antoniostano/cadence/internal/config"
	"github.com/antoniostano/cadence/internal/cycle"
	"github.com/antoniostano/cadence/internal/observability"
	"github.com/antoniostano/cadence/internal/periods"
	"github.com/antoniostano/cadence/internal/reminder"
)

type Server struct {
	cfg     config.Config
	engine  *cycle.Engine
	source  periods.Source
	metrics *observability.Metrics
}

func New(cfg config.Config, engine *cycle.Engine, source periods.Source, metrics *observability.Metrics) *Server {
	if cfg.Priors == (cycle.Priors{}) {
		cfg.Priors = cycle.DefaultPriors
	}
	if cfg.ReminderTime == (reminder.TimeOfDay{}) {
		cfg.ReminderTime = reminder.DefaultTime
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		source:  source,
		metrics: metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/v1/predictions", s.handlePredictions)
	r.Post("/v1/phase", s.handlePhase)
	r.Post("/v1/stats", s.handleStats)
	r.Post("/v1/reminders", s.handleReminders)
	r.Get("/v1/users/{userID}/predictions", s.handleUserPredictions)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"source_mode": s.sourceMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ready",
		"source_mode": s.sourceMode(),
	})
}

// pinnedEngine returns an engine whose clock is frozen at the current
// instant, so every computation in one request shares the same today.
func (s *Server) pinnedEngine() *cycle.Engine {
	return cycle.NewEngine(cycle.FixedClock(s.engine.Clock().Now()))
}

func (s *Server) sourceMode() string {
	if s.source == nil {
		return "disabled"
	}
	mode := strings.TrimSpace(s.source.Mode())
	if mode == "" {
		return "disabled"
	}
	return mode
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
