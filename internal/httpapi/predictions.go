package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/cadence/internal/cycle"
	"github.com/antoniostano/cadence/internal/periods"
)

type predictionResponse struct {
	Today          cycle.Date     `json:"today"`
	CycleLength    int            `json:"cycle_length"`
	PeriodLength   int            `json:"period_length"`
	CycleObserved  bool           `json:"cycle_observed"`
	PeriodObserved bool           `json:"period_observed"`
	NextStart      cycle.Date     `json:"next_start"`
	Window         cycle.Window   `json:"window"`
	SettingsOnly   bool           `json:"settings_only"`
	Forecast       []cycle.Window `json:"forecast"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "predictions"

	var req predictionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	intervals, p, err := s.history(req.historyRequest)
	if err != nil {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	eng := s.pinnedEngine()
	q, err := s.forecast(req.Count, req.Until, p, eng.Today())
	if err != nil {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	respondJSON(w, http.StatusOK, s.predict(eng, endpoint, intervals, p, q))
}

func (s *Server) handleUserPredictions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "user_predictions"

	eng := s.pinnedEngine()
	p, q, err := s.userQuery(r.URL.Query(), eng.Today())
	if err != nil {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	userID := chi.URLParam(r, "userID")
	intervals, ok := s.snapshot(w, r, endpoint, userID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.predict(eng, endpoint, intervals, p, q))
}

// snapshot reads a user's history and writes the error response itself
// when the read fails.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request, endpoint, userID string) ([]cycle.Interval, bool) {
	if s.source == nil {
		s.countOutcome(endpoint, "source_error")
		respondError(w, http.StatusBadGateway, "source_unavailable", "no period source configured")
		return nil, false
	}
	intervals, err := s.source.Snapshot(r.Context(), userID)
	switch {
	case err == nil:
		return intervals, true
	case errors.Is(err, periods.ErrUnknownUser):
		s.countOutcome(endpoint, "not_found")
		respondError(w, http.StatusNotFound, "unknown_user", err.Error())
	default:
		log.Printf("request_id=%s snapshot failed for user %q: %v", requestIDFrom(r.Context()), userID, err)
		s.countOutcome(endpoint, "source_error")
		if s.metrics != nil {
			s.metrics.SnapshotErrors.WithLabelValues(s.source.Mode()).Inc()
		}
		respondError(w, http.StatusBadGateway, "source_unavailable", "period history is unavailable")
	}
	return nil, false
}

func (s *Server) predict(eng *cycle.Engine, endpoint string, intervals []cycle.Interval, p cycle.Priors, q forecastQuery) predictionResponse {
	start := time.Now()
	pr := eng.Predict(intervals, p)
	var forecast []cycle.Window
	if !q.until.IsZero() {
		forecast = eng.PredictFuturePeriodsUntil(intervals, p, q.until)
	} else {
		forecast = eng.PredictFuturePeriods(intervals, p, q.count)
	}
	s.observe(endpoint, time.Since(start))

	if s.metrics != nil {
		if pr.SettingsOnly {
			s.metrics.ObserveFallback("settings_only")
		}
		if !pr.CycleObserved {
			s.metrics.ObserveFallback("priors_only_cycle")
		}
		if !pr.PeriodObserved {
			s.metrics.ObserveFallback("priors_only_period")
		}
		s.metrics.EstimatedCycleLength.Observe(float64(pr.CycleLength))
		s.metrics.ForecastWindows.Observe(float64(len(forecast)))
	}

	return predictionResponse{
		Today:          pr.Today,
		CycleLength:    pr.CycleLength,
		PeriodLength:   pr.PeriodLength,
		CycleObserved:  pr.CycleObserved,
		PeriodObserved: pr.PeriodObserved,
		NextStart:      pr.NextStart,
		Window:         pr.Window,
		SettingsOnly:   pr.SettingsOnly,
		Forecast:       forecast,
	}
}

// observe records a successful computation.
func (s *Server) observe(endpoint string, d time.Duration) {
	s.countOutcome(endpoint, "ok")
	if s.metrics != nil {
		s.metrics.ObserveCompute(endpoint, d)
	}
}

func (s *Server) countOutcome(endpoint, outcome string) {
	if s.metrics != nil {
		s.metrics.Predictions.WithLabelValues(endpoint, outcome).Inc()
	}
}

func (s *Server) reject(w http.ResponseWriter, endpoint, code string, err error) {
	s.countOutcome(endpoint, "invalid")
	respondError(w, http.StatusBadRequest, code, err.Error())
}
