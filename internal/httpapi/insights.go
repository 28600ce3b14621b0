package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/antoniostano/cadence/internal/cycle"
	"github.com/antoniostano/cadence/internal/reminder"
)

type phaseRequest struct {
	historyRequest
	Date *cycle.Date `json:"date"`
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	const endpoint = "phase"

	var req phaseRequest
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
	date := eng.Today()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	start := time.Now()
	info := eng.PhaseOn(intervals, p, date)
	s.observe(endpoint, time.Since(start))
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "stats"

	var req historyRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	intervals, p, err := s.history(req)
	if err != nil {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}

	start := time.Now()
	st := cycle.Summarize(intervals, p)
	s.observe(endpoint, time.Since(start))
	respondJSON(w, http.StatusOK, st)
}

type remindersRequest struct {
	historyRequest
	Reminders *reminderSettings `json:"reminders"`
}

// reminderSettings leaves every field optional; missing fields take the
// defaults.
type reminderSettings struct {
	Enabled         *bool   `json:"enabled"`
	PeriodEnd       *bool   `json:"period_end"`
	PredictedPeriod *bool   `json:"predicted_period"`
	At              *string `json:"at"`
}

func (s *Server) reminderSettings(in *reminderSettings) (reminder.Settings, error) {
	out := reminder.DefaultSettings
	out.At = s.cfg.ReminderTime
	if in == nil {
		return out, nil
	}
	if in.Enabled != nil {
		out.Enabled = *in.Enabled
	}
	if in.PeriodEnd != nil {
		out.PeriodEnd = *in.PeriodEnd
	}
	if in.PredictedPeriod != nil {
		out.PredictedPeriod = *in.PredictedPeriod
	}
	if in.At != nil {
		at, err := reminder.ParseTimeOfDay(*in.At)
		if err != nil {
			return reminder.Settings{}, fmt.Errorf("reminders.at: %w", err)
		}
		out.At = at
	}
	return out, nil
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	const endpoint = "reminders"

	var req remindersRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	intervals, p, err := s.history(req.historyRequest)
	if err != nil {
		s.reject(w, endpoint, errorCode(err), err)
		return
	}
	settings, err := s.reminderSettings(req.Reminders)
	if err != nil {
		s.reject(w, endpoint, "invalid_reminder_time", err)
		return
	}

	start := time.Now()
	plan := reminder.NewPlanner(s.pinnedEngine()).Plan(intervals, p, settings)
	s.observe(endpoint, time.Since(start))
	respondJSON(w, http.StatusOK, map[string]any{"reminders": plan})
}
