package httpapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/antoniostano/cadence/internal/cycle"
)

// historyRequest is the body shared by every computation endpoint.
type historyRequest struct {
	Periods      []cycle.Interval `json:"periods"`
	CycleLength  *int             `json:"cycle_length"`
	PeriodLength *int             `json:"period_length"`
}

type predictionRequest struct {
	historyRequest
	Count *int        `json:"count"`
	Until *cycle.Date `json:"until"`
}

// forecastQuery selects between the count and the horizon forecast.
type forecastQuery struct {
	count int
	until cycle.Date
}

func (s *Server) priors(cycleLength, periodLength *int) (cycle.Priors, error) {
	p := s.cfg.Priors
	if cycleLength != nil {
		p.CycleLength = *cycleLength
	}
	if periodLength != nil {
		p.PeriodLength = *periodLength
	}
	if err := p.Validate(); err != nil {
		return cycle.Priors{}, err
	}
	return p, nil
}

func (s *Server) history(req historyRequest) ([]cycle.Interval, cycle.Priors, error) {
	p, err := s.priors(req.CycleLength, req.PeriodLength)
	if err != nil {
		return nil, cycle.Priors{}, err
	}
	for i, iv := range req.Periods {
		if err := iv.Validate(); err != nil {
			return nil, cycle.Priors{}, fmt.Errorf("periods[%d]: %w", i, err)
		}
	}
	return req.Periods, p, nil
}

// forecast validates the requested forecast. A horizon may reach at most
// ForecastCountMax of the longest plausible cycles past today.
func (s *Server) forecast(count *int, until *cycle.Date, p cycle.Priors, today cycle.Date) (forecastQuery, error) {
	q := forecastQuery{count: s.cfg.ForecastCountDefault}
	if until != nil && !until.IsZero() {
		limit := today.AddDays(s.cfg.ForecastCountMax * cycle.MaxCycle(p.CycleLength))
		if until.After(limit) {
			return forecastQuery{}, fmt.Errorf("until %s is past the forecast limit %s", until, limit)
		}
		q.until = *until
		return q, nil
	}
	if count != nil {
		if *count > s.cfg.ForecastCountMax {
			return forecastQuery{}, fmt.Errorf("count %d exceeds maximum %d", *count, s.cfg.ForecastCountMax)
		}
		q.count = *count
	}
	return q, nil
}

// userQuery reads the optional priors and forecast parameters of the
// per-user endpoint.
func (s *Server) userQuery(v url.Values, today cycle.Date) (cycle.Priors, forecastQuery, error) {
	cycleLength, err := optionalInt(v, "cycle_length")
	if err != nil {
		return cycle.Priors{}, forecastQuery{}, err
	}
	periodLength, err := optionalInt(v, "period_length")
	if err != nil {
		return cycle.Priors{}, forecastQuery{}, err
	}
	p, err := s.priors(cycleLength, periodLength)
	if err != nil {
		return cycle.Priors{}, forecastQuery{}, err
	}
	count, err := optionalInt(v, "count")
	if err != nil {
		return cycle.Priors{}, forecastQuery{}, err
	}
	var until *cycle.Date
	if raw := strings.TrimSpace(v.Get("until")); raw != "" {
		d, err := cycle.ParseDate(raw)
		if err != nil {
			return cycle.Priors{}, forecastQuery{}, err
		}
		until = &d
	}
	q, err := s.forecast(count, until, p, today)
	if err != nil {
		return cycle.Priors{}, forecastQuery{}, err
	}
	return p, q, nil
}

func optionalInt(v url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

// errorCode maps validation failures to a machine-readable code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, cycle.ErrInvalidPriors):
		return "invalid_priors"
	case errors.Is(err, cycle.ErrInvalidInterval):
		return "invalid_interval"
	case errors.Is(err, cycle.ErrInvalidDate):
		return "invalid_date"
	default:
		return "invalid_request"
	}
}
