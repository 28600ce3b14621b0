package cycle

import (
	"fmt"
	"sort"
)

// Interval is one observed period. A zero End means the period is
// still ongoing.
type Interval struct {
	ID    string `json:"id"`
	Start Date   `json:"start_date"`
	End   Date   `json:"end_date"`
}

// Open reports whether the interval has no end date yet.
func (iv Interval) Open() bool {
	return iv.End.IsZero()
}

// Length returns end - start + 1, or false for an open interval.
func (iv Interval) Length() (int, bool) {
	if iv.Open() {
		return 0, false
	}
	return iv.Start.DaysUntil(iv.End) + 1, true
}

// Validate checks the interval invariants: a start date is present and
// the end date, when present, is not before it.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() {
		return fmt.Errorf("%w: missing start_date", ErrInvalidInterval)
	}
	if !iv.Open() && iv.End.Before(iv.Start) {
		return fmt.Errorf("%w: end_date %s before start_date %s", ErrInvalidInterval, iv.End, iv.Start)
	}
	return nil
}

// Window is a predicted period, both ends inclusive.
type Window struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the inclusive length of the window.
func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

// Priors are the user-configured expectations that anchor the
// estimates when history is sparse or noisy.
type Priors struct {
	CycleLength  int `json:"cycle_length"`  // days between period starts
	PeriodLength int `json:"period_length"` // days a period lasts
}

// DefaultPriors are the settings a new user starts with.
var DefaultPriors = Priors{CycleLength: 28, PeriodLength: 5}

// Bounds accepted by Priors.Validate.
const (
	MinSetting = 1
	MaxSetting = 99
)

// Validate checks that both priors are within [MinSetting, MaxSetting].
func (p Priors) Validate() error {
	if p.CycleLength < MinSetting || p.CycleLength > MaxSetting {
		return fmt.Errorf("%w: cycle_length %d, bounds [%d, %d]",
			ErrInvalidPriors, p.CycleLength, MinSetting, MaxSetting)
	}
	if p.PeriodLength < MinSetting || p.PeriodLength > MaxSetting {
		return fmt.Errorf("%w: period_length %d, bounds [%d, %d]",
			ErrInvalidPriors, p.PeriodLength, MinSetting, MaxSetting)
	}
	return nil
}

// sortedByStart returns a copy of intervals ordered by start date.
// The input slice is not modified.
func sortedByStart(intervals []Interval) []Interval {
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
