// Package reminder plans the reminders a notification scheduler should
// register for a person's history. It computes dates only; nothing here
// schedules or delivers anything.
package reminder

import (
	"fmt"
	"time"

	"github.com/antoniostano/cadence/internal/cycle"
)

// Kind identifies what a reminder is about.
type Kind string

const (
	KindPeriodEnd       Kind = "period_end"
	KindPredictedPeriod Kind = "predicted_period"
)

// TimeOfDay is a wall-clock time in the clock's location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// DefaultTime is used when no reminder time is configured.
var DefaultTime = TimeOfDay{Hour: 9}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("reminder: invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	v, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// on returns d at t in loc.
func (t TimeOfDay) on(d cycle.Date, loc *time.Location) time.Time {
	m := d.Time(loc)
	return time.Date(m.Year(), m.Month(), m.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Settings mirror the user's notification preferences.
type Settings struct {
	Enabled         bool      `json:"enabled"`
	PeriodEnd       bool      `json:"period_end"`
	PredictedPeriod bool      `json:"predicted_period"`
	At              TimeOfDay `json:"at"`
}

// DefaultSettings enables every reminder at DefaultTime.
var DefaultSettings = Settings{Enabled: true, PeriodEnd: true, PredictedPeriod: true, At: DefaultTime}

// Reminder is one planned notification.
type Reminder struct {
	Kind   Kind       `json:"kind"`
	Date   cycle.Date `json:"date"`
	FireAt time.Time  `json:"fire_at"`
	Key    string     `json:"key"` // unique per kind and date; replaces earlier plans
}

// Planner derives reminders from engine predictions.
type Planner struct {
	engine *cycle.Engine
}

func NewPlanner(engine *cycle.Engine) *Planner {
	return &Planner{engine: engine}
}

// Plan returns the reminders due for the history, in firing order.
// Reminders whose moment has already passed are left out.
func (p *Planner) Plan(intervals []cycle.Interval, priors cycle.Priors, s Settings) []Reminder {
	out := []Reminder{}
	if !s.Enabled {
		return out
	}
	now := p.engine.Clock().Now()
	today := cycle.DateOf(now)
	loc := now.Location()

	if s.PeriodEnd {
		if last, ok := latest(intervals); ok && last.Open() {
			end := last.Start.AddDays(priors.PeriodLength - 1)
			if end.After(today) {
				out = append(out, newReminder(KindPeriodEnd, end, s.At, loc))
			}
		}
	}

	if s.PredictedPeriod {
		if next, ok := p.engine.PredictNextStart(intervals, priors.CycleLength); ok {
			day := next.AddDays(-1)
			at := s.At.on(day, loc)
			if day.After(today) || (day.Equal(today) && at.After(now)) {
				out = append(out, newReminder(KindPredictedPeriod, day, s.At, loc))
			}
		}
	}

	if len(out) == 2 && out[1].FireAt.Before(out[0].FireAt) {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func newReminder(kind Kind, d cycle.Date, at TimeOfDay, loc *time.Location) Reminder {
	return Reminder{
		Kind:   kind,
		Date:   d,
		FireAt: at.on(d, loc),
		Key:    string(kind) + "_" + d.String(),
	}
}

// latest returns the interval with the greatest start date.
func latest(intervals []cycle.Interval) (cycle.Interval, bool) {
	if len(intervals) == 0 {
		return cycle.Interval{}, false
	}
	best := intervals[0]
	for _, iv := range intervals[1:] {
		if iv.Start.After(best.Start) {
			best = iv
		}
	}
	return best, true
}
