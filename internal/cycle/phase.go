package cycle

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Phase is a coarse label for where a date sits in the predicted cycle.
type Phase int

const (
	Unknown    Phase = iota // No prediction to compare against.
	Menstrual               // Inside a predicted period window.
	Follicular              // Before the ovulation window.
	Ovulation               // Within a few days of the estimated ovulation day.
	Luteal                  // Between the ovulation window and the next period.
)

// Ovulation is estimated this many days before a predicted start, and
// the ovulation window spans ovulationSpread days either side of it.
const (
	lutealDays      = 14
	ovulationSpread = 3
)

var (
	phaseNames  = [...]string{Unknown: "Unknown", Menstrual: "Menstrual", Follicular: "Follicular", Ovulation: "Ovulation", Luteal: "Luteal"}
	phaseByName = map[string]Phase{
		"Unknown":    Unknown,
		"Menstrual":  Menstrual,
		"Follicular": Follicular,
		"Ovulation":  Ovulation,
		"Luteal":     Luteal,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Phase(0)
	_ json.Marshaler           = Phase(0)
	_ json.Unmarshaler         = (*Phase)(nil)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

func (p Phase) isValid() bool {
	return p >= Unknown && p <= Luteal
}

// String returns the phase name. For invalid values it returns "Phase(n)".
func (p Phase) String() string {
	if p.isValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.isValid() {
		return nil, fmt.Errorf("cycle: invalid phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("cycle: invalid phase: %q", text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. Phase serializes as a JSON string.
func (p Phase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cycle: invalid phase: %s", data)
	}
	return p.UnmarshalText([]byte(s))
}

// PhaseInfo describes a date relative to its closest predicted window.
type PhaseInfo struct {
	Date          Date    `json:"date"`
	Phase         Phase   `json:"phase"`
	Window        *Window `json:"window"`
	DaysUntil     int     `json:"days_until"`      // date -> window start
	DaysFromToday int     `json:"days_from_today"` // today -> window start
}

// ClosestWindow picks the window that describes date best: the one
// containing it, else the first one starting on or after it, else the
// last one. It returns false only for an empty slice.
func ClosestWindow(date Date, windows []Window) (Window, bool) {
	if len(windows) == 0 {
		return Window{}, false
	}
	for _, w := range windows {
		if w.Contains(date) {
			return w, true
		}
	}
	for _, w := range windows {
		if !w.Start.Before(date) {
			return w, true
		}
	}
	return windows[len(windows)-1], true
}

// LabelPhase labels date against a single predicted window.
func LabelPhase(date Date, w Window) Phase {
	if w.Contains(date) {
		return Menstrual
	}
	ovulation := w.Start.AddDays(-lutealDays)
	switch {
	case date.Before(ovulation.AddDays(-ovulationSpread)):
		return Follicular
	case !date.After(ovulation.AddDays(ovulationSpread)):
		return Ovulation
	default:
		return Luteal
	}
}

// PhaseOn labels date using the windows forecast up to one prior cycle
// past it.
func (e *Engine) PhaseOn(intervals []Interval, p Priors, date Date) PhaseInfo {
	today := e.Today()
	windows := futureUntil(sortedByStart(intervals), p, date.AddDays(p.CycleLength), today)
	w, ok := ClosestWindow(date, windows)
	if !ok {
		return PhaseInfo{Date: date, Phase: Unknown}
	}
	return PhaseInfo{
		Date:          date,
		Phase:         LabelPhase(date, w),
		Window:        &w,
		DaysUntil:     date.DaysUntil(w.Start),
		DaysFromToday: today.DaysUntil(w.Start),
	}
}
