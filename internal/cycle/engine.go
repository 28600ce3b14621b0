package cycle

// Engine runs predictions against an injected clock. It holds no other
// state and is safe for concurrent use.
type Engine struct {
	clock Clock
}

// NewEngine returns an Engine reading "today" from clock. A nil clock
// means SystemClock in UTC.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// Clock returns the clock the engine reads "today" from.
func (e *Engine) Clock() Clock {
	return e.clock
}

// Today returns the calendar date of the clock's current instant.
func (e *Engine) Today() Date {
	return DateOf(e.clock.Now())
}

// Prediction bundles every single-window output of one engine call,
// computed against one reading of the clock.
type Prediction struct {
	Today          Date
	CycleLength    int    // estimated cycle length
	PeriodLength   int    // estimated period length
	NextStart      Date   // zero when there is no history
	Window         Window // always set; falls back to the priors
	CycleObserved  bool   // false when CycleLength is the prior
	PeriodObserved bool   // false when PeriodLength is the prior
	SettingsOnly   bool   // Window was anchored to today, not to history
}

// Predict computes the estimates, the next start and the next window.
func (e *Engine) Predict(intervals []Interval, p Priors) Prediction {
	today := e.Today()
	sorted := sortedByStart(intervals)

	cycleLen, cycleObserved := cycleEstimate(sorted, p.CycleLength)
	periodLen, periodObserved := periodEstimate(sorted, p.PeriodLength)

	pr := Prediction{
		Today:          today,
		CycleLength:    cycleLen,
		PeriodLength:   periodLen,
		CycleObserved:  cycleObserved,
		PeriodObserved: periodObserved,
	}
	start, ok := nextStart(sorted, cycleLen, today)
	if ok {
		pr.NextStart = start
	} else {
		start = settingsOnlyStart(p.CycleLength, today)
		pr.SettingsOnly = true
	}
	pr.Window = windowAt(start, periodLen)
	return pr
}

// PredictNextStart returns the next predicted period start, strictly
// after today. It returns false when intervals is empty; callers then
// fall back to SettingsOnlyStart.
func (e *Engine) PredictNextStart(intervals []Interval, cycleSetting int) (Date, bool) {
	sorted := sortedByStart(intervals)
	return nextStart(sorted, estimateCycleSorted(sorted, cycleSetting), e.Today())
}

// SettingsOnlyStart anchors a first prediction to today when there is
// no history at all: today + cycleSetting days.
func (e *Engine) SettingsOnlyStart(cycleSetting int) Date {
	return settingsOnlyStart(cycleSetting, e.Today())
}

// PredictPeriodWindow returns the next predicted period window. It
// never fails: without history it falls back to SettingsOnlyStart.
func (e *Engine) PredictPeriodWindow(intervals []Interval, p Priors) Window {
	return e.Predict(intervals, p).Window
}

// PredictFuturePeriods returns up to count consecutive windows. A
// non-positive count yields an empty slice. The horizon is
// today + count*p.CycleLength, so fewer than count windows come back
// when the estimated cycle is longer than the prior.
func (e *Engine) PredictFuturePeriods(intervals []Interval, p Priors, count int) []Window {
	if count <= 0 {
		return []Window{}
	}
	today := e.Today()
	horizon := today.AddDays(count * p.CycleLength)
	out := futureUntil(sortedByStart(intervals), p, horizon, today)
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// PredictFuturePeriodsUntil returns the windows whose start is on or
// before end, spaced by one estimated cycle. At least one window is
// always returned: when the first predicted start is already past end,
// the result is exactly that first window.
func (e *Engine) PredictFuturePeriodsUntil(intervals []Interval, p Priors, end Date) []Window {
	return futureUntil(sortedByStart(intervals), p, end, e.Today())
}

func futureUntil(sorted []Interval, p Priors, end, today Date) []Window {
	cycleLen := estimateCycleSorted(sorted, p.CycleLength)
	periodLen := EstimatePeriodLength(sorted, p.PeriodLength)

	first, ok := nextStart(sorted, cycleLen, today)
	if !ok {
		first = settingsOnlyStart(p.CycleLength, today)
	}
	if first.After(end) {
		return []Window{windowAt(first, periodLen)}
	}

	var out []Window
	for cur := first; !cur.After(end); cur = cur.AddDays(cycleLen) {
		out = append(out, windowAt(cur, periodLen))
	}
	return out
}

// nextStart projects one estimated cycle past the latest start and then
// rolls forward by whole cycles until the date is after today.
func nextStart(sorted []Interval, cycleLen int, today Date) (Date, bool) {
	if len(sorted) == 0 {
		return Date{}, false
	}
	base := sorted[len(sorted)-1].Start.AddDays(cycleLen)
	if !base.After(today) {
		// Smallest k >= 1 with base + k*cycleLen > today.
		k := base.DaysUntil(today)/cycleLen + 1
		base = base.AddDays(k * cycleLen)
	}
	return base, true
}

func settingsOnlyStart(cycleSetting int, today Date) Date {
	return today.AddDays(cycleSetting)
}

func windowAt(start Date, periodLen int) Window {
	return Window{Start: start, End: start.AddDays(periodLen - 1)}
}
