package cycle

import (
	"testing"
	"time"
)

// today for every engine test unless stated otherwise.
var testToday = NewDate(2026, 3, 15)

func engineOn(d Date) *Engine {
	return NewEngine(FixedDay(d))
}

func TestEngineTodayUsesClockLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-15 20:00 UTC is already 2026-03-16 in Tokyo.
	instant := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)

	if got := NewEngine(FixedClock(instant)).Today(); !got.Equal(NewDate(2026, 3, 15)) {
		t.Fatalf("Today() in UTC = %s, want 2026-03-15", got)
	}
	if got := NewEngine(FixedClock(instant.In(tokyo))).Today(); !got.Equal(NewDate(2026, 3, 16)) {
		t.Fatalf("Today() in JST = %s, want 2026-03-16", got)
	}
}

func TestPredictNextStart(t *testing.T) {
	e := engineOn(testToday)

	tests := []struct {
		name      string
		intervals []Interval
		want      Date
	}{
		{
			name:      "single interval ten days ago",
			intervals: []Interval{{Start: testToday.AddDays(-10), End: testToday.AddDays(-6)}},
			want:      testToday.AddDays(18),
		},
		{
			name:      "projection landing on today rolls one cycle",
			intervals: []Interval{{Start: testToday.AddDays(-28)}},
			want:      testToday.AddDays(28),
		},
		{
			name:      "stale history rolls by whole cycles",
			intervals: []Interval{{Start: NewDate(2025, 12, 1), End: NewDate(2025, 12, 5)}},
			want:      NewDate(2026, 3, 23), // 2025-12-29 + 3*28
		},
		{
			name: "unsorted input",
			intervals: []Interval{
				{Start: testToday.AddDays(-5)},
				{Start: testToday.AddDays(-65), End: testToday.AddDays(-61)},
				{Start: testToday.AddDays(-35), End: testToday.AddDays(-31)},
			},
			// gaps [30, 30]: (30 + 60 + 56) / 5 = 29.2 -> 29
			want: testToday.AddDays(24),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.PredictNextStart(tt.intervals, 28)
			if !ok {
				t.Fatalf("PredictNextStart() absent, want %s", tt.want)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("PredictNextStart() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPredictNextStartNoHistory(t *testing.T) {
	if got, ok := engineOn(testToday).PredictNextStart(nil, 28); ok {
		t.Fatalf("PredictNextStart(nil) = %s, want absent", got)
	}
}

func TestPredictNextStartFutureAlignment(t *testing.T) {
	histories := [][]Interval{
		startsFromGaps(NewDate(2020, 1, 1)),
		startsFromGaps(NewDate(2023, 7, 19), 31, 29, 35),
		startsFromGaps(NewDate(2025, 11, 2), 26, 27, 24, 28, 25, 99, 27),
		startsFromGaps(NewDate(2026, 3, 14)),
		startsFromGaps(NewDate(2026, 2, 13), 30),
	}
	for _, today := range []Date{testToday, NewDate(2026, 12, 31), NewDate(2027, 2, 28)} {
		e := engineOn(today)
		for _, setting := range []int{1, 15, 21, 28, 40, 99} {
			for i, h := range histories {
				got, ok := e.PredictNextStart(h, setting)
				if !ok {
					t.Fatalf("history %d: absent", i)
				}
				if !got.After(today) {
					t.Fatalf("history %d setting %d today %s: next %s not after today", i, setting, today, got)
				}
				est := EstimateCycleLength(h, setting)
				raw := sortedByStart(h)[len(h)-1].Start.AddDays(est)
				shift := raw.DaysUntil(got)
				if shift < 0 || shift%est != 0 {
					t.Fatalf("history %d setting %d: shift %d is not a non-negative multiple of %d", i, setting, shift, est)
				}
			}
		}
	}
}

func TestSettingsOnlyStart(t *testing.T) {
	if got := engineOn(testToday).SettingsOnlyStart(30); !got.Equal(NewDate(2026, 4, 14)) {
		t.Fatalf("SettingsOnlyStart(30) = %s, want 2026-04-14", got)
	}
}

func TestPredictPeriodWindowNoHistory(t *testing.T) {
	w := engineOn(testToday).PredictPeriodWindow(nil, Priors{CycleLength: 28, PeriodLength: 5})
	if !w.Start.After(testToday) {
		t.Fatalf("window start %s not after today", w.Start)
	}
	if !w.Start.Equal(NewDate(2026, 4, 12)) {
		t.Fatalf("window start = %s, want 2026-04-12", w.Start)
	}
	if w.Days() != 5 {
		t.Fatalf("window length = %d days, want 5", w.Days())
	}
}

func TestPredictPeriodWindowUsesPeriodEstimate(t *testing.T) {
	ivs := []Interval{
		{Start: testToday.AddDays(-40), End: testToday.AddDays(-34)}, // 7 days
		{Start: testToday.AddDays(-12), End: testToday.AddDays(-6)},  // 7 days
	}
	p := Priors{CycleLength: 28, PeriodLength: 5}
	w := engineOn(testToday).PredictPeriodWindow(ivs, p)
	if want := EstimatePeriodLength(ivs, p.PeriodLength); w.Days() != want {
		t.Fatalf("window length = %d, want %d", w.Days(), want)
	}
	// gap 28 -> estimate 28; 2026-03-03 + 28.
	if !w.Start.Equal(NewDate(2026, 3, 31)) {
		t.Fatalf("window start = %s, want 2026-03-31", w.Start)
	}
}

func TestPredictReportsFallbacks(t *testing.T) {
	e := engineOn(testToday)

	pr := e.Predict(nil, DefaultPriors)
	if !pr.SettingsOnly || pr.CycleObserved || pr.PeriodObserved {
		t.Fatalf("empty history flags = %+v", pr)
	}
	if !pr.NextStart.IsZero() {
		t.Fatalf("NextStart = %s, want zero", pr.NextStart)
	}

	pr = e.Predict(startsFromGaps(NewDate(2026, 1, 20), 27), DefaultPriors)
	if pr.SettingsOnly || !pr.CycleObserved || !pr.PeriodObserved {
		t.Fatalf("observed history flags = %+v", pr)
	}
	if !pr.Window.Start.Equal(pr.NextStart) {
		t.Fatalf("window start %s != next start %s", pr.Window.Start, pr.NextStart)
	}
}

func TestPredictFuturePeriodsCount(t *testing.T) {
	e := engineOn(testToday)
	for _, count := range []int{0, -1, -50} {
		got := e.PredictFuturePeriods(startsFromGaps(NewDate(2026, 1, 1), 29), DefaultPriors, count)
		if got == nil || len(got) != 0 {
			t.Fatalf("PredictFuturePeriods(count=%d) = %v, want empty slice", count, got)
		}
	}

	got := e.PredictFuturePeriods(nil, DefaultPriors, 3)
	want := []Date{NewDate(2026, 4, 12), NewDate(2026, 5, 10), NewDate(2026, 6, 7)}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i]) || got[i].Days() != 5 {
			t.Fatalf("window %d = %+v, want start %s and 5 days", i, got[i], want[i])
		}
	}
}

func TestPredictFuturePeriodsTruncatesToCount(t *testing.T) {
	// Estimated cycle 21 is shorter than the prior, so the horizon
	// (today + 4*28) holds five windows: Apr 3 through Jun 26.
	ivs := startsFromGaps(NewDate(2025, 10, 1), 20, 20, 20, 20, 20)
	got := engineOn(testToday).PredictFuturePeriods(ivs, DefaultPriors, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if !got[0].Start.Equal(NewDate(2026, 4, 3)) {
		t.Fatalf("first start = %s, want 2026-04-03", got[0].Start)
	}
}

func TestPredictFuturePeriodsLongCycleReturnsFewer(t *testing.T) {
	// Estimated cycle 43 against a 28-day prior: the horizon
	// (today + 6*28 = 2026-08-30) only fits four windows.
	ivs := startsFromGaps(NewDate(2025, 7, 1), 45, 45, 45, 45, 45)
	got := engineOn(testToday).PredictFuturePeriods(ivs, DefaultPriors, 6)
	want := []Date{NewDate(2026, 3, 26), NewDate(2026, 5, 8), NewDate(2026, 6, 20), NewDate(2026, 8, 2)}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i]) {
			t.Fatalf("window %d start = %s, want %s", i, got[i].Start, want[i])
		}
	}
}

func TestPredictFuturePeriodsUntil(t *testing.T) {
	e := engineOn(testToday)
	ivs := startsFromGaps(NewDate(2025, 10, 1), 29, 31, 30, 28, 30)
	est := EstimateCycleLength(ivs, 28)
	period := EstimatePeriodLength(ivs, 5)
	first, _ := e.PredictNextStart(ivs, 28)

	t.Run("horizon before first start", func(t *testing.T) {
		got := e.PredictFuturePeriodsUntil(ivs, DefaultPriors, testToday)
		if len(got) != 1 {
			t.Fatalf("len = %d, want exactly 1", len(got))
		}
		if !got[0].Start.Equal(first) {
			t.Fatalf("start = %s, want %s", got[0].Start, first)
		}
	})

	t.Run("horizon on first start", func(t *testing.T) {
		got := e.PredictFuturePeriodsUntil(ivs, DefaultPriors, first)
		if len(got) != 1 || !got[0].Start.Equal(first) {
			t.Fatalf("got %v, want single window at %s", got, first)
		}
	})

	t.Run("constant spacing", func(t *testing.T) {
		end := testToday.AddDays(365)
		got := e.PredictFuturePeriodsUntil(ivs, DefaultPriors, end)
		if len(got) < 10 {
			t.Fatalf("len = %d, want a year of windows", len(got))
		}
		for i, w := range got {
			if w.Start.After(end) {
				t.Fatalf("window %d starts %s after horizon %s", i, w.Start, end)
			}
			if w.Days() != period {
				t.Fatalf("window %d length %d, want %d", i, w.Days(), period)
			}
			if i > 0 {
				if gap := got[i-1].Start.DaysUntil(w.Start); gap != est {
					t.Fatalf("window %d spacing %d, want %d", i, gap, est)
				}
			}
		}
		if next := got[len(got)-1].Start.AddDays(est); !next.After(end) {
			t.Fatalf("forecast stopped early: next start %s <= %s", next, end)
		}
	})

	t.Run("no history", func(t *testing.T) {
		got := e.PredictFuturePeriodsUntil(nil, DefaultPriors, testToday.AddDays(10))
		if len(got) != 1 || !got[0].Start.Equal(testToday.AddDays(28)) {
			t.Fatalf("got %v, want one settings-only window", got)
		}
	})
}

func TestPredictionsOrderIndependent(t *testing.T) {
	e := engineOn(testToday)
	ivs := startsFromGaps(NewDate(2025, 8, 3), 27, 33, 29, 31, 26, 30)
	ivs[len(ivs)-1].End = Date{}
	shuffled := []Interval{ivs[4], ivs[6], ivs[0], ivs[2], ivs[5], ivs[1], ivs[3]}

	a := e.PredictFuturePeriodsUntil(ivs, DefaultPriors, testToday.AddDays(200))
	b := e.PredictFuturePeriodsUntil(shuffled, DefaultPriors, testToday.AddDays(200))
	if len(a) != len(b) {
		t.Fatalf("len %d != %d", len(a), len(b))
	}
	for i := range a {
		if !sameWindow(a[i], b[i]) {
			t.Fatalf("window %d: %+v != %+v", i, a[i], b[i])
		}
	}
	if !sameWindow(e.PredictPeriodWindow(ivs, DefaultPriors), e.PredictPeriodWindow(shuffled, DefaultPriors)) {
		t.Fatalf("PredictPeriodWindow depends on input order")
	}
}

func sameWindow(a, b Window) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}
