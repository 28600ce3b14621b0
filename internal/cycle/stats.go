package cycle

// CycleSample is one observed cycle: the gap between two consecutive
// starts, keyed by the later start.
type CycleSample struct {
	Length int  `json:"length"`
	Start  Date `json:"start_date"`
}

// Stats summarizes a history for trend displays.
type Stats struct {
	Intervals           int           `json:"intervals"`
	Cycles              []CycleSample `json:"cycles"`
	AverageCycleLength  float64       `json:"average_cycle_length"`
	AveragePeriodLength float64       `json:"average_period_length"`
}

// CycleTrend returns every plausible cycle across the whole history, in
// chronological order. Outliers are dropped with IsPlausibleCycleLength
// so the trend agrees with what the estimator trusts.
func CycleTrend(intervals []Interval, cycleSetting int) []CycleSample {
	sorted := sortedByStart(intervals)
	out := []CycleSample{}
	for i := 0; i+1 < len(sorted); i++ {
		gap := sorted[i].Start.DaysUntil(sorted[i+1].Start)
		if !IsPlausibleCycleLength(gap, cycleSetting) {
			continue
		}
		out = append(out, CycleSample{Length: gap, Start: sorted[i+1].Start})
	}
	return out
}

// Summarize computes trend statistics. Open intervals count as
// p.PeriodLength days in the period average.
func Summarize(intervals []Interval, p Priors) Stats {
	st := Stats{
		Intervals: len(intervals),
		Cycles:    CycleTrend(intervals, p.CycleLength),
	}
	if n := len(st.Cycles); n > 0 {
		sum := 0
		for _, c := range st.Cycles {
			sum += c.Length
		}
		st.AverageCycleLength = float64(sum) / float64(n)
	}
	if n := len(intervals); n > 0 {
		sum := 0
		for _, iv := range intervals {
			length, ok := iv.Length()
			if !ok {
				length = p.PeriodLength
			}
			sum += length
		}
		st.AveragePeriodLength = float64(sum) / float64(n)
	}
	return st
}
