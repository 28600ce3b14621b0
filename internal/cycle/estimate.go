package cycle

// Estimation constants.
const (
	MinCycle      = 15 // shortest cycle accepted as a real observation
	maxCycleFloor = 50

	MinPeriod = 1
	MaxPeriod = 15

	RecentWindow   = 6 // intervals considered by the cycle estimate
	PriorWeight    = 2 // pseudo-observations contributed by a prior
	ObservedWeight = 1 // weight of the observed mean period length
)

// MaxCycle returns the adaptive upper plausibility bound:
// max(50, round(cycleSetting * 1.8)).
func MaxCycle(cycleSetting int) int {
	// round(s*1.8) == round(9s/5); 9s/5 never lands on a .5 tie.
	m := roundDiv(9*cycleSetting, 5)
	if m < maxCycleFloor {
		return maxCycleFloor
	}
	return m
}

// IsPlausibleCycleLength reports whether length lies within
// [MinCycle, MaxCycle(cycleSetting)]. Statistics code must use this
// predicate rather than its own outlier definition.
func IsPlausibleCycleLength(length, cycleSetting int) bool {
	return length >= MinCycle && length <= MaxCycle(cycleSetting)
}

// EstimateCycleLength estimates the cycle length from intervals in any
// order. It returns cycleSetting unchanged when there are fewer than two
// intervals or when every recent gap is implausible.
func EstimateCycleLength(intervals []Interval, cycleSetting int) int {
	return estimateCycleSorted(sortedByStart(intervals), cycleSetting)
}

// estimateCycleSorted is EstimateCycleLength for input already sorted by
// start date.
func estimateCycleSorted(sorted []Interval, cycleSetting int) int {
	est, _ := cycleEstimate(sorted, cycleSetting)
	return est
}

// cycleEstimate returns the estimate and whether any observed gap
// contributed to it.
func cycleEstimate(sorted []Interval, cycleSetting int) (int, bool) {
	if len(sorted) < 2 {
		return cycleSetting, false
	}
	recent := sorted
	if len(recent) > RecentWindow {
		recent = recent[len(recent)-RecentWindow:]
	}

	gaps := make([]int, 0, len(recent)-1)
	for i := 0; i+1 < len(recent); i++ {
		gap := recent[i].Start.DaysUntil(recent[i+1].Start)
		if IsPlausibleCycleLength(gap, cycleSetting) {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return cycleSetting, false
	}

	// Oldest surviving gap weighs 1, the most recent weighs len(gaps).
	weightedSum, weightSum := 0, 0
	for i, gap := range gaps {
		w := i + 1
		weightedSum += gap * w
		weightSum += w
	}

	est := roundDiv(weightedSum+cycleSetting*PriorWeight, weightSum+PriorWeight)
	if est < MinCycle {
		est = MinCycle
	}
	return est, true
}

// EstimatePeriodLength estimates the period duration from closed
// intervals. Open intervals and lengths outside [MinPeriod, MaxPeriod]
// are ignored; with nothing left periodSetting is returned unchanged.
func EstimatePeriodLength(intervals []Interval, periodSetting int) int {
	est, _ := periodEstimate(intervals, periodSetting)
	return est
}

func periodEstimate(intervals []Interval, periodSetting int) (int, bool) {
	sum, n := 0, 0
	for _, iv := range intervals {
		length, ok := iv.Length()
		if !ok || length < MinPeriod || length > MaxPeriod {
			continue
		}
		sum += length
		n++
	}
	if n == 0 {
		return periodSetting, false
	}

	// (mean*ObservedWeight + prior*PriorWeight) / (ObservedWeight+PriorWeight)
	// with mean = sum/n, kept in integers so rounding is exact.
	num := sum*ObservedWeight + periodSetting*PriorWeight*n
	den := (ObservedWeight + PriorWeight) * n
	return clamp(roundDiv(num, den), MinPeriod, MaxPeriod), true
}

// roundDiv returns num/den rounded half up. den must be positive.
func roundDiv(num, den int) int {
	q := (2*num + den) / (2 * den)
	if 2*num+den < 0 && (2*num+den)%(2*den) != 0 {
		q-- // floor for negative numerators
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
