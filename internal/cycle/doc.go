// Package cycle implements the cycle prediction engine.
//
// The engine estimates a person's cycle length and period length from a
// snapshot of observed intervals, blends both with user-declared priors,
// and projects future period windows strictly after "today". Every
// function is pure: nothing is cached between calls and the only
// time-dependent input is the Clock handed to NewEngine.
//
// Basic usage:
//
//	e := cycle.NewEngine(cycle.SystemClock{})
//	w := e.PredictPeriodWindow(history, cycle.DefaultPriors)
//	next := e.PredictFuturePeriods(history, cycle.DefaultPriors, 3)
package cycle
