package cycle

import "time"

// Clock supplies the current instant. "Today" is the calendar date of
// Now() in the location Now() reports.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// FixedDay returns a FixedClock set to noon UTC on d.
func FixedDay(d Date) FixedClock {
	return FixedClock(d.Time(time.UTC).Add(12 * time.Hour))
}
