package catalog

import "time"

// Clock supplies the time a cached release list's age is measured against.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock pins the time so freshness checks are reproducible against
// cache files with known modification times.
type TestClock struct {
	FixedTime time.Time
}

// Now returns FixedTime.
func (c TestClock) Now() time.Time {
	return c.FixedTime
}

// cacheAge is how long before now modTime was. A modification time in the
// future counts as that far in the past.
func cacheAge(clock Clock, modTime time.Time) time.Duration {
	age := clock.Now().Sub(modTime)
	if age < 0 {
		return -age
	}
	return age
}
