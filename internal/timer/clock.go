package timer

import "time"

// Clock supplies instants for deadline math. Implementations must return
// values that carry a monotonic reading (time.Now does) so that wall-clock
// adjustments do not move deadlines.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
