// Package clock abstracts wall-clock time for the guide. Production code
// uses Real; tests inject testutil.FakeClock to drive cache-busting
// timestamps and refresh ticks deterministically.
package clock

import "time"

// Clock is the subset of the time package the guide depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if
	// d <= 0, like time.NewTicker.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers periodic ticks. The channel has capacity 1; ticks are
// dropped when the consumer falls behind.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }

// UnixMillis returns t as milliseconds since the Unix epoch, the form used
// for cache-busting query parameters.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}
