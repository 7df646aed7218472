package testutil

import (
	"sync"
	"time"

	"github.com/OkinawaYT/Michishirube2026/internal/clock"
)

// FakeClock is a deterministic clock.Clock. Time stands still until
// Advance is called; tickers fire during Advance for every interval
// boundary crossed.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	changed *sync.Cond
}

type fakeTicker struct {
	ch       chan time.Time
	next     time.Time
	interval time.Duration
	stopped  bool
}

// NewFakeClock creates a FakeClock reading start.
func NewFakeClock(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker whose first tick is due at Now()+d.
func (c *FakeClock) NewTicker(d time.Duration) clock.Ticker {
	if d <= 0 {
		panic("testutil: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{
		ch:       make(chan time.Time, 1),
		next:     c.now.Add(d),
		interval: d,
	}
	c.tickers = append(c.tickers, t)
	c.changed.Broadcast()
	return &tickerHandle{clock: c, t: t}
}

type tickerHandle struct {
	clock *FakeClock
	t     *fakeTicker
}

func (h *tickerHandle) C() <-chan time.Time { return h.t.ch }

func (h *tickerHandle) Stop() {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	h.t.stopped = true
	h.clock.changed.Broadcast()
}

// Advance moves time forward by d and fires every due tick. A ticker whose
// buffered tick has not been consumed drops further ticks, matching
// time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.interval)
		}
	}
}

// WaitForTickers blocks until at least n unstopped tickers exist. Use it
// before Advance so a goroutine that creates its ticker asynchronously
// does not miss the first tick.
func (c *FakeClock) WaitForTickers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.changed.Wait()
	}
}

// ActiveTickers returns the number of unstopped tickers.
func (c *FakeClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) activeLocked() int {
	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}
