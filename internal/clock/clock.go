// Package clock abstracts the time source used by the session coordinator so the
// one-shot sync timer and tick pacing can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the subset of the time package the coordinator needs
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers ticks on C. C has capacity 1; ticks are dropped if the
// consumer falls behind, matching time.Ticker.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns off the ticker
func (t *Ticker) Stop() { t.stop() }

// Real returns the wall clock
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}

// FakeClock is a manually advanced Clock. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	c        chan time.Time
	next     time.Time
	interval time.Duration
	stopped  bool
}

// Fake returns a FakeClock starting at initial
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{now: initial}
}

// Now returns the fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker that fires as Advance crosses its deadlines
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ft := &fakeTicker{
		c:        make(chan time.Time, 1),
		next:     c.now.Add(d),
		interval: d,
	}
	c.tickers = append(c.tickers, ft)
	return &Ticker{
		C: ft.c,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			ft.stopped = true
		},
	}
}

// Advance moves the clock forward by d and fires due tickers
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	live := c.tickers[:0]
	for _, ft := range c.tickers {
		if ft.stopped {
			continue
		}
		for !ft.next.After(c.now) {
			select {
			case ft.c <- ft.next:
			default:
			}
			ft.next = ft.next.Add(ft.interval)
		}
		live = append(live, ft)
	}
	c.tickers = live
}
