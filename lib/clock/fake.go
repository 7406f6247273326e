// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to initial. Time moves only when
// Advance is called; pending timers and tickers whose deadlines fall
// within the advanced window fire in deadline order.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	pending    []*pendingFire
	registered *sync.Cond
}

type pendingFire struct {
	at      time.Time
	ch      chan time.Time
	period  time.Duration // non-zero for tickers
	stopped bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot fire at now+d. If d <= 0 the returned
// channel receives immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, &pendingFire{at: c.now.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// NewTicker registers a periodic fire every d. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fire := &pendingFire{at: c.now.Add(d), ch: make(chan time.Time, 1), period: d}
	c.pending = append(c.pending, fire)
	c.registered.Broadcast()

	return &Ticker{
		C: fire.ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			fire.stopped = true
		},
	}
}

// Advance moves the clock forward by d. Every pending fire whose
// deadline falls within the new window fires, in deadline order.
// Tickers reschedule and fire once per elapsed period; sends are
// non-blocking so an unread tick is dropped, matching time.Ticker.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		for _, fire := range due {
			select {
			case fire.ch <- fire.at:
			default:
			}
		}
	}
}

// takeDue removes fires due at or before target from the pending set,
// rescheduling tickers one period ahead.
func (c *FakeClock) takeDue(target time.Time) []*pendingFire {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, keep []*pendingFire
	for _, fire := range c.pending {
		if fire.stopped {
			continue
		}
		if fire.at.After(target) {
			keep = append(keep, fire)
			continue
		}
		due = append(due, &pendingFire{at: fire.at, ch: fire.ch})
		if fire.period > 0 {
			// Reschedule in place so the Ticker's stop func, which
			// captured this pointer, still controls future fires.
			fire.at = fire.at.Add(fire.period)
			keep = append(keep, fire)
		}
	}
	c.pending = keep
	return due
}

// BlockUntil waits until at least n timers or tickers are registered
// and not yet fired. Tests call this before Advance to close the race
// between the code under test registering a timer and the test
// advancing past its deadline.
func (c *FakeClock) BlockUntil(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.registered.Wait()
	}
}

func (c *FakeClock) activeLocked() int {
	count := 0
	for _, fire := range c.pending {
		if !fire.stopped {
			count++
		}
	}
	return count
}
