// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the session layer depends on.
// Production code injects Real(); tests inject Fake() and advance time
// explicitly so heartbeat and backoff behavior is deterministic.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the fire time once
	// duration d has elapsed. If d <= 0 the channel receives
	// immediately. The timer cannot be stopped; callers that need
	// cancellation should discard the channel and ignore late fires.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if
	// d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1:
// if the consumer falls behind, ticks are dropped, not queued.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No ticks arrive on C after Stop returns.
// C is not closed.
func (t *Ticker) Stop() { t.stop() }
