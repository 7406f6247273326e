// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("timer fired before Advance")
	default:
	}

	c.Advance(4 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(1 * time.Second)
	select {
	case at := <-ch:
		if !at.Equal(epoch.Add(5 * time.Second)) {
			t.Errorf("fire time = %v, want %v", at, epoch.Add(5*time.Second))
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTickerFiresPerPeriod(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(10 * time.Second)
	defer ticker.Stop()

	c.Advance(10 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after one period")
	}

	// A multi-period advance delivers at most one buffered tick; the
	// overflow is dropped like time.Ticker.
	c.Advance(30 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after multi-period advance")
	}
	select {
	case <-ticker.C:
		t.Fatal("overflow tick was queued, want dropped")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()

	c.Advance(5 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeNowTracksAdvance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Minute)
	if got := c.Now(); !got.Equal(epoch.Add(90 * time.Minute)) {
		t.Errorf("Now() = %v, want %v", got, epoch.Add(90*time.Minute))
	}
}

func TestFakeBlockUntil(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.BlockUntil(1)
		close(done)
	}()

	c.After(time.Second)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BlockUntil did not observe the registered timer")
	}
}
