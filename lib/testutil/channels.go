// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// Receive reads one value from ch within timeout or fails the test.
// Wraps the select-with-timeout safety valve so tests never hang on a
// channel that should have produced a value.
//
//	change := testutil.Receive(t, changes, time.Second, "first status change")
func Receive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for %s", what)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for %s", timeout, what)
	}
	panic("unreachable")
}

// NoReceive asserts ch stays silent for the full window. A closed
// channel also passes: nothing further can arrive on it.
func NoReceive[T any](t testing.TB, ch <-chan T, window time.Duration, what string) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected %s within %v: %+v", what, window, v)
		}
	case <-time.After(window):
	}
}

// Send writes v to ch within timeout or fails the test.
func Send[T any](t testing.TB, ch chan<- T, v T, timeout time.Duration, what string) {
	t.Helper()
	select {
	case ch <- v:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v sending %s", timeout, what)
	}
}

// Closed waits for ch to close (or deliver) within timeout or fails
// the test. Use for done channels that signal by closing.
func Closed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for %s", timeout, what)
	}
}
