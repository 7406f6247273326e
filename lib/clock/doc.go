// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for the session layer.
//
// The connection manager's heartbeat ticker, connect timeout, and
// reconnect backoff all run against a [Clock] instead of the time
// package directly. Production wiring injects [Real]; tests inject
// [Fake] and drive time with [FakeClock.Advance], making every timer
// interaction deterministic and instant.
//
// The surface is deliberately small: Now, After, and NewTicker are the
// only operations the session layer needs. One-shot timers are not
// stoppable; the session run loop drops the channel out of its select
// instead, which avoids Stop/fire races entirely.
package clock
