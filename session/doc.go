// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package session maintains a live connection to a Greenroom stage
// server: dialing, joining, heartbeat liveness, reconnection with
// exponential backoff, and the client-side state machines for
// directorial approval and asset-generation tracking.
//
// A Client runs all of its state on one internal goroutine. Inbound
// messages are applied strictly in arrival order, public methods
// enqueue intents onto the same goroutine, and observers receive
// post-transition snapshots through Subscribe. The transport is
// pluggable (see the transport package); the session layer never
// inspects endpoint schemes itself.
package session
