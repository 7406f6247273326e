// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net/url"
)

// Transport opens connections to a stage server. Implementations
// differ only in wire mechanics (WebSocket, raw TCP, in-process pipe);
// the session layer is written against this interface and selects an
// implementation once, at construction, via [Pick].
type Transport interface {
	// Open dials the endpoint and returns a live connection. The
	// context bounds the dial only, not the connection's lifetime.
	Open(ctx context.Context, endpoint string) (Conn, error)
}

// Conn is one established, message-oriented connection. Frames are
// opaque byte slices; framing and parsing are split between the
// transport (framing) and package wire (parsing).
//
// Receive is a lazy, non-restartable sequence: call it repeatedly
// from one goroutine until it returns an error. Send may be called
// concurrently with Receive but not with itself. All failures are
// reported as [*Error].
type Conn interface {
	// Send writes one frame.
	Send(ctx context.Context, frame []byte) error

	// Receive blocks until the next inbound frame arrives.
	Receive(ctx context.Context) ([]byte, error)

	// Close tears the connection down. Idempotent; concurrent
	// Send and Receive calls unblock with a closed error.
	Close() error
}

// maxFrameBytes caps a single frame in either direction. World
// snapshots are the largest payloads on this protocol; 4 MiB leaves
// generous headroom while bounding memory on a hostile peer.
const maxFrameBytes = 4 << 20

// Pick chooses a Transport implementation from the endpoint scheme:
// ws/wss → WebSocket, tcp → TCP. This is the single point of
// platform/wire selection; nothing downstream branches on it.
func Pick(endpoint string) (Transport, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid endpoint %q: %w", endpoint, err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
		return &WebSocket{}, nil
	case "tcp":
		return &TCP{}, nil
	}
	return nil, fmt.Errorf("transport: unsupported endpoint scheme %q", parsed.Scheme)
}
