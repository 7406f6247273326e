// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"

	"github.com/greenroom-live/greenroom/wire"
)

// StatusKind enumerates connection lifecycle states.
type StatusKind int

const (
	// StatusDisconnected is the initial state and the result of an
	// explicit Disconnect.
	StatusDisconnected StatusKind = iota
	// StatusConnecting means a dial and join are in flight.
	StatusConnecting
	// StatusConnected means a session is joined and live.
	StatusConnected
	// StatusReconnecting means the connection dropped and a backoff
	// delay is running before the next attempt.
	StatusReconnecting
	// StatusFailed is terminal until an explicit Retry.
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("StatusKind(%d)", int(k))
}

// Status is the connection state with its qualifiers. Exactly one
// Status holds at any instant; only the run loop transitions it.
type Status struct {
	Kind StatusKind
	// Attempt is the reconnect attempt number, ≥ 1 while
	// reconnecting, 0 otherwise. It resets only on reaching
	// Connected.
	Attempt int
	// Reason explains a Failed status.
	Reason string
}

func (s Status) String() string {
	switch s.Kind {
	case StatusReconnecting:
		return fmt.Sprintf("reconnecting(attempt %d)", s.Attempt)
	case StatusFailed:
		return fmt.Sprintf("failed: %s", s.Reason)
	}
	return s.Kind.String()
}

// Identity is the joined session's identity. It exists only while
// Status.Kind == StatusConnected.
type Identity struct {
	SessionID     string
	Role          wire.Role
	WorldSnapshot json.RawMessage
}
