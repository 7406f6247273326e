// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"net"
)

// Kind classifies a transport failure for the reconnect logic.
type Kind int

const (
	// KindClosed means the connection is gone: peer hangup, network
	// drop, or local Close. Drives a reconnect attempt.
	KindClosed Kind = iota + 1
	// KindTimeout means an operation exceeded its deadline while the
	// connection may still be alive.
	KindTimeout
	// KindProtocol means the peer violated framing (oversized or
	// malformed frame). The bytes inside a well-framed message are
	// never inspected here — that is the codec's concern.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	}
	return "unknown"
}

// Error is the one failure type transports report. Extract it with
// errors.As to branch on Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "transport: " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "transport: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a transport Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var transportErr *Error
	return errors.As(err, &transportErr) && transportErr.Kind == kind
}

// classify folds an underlying I/O error into a transport Error.
// Context deadline and net timeouts become KindTimeout; everything
// else on an established connection means the connection is unusable,
// which is KindClosed.
func classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindClosed, Err: err}
}
