// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"sync"
)

// Compile-time interface check.
var _ Conn = (*pipeConn)(nil)

// Pipe returns an in-process connected pair. Frames written to one
// end arrive at the other, in order. Closing either end fails all
// pending and future operations on both with KindClosed, mirroring a
// dropped socket. Tests use the far end to play the stage server
// without any network.
func Pipe() (client, server Conn) {
	done := make(chan struct{})
	clientToServer := make(chan []byte, 64)
	serverToClient := make(chan []byte, 64)

	shared := &pipeShared{done: done}
	return &pipeConn{shared: shared, in: serverToClient, out: clientToServer},
		&pipeConn{shared: shared, in: clientToServer, out: serverToClient}
}

type pipeShared struct {
	done      chan struct{}
	closeOnce sync.Once
}

type pipeConn struct {
	shared *pipeShared
	in     <-chan []byte
	out    chan<- []byte
}

func (c *pipeConn) Send(ctx context.Context, frame []byte) error {
	// Copy so the sender can reuse its buffer after Send returns.
	owned := append([]byte(nil), frame...)
	select {
	case c.out <- owned:
		return nil
	case <-c.shared.done:
		return &Error{Kind: KindClosed, Err: errors.New("pipe closed")}
	case <-ctx.Done():
		return classify(ctx.Err())
	}
}

func (c *pipeConn) Receive(ctx context.Context) ([]byte, error) {
	// Drain frames that were in flight before the pipe closed — a
	// real socket delivers buffered data ahead of the close too.
	select {
	case frame := <-c.in:
		return frame, nil
	default:
	}
	select {
	case frame := <-c.in:
		return frame, nil
	case <-c.shared.done:
		return nil, &Error{Kind: KindClosed, Err: errors.New("pipe closed")}
	case <-ctx.Done():
		return nil, classify(ctx.Err())
	}
}

func (c *pipeConn) Close() error {
	c.shared.closeOnce.Do(func() { close(c.shared.done) })
	return nil
}
