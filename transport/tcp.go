// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"
)

// Compile-time interface checks.
var (
	_ Transport = (*TCP)(nil)
	_ Conn      = (*tcpConn)(nil)
)

// TCP dials tcp:// endpoints and frames envelopes as newline-delimited
// JSON. This is the development and same-LAN transport — no TLS, no
// HTTP in the path, trivially scriptable with netcat.
type TCP struct {
	// DialTimeout caps connection establishment. Zero means only the
	// Open context's deadline applies.
	DialTimeout time.Duration
}

// Open connects to the endpoint's host:port.
func (t *TCP) Open(ctx context.Context, endpoint string) (Conn, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Err: fmt.Errorf("invalid endpoint %q: %w", endpoint, err)}
	}
	nc, err := (&net.Dialer{Timeout: t.DialTimeout}).DialContext(ctx, "tcp", parsed.Host)
	if err != nil {
		return nil, classify(err)
	}
	return newTCPConn(nc), nil
}

func newTCPConn(nc net.Conn) *tcpConn {
	return &tcpConn{conn: nc, reader: bufio.NewReaderSize(nc, 64*1024)}
}

type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader

	// partial holds the start of a line whose read was interrupted, so
	// a cancelled Receive loses nothing and the next call picks up
	// where it stopped.
	partial []byte

	writeMu sync.Mutex
	closed  sync.Once
}

func (c *tcpConn) Send(ctx context.Context, frame []byte) error {
	if bytes.ContainsRune(frame, '\n') {
		return &Error{Kind: KindProtocol, Err: fmt.Errorf("frame contains newline, unrepresentable in NDJSON framing")}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := c.conn.Write(append(append([]byte(nil), frame...), '\n')); err != nil {
		return classify(err)
	}
	return nil
}

func (c *tcpConn) Receive(ctx context.Context) ([]byte, error) {
	// Set or clear unconditionally: the cancellation watcher below may
	// have forced an immediate deadline on a previous call, and it must
	// not bleed into this one.
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}
	defer c.conn.SetReadDeadline(time.Time{})

	// A context cancelled mid-read unblocks the scanner by forcing an
	// immediate deadline. The watcher is torn down before returning so
	// a late cancellation cannot touch the next Receive.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetReadDeadline(time.Now())
		case <-watchDone:
		}
	}()

	for {
		chunk, err := c.reader.ReadSlice('\n')
		c.partial = append(c.partial, chunk...)
		if len(c.partial) > maxFrameBytes {
			return nil, &Error{Kind: KindProtocol, Err: fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, classify(ctx.Err())
			}
			if errors.Is(err, io.EOF) {
				if len(c.partial) > 0 {
					return nil, &Error{Kind: KindClosed, Err: io.ErrUnexpectedEOF}
				}
				// Clean EOF from the peer.
				return nil, &Error{Kind: KindClosed}
			}
			return nil, classify(err)
		}
		frame := append([]byte(nil), c.partial[:len(c.partial)-1]...)
		c.partial = c.partial[:0]
		return frame, nil
	}
}

func (c *tcpConn) Close() error {
	c.closed.Do(func() { c.conn.Close() })
	return nil
}
