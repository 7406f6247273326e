// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
)

// Compile-time interface checks.
var (
	_ Transport = (*WebSocket)(nil)
	_ Conn      = (*webSocketConn)(nil)
)

// WebSocket dials ws:// and wss:// endpoints. One text frame carries
// one envelope. The library builds for js/wasm as well, where it
// drives the browser's native socket — the same Transport value works
// on both platforms, which is what keeps platform branching out of
// the session layer.
type WebSocket struct {
	// HTTPClient is used for the opening handshake. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Open performs the WebSocket handshake against the endpoint.
func (t *WebSocket) Open(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPClient: t.HTTPClient,
	})
	if err != nil {
		return nil, classify(err)
	}
	conn.SetReadLimit(maxFrameBytes)
	return &webSocketConn{conn: conn}, nil
}

type webSocketConn struct {
	conn *websocket.Conn
}

func (c *webSocketConn) Send(ctx context.Context, frame []byte) error {
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return classifyWebSocket(err)
	}
	return nil
}

func (c *webSocketConn) Receive(ctx context.Context) ([]byte, error) {
	_, frame, err := c.conn.Read(ctx)
	if err != nil {
		return nil, classifyWebSocket(err)
	}
	return frame, nil
}

func (c *webSocketConn) Close() error {
	// StatusNormalClosure tells the server this is a clean goodbye.
	// Close after close returns an error; the contract says Close is
	// idempotent, so swallow it.
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
	return nil
}

// classifyWebSocket maps close statuses onto transport kinds before
// falling back to the generic classifier. A MessageTooBig close is
// the peer overrunning our read limit — a framing violation.
func classifyWebSocket(err error) *Error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusMessageTooBig, websocket.StatusInvalidFramePayloadData, websocket.StatusProtocolError:
		return &Error{Kind: KindProtocol, Err: err}
	case -1:
		return classify(err)
	}
	return &Error{Kind: KindClosed, Err: err}
}
