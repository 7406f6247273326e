// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport abstracts the socket under the session protocol.
//
// A [Transport] opens message-oriented [Conn] values; the session
// layer never sees what is underneath. Three implementations exist:
//
//   - [WebSocket] — ws/wss endpoints via github.com/coder/websocket.
//     The same code drives the browser's native socket under js/wasm.
//   - [TCP] — tcp endpoints with newline-delimited JSON framing, for
//     development and same-LAN play.
//   - [Pipe] — an in-process pair for tests.
//
// [Pick] selects an implementation from the endpoint scheme exactly
// once, at construction.
//
// All failures surface as [*Error] with a [Kind] of closed, timeout,
// or protocol. Transports guarantee framing only; they never parse
// frame contents and never panic on garbage bytes — decoding is
// package wire's job.
package transport
