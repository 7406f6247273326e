// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the stage-server message protocol: one JSON
// envelope per frame, discriminated by a top-level "type" field.
//
// Envelopes come in two directions. [Client] values travel from this
// client to the server ([JoinSession], [PlayerAction], [Heartbeat],
// ...); [Server] values travel back ([SessionJoined], [SceneUpdate],
// [ApprovalRequired], [GenerationEvent], ...). Both are closed sets of
// plain structs tied together by unexported marker methods, so a
// switch over them is exhaustive by construction.
//
// [Encode] is total for well-formed client envelopes. [Decode]
// validates the discriminant against the known server set; a frame
// with an unrecognized tag yields a [*DecodeError] with Unknown set,
// which consumers treat as a dropped frame, never a dead stream — the
// server is free to grow new message types ahead of this client.
package wire
