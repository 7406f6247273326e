// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefs persists small cross-run preferences: the last
// server, role and world, so reconnecting to yesterday's table takes
// no flags. The backing file is deterministic CBOR written through
// an atomic rename on every change.
//
// The session layer never reads preferences; only the command-line
// front end consults them to pre-fill connection parameters.
package prefs
