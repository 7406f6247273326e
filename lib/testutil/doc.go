// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds small test helpers shared across packages.
//
// The channel helpers ([Receive], [NoReceive], [Send], [Closed]) wrap
// the select-with-timeout pattern so that a test against the session
// run loop can never hang the whole suite: every channel interaction
// has a bounded wait and a descriptive failure message.
package testutil
