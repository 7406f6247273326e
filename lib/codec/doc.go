// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec wraps CBOR encoding with a fixed configuration so
// callers never import the CBOR library directly. Used by the prefs
// store for its on-disk format; the wire protocol itself is JSON and
// lives in package wire.
package codec
