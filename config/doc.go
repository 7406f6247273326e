// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Greenroom
// client.
//
// Configuration is loaded from a single YAML file specified by:
//   - GREENROOM_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery; without a file the
// defaults apply unchanged. Unknown keys in the file are errors.
package config
