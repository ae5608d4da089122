// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for casckit.
//
// Configuration is loaded from a single file specified by either the
// CASCKIT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search; without a file the built-in defaults
// apply. This keeps configuration deterministic and auditable.
//
// The file sets defaults for values every command would otherwise need
// on the command line: the storage path, the external list file, the
// extraction output directory and chunk size, the enumeration limit,
// the locale filter, and the listing cache location. Command-line
// flags always override file values.
//
// Variable expansion is performed on path fields after loading:
// ${VAR} and ${VAR:-default} patterns expand from the environment.
// No other environment variables override config values.
//
// This package depends on no other casckit packages.
package config
