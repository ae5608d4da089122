// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the casckit CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/casckit/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// Flag sets are usually built from tagged parameter structs with
// [FlagsFromParams]; embedding [JSONOutput] in a parameter struct adds
// the --json flag and the EmitJSON helper. A command that has already
// written its own output and only needs a non-zero exit returns
// [*ExitError]; main probes for the ExitCode method instead of
// printing the error.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
package cli
