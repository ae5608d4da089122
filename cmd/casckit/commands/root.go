// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the casckit command tree. Each command
// lives in its own file and resolves its inputs the same way: flag
// values win, then the configuration file, then built-in defaults.
// Storage-backed commands obtain their engine through [NewEngine].
package commands

import (
	"github.com/hydra1983/casckit/cmd/casckit/cli"
)

// Root returns the root command with all subcommands registered.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "casckit",
		Summary: "Read game data out of CASC storages",
		Description: "casckit reads CASC storages, the content-addressed archives games\n" +
			"keep their data in. It lists what a storage contains, extracts\n" +
			"files to disk, reports storage facts, and mounts the file tree as\n" +
			"a read-only filesystem.",
		Usage: "casckit <command> [flags]",
		Examples: []cli.Example{
			{Command: `casckit list /data/wow --mask "interface/*"`},
			{Command: `casckit extract /data/wow --mask "*.dbc" --out dump`},
			{Command: "casckit info /data/wow --json"},
		},
		Subcommands: []*cli.Command{
			listCommand(),
			extractCommand(),
			infoCommand(),
			mountCommand(),
			versionCommand(),
		},
	}
}
