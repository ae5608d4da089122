// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Command casckit reads CASC storages: list their contents, extract
// files, report storage facts, mount the file tree. Run
// "casckit --help" for the command overview.
package main

import (
	"fmt"
	"os"

	"github.com/hydra1983/casckit/cmd/casckit/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		// ExitError means the command already reported its outcome and
		// only wants a specific exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
