// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand() *cli.Command {
	params := &versionParams{}
	return &cli.Command{
		Name:    "version",
		Summary: "Show version information",
		Usage:   "casckit version [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", params)
		},
		Run: func(args []string) error {
			if done, err := params.EmitJSON(version.Info()); done {
				return err
			}
			fmt.Printf("casckit %s\n", version.Full())
			return nil
		},
	}
}
