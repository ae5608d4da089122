// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !darwin

package commands

import (
	"errors"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
)

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount a storage as a read-only filesystem",
		Usage:   "casckit mount [storage-path] <mountpoint> [flags]",
		Run: func(args []string) error {
			return errors.New("mount requires FUSE, which this platform does not provide")
		},
	}
}
