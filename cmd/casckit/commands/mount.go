// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package commands

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/cascfs"
	"github.com/hydra1983/casckit/lib/config"
)

type mountParams struct {
	CommonParams
	Mask       string `flag:"mask,m" desc:"file mask, {a,b} alternations allowed (default \"*\")"`
	ListFile   string `flag:"listfile" desc:"external listfile supplying file names"`
	AllowOther bool   `flag:"allow-other" desc:"let other users read the mount"`
	Debug      bool   `flag:"debug" desc:"log the FUSE request stream"`
}

func mountCommand() *cli.Command {
	params := &mountParams{}
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount a storage as a read-only filesystem",
		Description: "Present the storage's file tree at a mountpoint over FUSE. The\n" +
			"whole tree is enumerated up front; file content is read from the\n" +
			"storage on demand. Ctrl-C (or unmounting externally) ends the\n" +
			"command.",
		Usage: "casckit mount [storage-path] <mountpoint> [flags]",
		Examples: []cli.Example{
			{Command: "casckit mount /data/wow /mnt/wow"},
			{
				Description: "Mount one subtree for other users",
				Command:     `casckit mount /data/wow /mnt/wow --mask "interface/*" --allow-other`,
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("mount", params)
		},
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			logger, err := params.logger("mount")
			if err != nil {
				return err
			}

			path, mountpoint, err := mountArgs(args, cfg)
			if err != nil {
				return err
			}
			locale, err := casc.ParseLocale(cfg.Locale)
			if err != nil {
				return err
			}

			st, err := openStorage(path, locale, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			listing, err := st.Enumerate(casc.EnumerateOptions{
				Mask:     cmp.Or(params.Mask, "*"),
				ListFile: cmp.Or(params.ListFile, cfg.ListFile),
				Limit:    casc.NoLimit,
			})
			if err != nil {
				return err
			}

			server, err := cascfs.Mount(mountpoint, st, listing, cascfs.Options{
				AllowOther: params.AllowOther,
				Debug:      params.Debug,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				// Either a signal arrived or the serve loop already
				// ended; unmounting twice is harmless.
				if err := server.Unmount(); err != nil {
					logger.Debug("unmount", "error", err)
				}
			}()

			fmt.Printf("mounted %s at %s (%d entries)\n", path, mountpoint, len(listing.Entries))
			server.Wait()
			return nil
		},
	}
}

// mountArgs resolves the storage path and mountpoint. With a single
// argument the storage comes from the configuration and the argument
// is the mountpoint.
func mountArgs(args []string, cfg *config.Config) (string, string, error) {
	switch {
	case len(args) > 2:
		return "", "", fmt.Errorf("unexpected argument %q", args[2])
	case len(args) == 2:
		return args[0], args[1], nil
	case len(args) == 1 && cfg.Storage != "":
		return cfg.Storage, args[0], nil
	case len(args) == 1:
		return "", "", errors.New("storage path required (pass it as an argument or set \"storage\" in the config)")
	}
	return "", "", errors.New("mountpoint required")
}
