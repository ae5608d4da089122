// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/extract"
)

type extractParams struct {
	CommonParams
	Mask      string `flag:"mask,m" desc:"file mask, {a,b} alternations allowed (default \"*\")"`
	ListFile  string `flag:"listfile" desc:"external listfile supplying file names"`
	Limit     string `flag:"limit" desc:"entry cap, a number or \"all\" (default 1000)"`
	Locale    string `flag:"locale" desc:"locale filter, comma-separated names (default all)"`
	OutDir    string `flag:"out,o" desc:"output directory (default output/extracted)"`
	ChunkSize string `flag:"chunk-size" desc:"read chunk size, bytes or a K/M/G suffix (default 1M)"`
	Workers   int    `flag:"workers" desc:"parallel extractions (default 1)"`
	Overwrite bool   `flag:"overwrite" desc:"replace files that already exist"`
	Verify    bool   `flag:"verify" desc:"check content hashes while writing"`
}

func extractCommand() *cli.Command {
	params := &extractParams{}
	return &cli.Command{
		Name:    "extract",
		Summary: "Extract files from a storage to disk",
		Description: "Copy the files matching the mask out of the storage, recreating\n" +
			"their directory layout under the output directory. Existing files\n" +
			"are skipped unless --overwrite is given; a failed entry is reported\n" +
			"and the run continues. Interrupting the run stops it after the\n" +
			"entry in progress.",
		Usage: "casckit extract [storage-path] [flags]",
		Examples: []cli.Example{
			{
				Description: "Extract every DBC table",
				Command:     `casckit extract /data/wow --mask "*.dbc" --out dump`,
			},
			{
				Description: "Verified parallel extraction of one directory",
				Command:     `casckit extract /data/wow --mask "sound/music/*" --verify --workers 4`,
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("extract", params)
		},
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			logger, err := params.logger("extract")
			if err != nil {
				return err
			}

			path, err := storagePath(args, cfg)
			if err != nil {
				return err
			}
			limit, err := parseLimit(cmp.Or(params.Limit, cfg.Limit))
			if err != nil {
				return err
			}
			locale, err := casc.ParseLocale(cmp.Or(params.Locale, cfg.Locale))
			if err != nil {
				return err
			}
			chunkSize, err := parseChunkSize(cmp.Or(params.ChunkSize, cfg.ChunkSize))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStorage(path, locale, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			listing, err := st.Enumerate(casc.EnumerateOptions{
				Mask:     cmp.Or(params.Mask, "*"),
				ListFile: cmp.Or(params.ListFile, cfg.ListFile),
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			if len(listing.Entries) == 0 {
				fmt.Println("No entries matched.")
				return nil
			}
			if listing.LimitReached {
				fmt.Fprintf(os.Stderr, "entry limit reached; extracting the first %d matches (pass --limit all for everything)\n",
					len(listing.Entries))
			}

			result, err := extract.Run(ctx, st, listing.Entries, extract.Options{
				OutDir:    cmp.Or(params.OutDir, cfg.OutDir),
				ChunkSize: chunkSize,
				Overwrite: params.Overwrite,
				Verify:    params.Verify,
				Workers:   params.Workers,
				Logger:    logger,
			})
			if result != nil {
				fmt.Println(result.Summary())
			}
			if err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
