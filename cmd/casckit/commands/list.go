// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/listcache"
	"github.com/hydra1983/casckit/lib/pathtree"
)

type listParams struct {
	CommonParams
	cli.JSONOutput
	Mask     string `flag:"mask,m" desc:"file mask, {a,b} alternations allowed (default \"*\")"`
	ListFile string `flag:"listfile" desc:"external listfile supplying file names"`
	Limit    string `flag:"limit" desc:"entry cap, a number or \"all\" (default 1000)"`
	Locale   string `flag:"locale" desc:"locale filter, comma-separated names (default all)"`
	Cache    string `flag:"cache" desc:"cache listings: --cache, --cache=off or --cache=PATH"`
	Tree     bool   `flag:"tree,t" desc:"render as an indented tree"`
}

func listCommand() *cli.Command {
	params := &listParams{}
	return &cli.Command{
		Name:    "list",
		Summary: "Enumerate files in a storage",
		Description: "List the files a storage contains, filtered by mask and locale.\n\n" +
			"The flat table shows name, size, content key and local availability.\n" +
			"--tree folds the names into a directory tree instead, and --json\n" +
			"emits that tree as a machine-readable document.",
		Usage: "casckit list [storage-path] [flags]",
		Examples: []cli.Example{
			{
				Description: "List everything under interface/",
				Command:     `casckit list /data/wow --mask "interface/*"`,
			},
			{
				Description: "Full tree, with names supplied by an external listfile",
				Command:     "casckit list /data/wow --listfile names.csv --tree --limit all",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.FlagsFromParams("list", params)
			// A bare --cache selects the default cache location.
			flagSet.Lookup("cache").NoOptDefVal = "on"
			return flagSet
		},
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			logger, err := params.logger("list")
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

			st, err := openStorage(path, locale, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := casc.EnumerateOptions{
				Mask:     cmp.Or(params.Mask, "*"),
				ListFile: cmp.Or(params.ListFile, cfg.ListFile),
				Limit:    limit,
			}
			cachePath := resolveCachePath(cmp.Or(params.Cache, cfg.CachePath))
			listing, err := enumerateWithCache(st, logger, cachePath, opts, uint32(locale))
			if err != nil {
				return err
			}

			if len(listing.Entries) == 0 {
				fmt.Println("No entries matched.")
				return nil
			}

			if params.OutputJSON || params.Tree {
				tree := pathtree.Build(listing.Entries)
				if done, err := params.EmitJSON(tree); done {
					return err
				}
				renderTree(os.Stdout, tree)
			} else {
				renderListing(os.Stdout, listing)
			}

			fmt.Printf("\n%d entries, %s\n", len(listing.Entries), formatSize(listing.TotalSize()))
			if listing.LimitReached {
				fmt.Fprintln(os.Stderr, "entry limit reached; pass --limit all for the full listing")
			}
			return nil
		},
	}
}

// enumerateWithCache runs the enumeration, serving it from the listing
// cache when one is configured and the cached copy matches the
// storage's build. Cache trouble degrades to a plain enumeration.
func enumerateWithCache(st *casc.Storage, logger *slog.Logger, cachePath string, opts casc.EnumerateOptions, localeMask uint32) (*casc.Listing, error) {
	if cachePath == "" {
		return st.Enumerate(opts)
	}

	cache, err := listcache.Open(cachePath, logger)
	if err != nil {
		logger.Warn("listing cache unavailable", "path", cachePath, "error", err)
		return st.Enumerate(opts)
	}
	defer cache.Close()

	build, err := st.BuildNumber()
	if err != nil {
		logger.Warn("storage build unknown, skipping the listing cache", "error", err)
		return st.Enumerate(opts)
	}

	// Key on the absolute storage path so the same storage hits the
	// same records regardless of the working directory.
	storageKey := st.Path()
	if abs, err := filepath.Abs(storageKey); err == nil {
		storageKey = abs
	}
	req := listcache.Request{
		StoragePath: storageKey,
		Mask:        opts.Mask,
		ListFile:    opts.ListFile,
		Limit:       opts.Limit,
		LocaleMask:  localeMask,
	}

	if listing, ok := cache.Get(req, build); ok {
		logger.Debug("listing served from cache", "entries", len(listing.Entries))
		return listing, nil
	}
	listing, err := st.Enumerate(opts)
	if err != nil {
		return nil, err
	}
	cache.Put(req, build, listing)
	return listing, nil
}

// renderListing writes the flat table: one line per entry.
func renderListing(w io.Writer, listing *casc.Listing) {
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "NAME\tSIZE\tCKEY\tLOCAL\n")
	for i := range listing.Entries {
		e := &listing.Entries[i]
		ckey := e.CKey.String()
		if ckey == "" {
			ckey = "-"
		}
		local := "yes"
		if !e.Available {
			local = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, formatSize(e.Size), ckey, local)
	}
	tw.Flush()
}

// renderTree writes the indented directory tree. Directories get a
// trailing slash; files carry their size.
func renderTree(w io.Writer, root *pathtree.Node) {
	pathtree.Walk(root, func(n *pathtree.Node, depth int) {
		if depth == 0 {
			return
		}
		indent := strings.Repeat("  ", depth-1)
		if n.IsDir {
			fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			return
		}
		fmt.Fprintf(w, "%s%s (%s)\n", indent, n.Name, formatSize(n.Size))
	})
}
