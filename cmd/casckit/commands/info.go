// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/casc"
)

type infoParams struct {
	CommonParams
	cli.JSONOutput
}

// storageReport is the info command's output document.
type storageReport struct {
	Path        string    `json:"path"`
	PathProduct string    `json:"path_product,omitempty"`
	Product     string    `json:"product"`
	Build       uint32    `json:"build"`
	LocalFiles  uint32    `json:"local_files"`
	TotalFiles  uint32    `json:"total_files"`
	Features    []string  `json:"features"`
	Tags        []tagInfo `json:"tags"`
}

type tagInfo struct {
	Name  string `json:"name"`
	Value uint32 `json:"value"`
}

func infoCommand() *cli.Command {
	params := &infoParams{}
	return &cli.Command{
		Name:    "info",
		Summary: "Show storage product, counts and capabilities",
		Description: "Report what a storage is: its product code and build number, how\n" +
			"many files it knows about and holds locally, its feature set, and\n" +
			"the tag table that entries reference through their tag masks.",
		Usage: "casckit info [storage-path] [flags]",
		Examples: []cli.Example{
			{Command: "casckit info /data/wow"},
			{Command: "casckit info /data/wow --json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", params)
		},
		Run: func(args []string) error {
			cfg, err := params.loadConfig()
			if err != nil {
				return err
			}
			logger, err := params.logger("info")
			if err != nil {
				return err
			}

			path, err := storagePath(args, cfg)
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

			report, err := buildReport(st)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(report); done {
				return err
			}
			renderReport(os.Stdout, report)
			return nil
		},
	}
}

// buildReport queries every info class of the open storage.
func buildReport(st *casc.Storage) (*storageReport, error) {
	product, err := st.Product()
	if err != nil {
		return nil, err
	}
	local, err := st.LocalFileCount()
	if err != nil {
		return nil, err
	}
	total, err := st.TotalFileCount()
	if err != nil {
		return nil, err
	}
	feats, err := st.Features()
	if err != nil {
		return nil, err
	}
	tags, err := st.Tags()
	if err != nil {
		return nil, err
	}
	pathProduct, err := st.PathProduct()
	if err != nil {
		return nil, err
	}

	report := &storageReport{
		Path:        st.Path(),
		PathProduct: pathProduct,
		Product:     product.Code,
		Build:       product.Build,
		LocalFiles:  local,
		TotalFiles:  total,
		Features:    feats.List(),
		Tags:        make([]tagInfo, 0, len(tags)),
	}
	if report.Features == nil {
		report.Features = []string{}
	}
	for _, tag := range tags {
		report.Tags = append(report.Tags, tagInfo{Name: tag.Name, Value: tag.Value})
	}
	return report, nil
}

func renderReport(w io.Writer, report *storageReport) {
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", report.Path)
	if report.PathProduct != "" {
		fmt.Fprintf(tw, "Path product:\t%s\n", report.PathProduct)
	}
	fmt.Fprintf(tw, "Product:\t%s\n", report.Product)
	fmt.Fprintf(tw, "Build:\t%d\n", report.Build)
	fmt.Fprintf(tw, "Files:\t%d local / %d total\n", report.LocalFiles, report.TotalFiles)
	features := "none"
	if len(report.Features) > 0 {
		features = strings.Join(report.Features, ", ")
	}
	fmt.Fprintf(tw, "Features:\t%s\n", features)
	tw.Flush()

	if len(report.Tags) > 0 {
		fmt.Fprintf(w, "\nTags:\n")
		tw = tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "  NAME\tVALUE\n")
		for _, tag := range report.Tags {
			fmt.Fprintf(tw, "  %s\t%d\n", tag.Name, tag.Value)
		}
		tw.Flush()
	}
}
