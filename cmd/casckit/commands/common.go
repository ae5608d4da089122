// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hydra1983/casckit/cmd/casckit/cli"
	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/config"
	"github.com/hydra1983/casckit/lib/extract"
	"github.com/hydra1983/casckit/lib/listcache"
)

// NewEngine returns the storage engine commands open storages with.
// The default build carries no engine; an engine binding replaces this
// variable from its init function, and tests substitute the in-memory
// fake.
var NewEngine = func() (casc.Engine, error) {
	return nil, errors.New("no storage engine in this build")
}

// CommonParams carries the flags every storage command accepts. Embed
// it in a command's params struct to pick them up.
type CommonParams struct {
	Config   string `flag:"config" desc:"config file (default $CASCKIT_CONFIG)"`
	LogLevel string `flag:"log-level" desc:"log level: debug, info, warn, error" default:"info"`
}

// loadConfig resolves this invocation's configuration: the --config
// file when given, otherwise CASCKIT_CONFIG, otherwise the built-in
// defaults.
func (p *CommonParams) loadConfig() (*config.Config, error) {
	if p.Config != "" {
		return config.LoadFile(p.Config)
	}
	return config.Load()
}

// logger builds the command logger at the --log-level level, tagged
// with the command name.
func (p *CommonParams) logger(command string) (*slog.Logger, error) {
	level, err := cli.ParseLevel(p.LogLevel)
	if err != nil {
		return nil, err
	}
	return cli.NewCommandLogger(level).With("command", command), nil
}

// storagePath resolves the storage path from the positional arguments,
// falling back to the configured default.
func storagePath(args []string, cfg *config.Config) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("unexpected argument %q", args[1])
	case len(args) == 1:
		return args[0], nil
	case cfg.Storage != "":
		return cfg.Storage, nil
	}
	return "", errors.New("storage path required (pass it as an argument or set \"storage\" in the config)")
}

// openStorage opens the storage at path through the process engine,
// with the locale restriction applied.
func openStorage(path string, locale casc.Locale, logger *slog.Logger) (*casc.Storage, error) {
	eng, err := NewEngine()
	if err != nil {
		return nil, err
	}
	return casc.Open(eng, path, casc.WithLogger(logger), casc.WithLocale(locale))
}

// parseLimit converts a --limit value to an enumeration limit: "all"
// or any negative number lifts the cap, other integers cap the
// listing.
func parseLimit(s string) (int, error) {
	if strings.EqualFold(s, "all") {
		return casc.NoLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q (want a number or \"all\")", s)
	}
	if n < 0 {
		return casc.NoLimit, nil
	}
	return n, nil
}

// parseChunkSize converts a --chunk-size value to bytes. Plain digits
// are bytes; a K, M or G suffix (optionally followed by B) scales by
// binary units.
func parseChunkSize(s string) (int, error) {
	t := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "B")
	shift := 0
	switch {
	case strings.HasSuffix(t, "K"):
		shift, t = 10, strings.TrimSuffix(t, "K")
	case strings.HasSuffix(t, "M"):
		shift, t = 20, strings.TrimSuffix(t, "M")
	case strings.HasSuffix(t, "G"):
		shift, t = 30, strings.TrimSuffix(t, "G")
	}
	n, err := strconv.Atoi(t)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid chunk size %q (examples: 65536, 512K, 1M)", s)
	}
	if n > extract.MaxChunk>>shift {
		return 0, fmt.Errorf("chunk size %q exceeds the %d byte maximum", s, extract.MaxChunk)
	}
	return n << shift, nil
}

// resolveCachePath interprets the merged cache setting: "" and "off"
// disable caching, "on" selects the default location, anything else is
// the database path itself.
func resolveCachePath(setting string) string {
	switch setting {
	case "", "off":
		return ""
	case "on":
		return listcache.DefaultPath()
	default:
		return setting
	}
}

// formatSize renders a byte count in human units.
func formatSize(size uint64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(size)/float64(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
