// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the default values commands start from. Every field
// maps to a command-line flag; an empty field means "no file default"
// and leaves the built-in flag default in place.
type Config struct {
	// Storage is the default storage path for commands invoked
	// without one.
	Storage string `yaml:"storage"`

	// ListFile is the external name list passed to enumerations.
	ListFile string `yaml:"listfile"`

	// OutDir is the extraction output directory.
	OutDir string `yaml:"out_dir"`

	// ChunkSize is the extraction chunk size in the CLI's size
	// syntax: plain bytes or a K/M/G suffix ("1M", "512K").
	ChunkSize string `yaml:"chunk_size"`

	// Limit is the enumeration entry cap: an integer, or "all" to
	// disable the cap.
	Limit string `yaml:"limit"`

	// Locale is the locale filter: comma-separated locale names
	// ("enUS,deDE") or "all".
	Locale string `yaml:"locale"`

	// CachePath is the listing cache database location: a database
	// path, "on" for the default location, "off" to disable. Empty
	// leaves the cache off unless --cache asks for it.
	CachePath string `yaml:"cache_path"`
}

// Default returns the built-in defaults. These mirror the library
// defaults (enumeration limit, extraction chunk size and output
// directory) so that the whole default surface is visible in one
// place.
func Default() *Config {
	return &Config{
		OutDir:    filepath.Join("output", "extracted"),
		ChunkSize: "1M",
		Limit:     "1000",
		Locale:    "all",
	}
}

// Load returns the configuration from the file named by the
// CASCKIT_CONFIG environment variable, or the defaults when the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("CASCKIT_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. File values
// replace defaults field by field; unset fields keep their defaults.
// ${VAR} references in path fields are expanded afterwards.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path-valued fields.
func (c *Config) expandVariables() {
	c.Storage = expandVars(c.Storage)
	c.ListFile = expandVars(c.ListFile)
	c.OutDir = expandVars(c.OutDir)
	c.CachePath = expandVars(c.CachePath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the fields whose syntax the file can get wrong.
// Locale names and size suffixes are validated where they are parsed,
// by the flag layer.
func (c *Config) Validate() error {
	var errs []error

	if c.Limit != "" && c.Limit != "all" {
		if _, err := strconv.Atoi(c.Limit); err != nil {
			errs = append(errs, fmt.Errorf("limit must be an integer or \"all\", got %q", c.Limit))
		}
	}
	if c.OutDir == "" {
		errs = append(errs, fmt.Errorf("out_dir must not be empty"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
