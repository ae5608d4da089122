// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hydra1983/casckit/lib/version"
)

func TestVersion(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return Root().Execute([]string{"version"})
	})
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "casckit ") {
		t.Errorf("output = %q, want a casckit prefix", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return Root().Execute([]string{"version", "--json"})
	})
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}

	var info version.BuildInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if info.GoVersion == "" {
		t.Error("go_version should be filled in")
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("platform = %q, want os/arch", info.Platform)
	}
}
