// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.3",
		GitCommit: "abc1234",
		BuildTime: "2026-01-01T00:00:00Z",
	}
	if got, want := info.String(), "1.2.3 (abc1234, 2026-01-01T00:00:00Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	info.GitDirty = true
	if got, want := info.String(), "1.2.3 (abc1234-dirty, 2026-01-01T00:00:00Z)"; got != want {
		t.Errorf("dirty String() = %q, want %q", got, want)
	}
}

func TestInfoDefaults(t *testing.T) {
	info := Info()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should be populated from the runtime")
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want GOOS/GOARCH form", info.Platform)
	}
}

func TestFullMentionsGoVersion(t *testing.T) {
	if !strings.Contains(Full(), "Go: ") {
		t.Errorf("Full() = %q, want Go version line", Full())
	}
}
