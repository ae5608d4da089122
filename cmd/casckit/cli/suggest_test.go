// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition (counted as 2 edits)
		{"kitten", "sitting", 3},
		{"extract", "extrat", 1},
		{"list", "lst", 1},
		{"mount", "mont", 1},
		{"version", "versoin", 2},
	}

	for _, test := range tests {
		t.Run(test.a+"_"+test.b, func(t *testing.T) {
			got := levenshtein(test.a, test.b)
			if got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestLevenshtein_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"abc", "abd"},
		{"hello", "helo"},
		{"extract", "extrat"},
	}

	for _, pair := range pairs {
		forward := levenshtein(pair[0], pair[1])
		reverse := levenshtein(pair[1], pair[0])
		if forward != reverse {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d",
				pair[0], pair[1], forward, reverse)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "list"},
		{Name: "extract"},
		{Name: "info"},
		{Name: "mount"},
		{Name: "version"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"lst", "list"},        // missing letter
		{"listt", "list"},      // extra letter
		{"extrat", "extract"},  // missing letter
		{"exract", "extract"},  // missing letter
		{"nifo", "info"},       // transposition
		{"mont", "mount"},      // missing letter
		{"vrsion", "version"},  // missing letter
		{"zzzzzzzzz", ""},      // nothing close
		{"x", ""},              // too short to match well
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got := suggestCommand(test.input, commands)
			if got != test.want {
				t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestSuggestFlag(t *testing.T) {
	makeFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("mask", "*", "")
		flagSet.String("listfile", "", "")
		flagSet.String("limit", "", "")
		flagSet.String("locale", "all", "")
		flagSet.StringP("out", "o", "", "")
		flagSet.Bool("tree", false, "")
		flagSet.Bool("json", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "close typo with double dash",
			args: []string{"--msak"},
			want: "--mask",
		},
		{
			name: "close typo with single dash",
			args: []string{"-msak"},
			want: "--mask",
		},
		{
			name: "listfile typo",
			args: []string{"--listfle"},
			want: "--listfile",
		},
		{
			name: "limit typo",
			args: []string{"--limti"},
			want: "--limit",
		},
		{
			name: "nothing close",
			args: []string{"--zzzzzzzzz"},
			want: "",
		},
		{
			name: "no flags",
			args: []string{"/data/wow"},
			want: "",
		},
		{
			name: "flag with equals",
			args: []string{"--msak=interface/*"},
			want: "--mask",
		},
		{
			name: "defined shorthand is not a typo",
			args: []string{"-o"},
			want: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := suggestFlag(test.args, makeFlagSet())
			if got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
