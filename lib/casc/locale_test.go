// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import "testing"

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in      string
		want    Locale
		wantErr bool
	}{
		{"", LocaleAll, false},
		{"all", LocaleAll, false},
		{"ALL", LocaleAll, false},
		{"none", LocaleNone, false},
		{"enUS", LocaleEnUS, false},
		{"enus", LocaleEnUS, false},
		{"enUS,deDE", LocaleEnUS | LocaleDeDE, false},
		{" enUS , deDE ", LocaleEnUS | LocaleDeDE, false},
		{"enUS,,deDE", LocaleEnUS | LocaleDeDE, false},
		{"klingon", 0, true},
		{"enUS,klingon", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLocale(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLocale(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLocale(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLocale(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocaleString(t *testing.T) {
	tests := []struct {
		in   Locale
		want string
	}{
		{LocaleAll, "all"},
		{LocaleNone, "none"},
		{LocaleEnUS, "enUS"},
		{LocaleEnUS | LocaleDeDE, "enUS,deDE"},
		{Locale(0x80000000), "0x80000000"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Locale(%#x).String() = %q, want %q", uint32(tt.in), got, tt.want)
		}
	}
}

func TestParseLocaleRoundtrip(t *testing.T) {
	for _, ln := range localeNames {
		mask, err := ParseLocale(ln.name)
		if err != nil {
			t.Errorf("ParseLocale(%q) failed: %v", ln.name, err)
			continue
		}
		if mask.String() != ln.name {
			t.Errorf("roundtrip %q -> %q", ln.name, mask.String())
		}
	}
}
