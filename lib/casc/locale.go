// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"fmt"
	"strings"
)

// Locale is the engine's locale bitmask. File entries carry one
// ([FileEntry.LocaleFlags]); opens restrict matching to the mask
// passed in [Storage] options.
type Locale uint32

const (
	LocaleNone Locale = 0
	LocaleAll  Locale = 0xFFFFFFFF

	LocaleEnUS Locale = 0x00000002
	LocaleKoKR Locale = 0x00000004
	LocaleFrFR Locale = 0x00000010
	LocaleDeDE Locale = 0x00000020
	LocaleZhCN Locale = 0x00000040
	LocaleEsES Locale = 0x00000080
	LocaleZhTW Locale = 0x00000100
	LocaleEnGB Locale = 0x00000200
	LocaleEnCN Locale = 0x00000400
	LocaleEnTW Locale = 0x00000800
	LocaleEsMX Locale = 0x00001000
	LocaleRuRU Locale = 0x00002000
	LocalePtBR Locale = 0x00004000
	LocaleItIT Locale = 0x00008000
	LocalePtPT Locale = 0x00010000
)

// localeNames maps locale names (as they appear in build configs and
// on the command line) to mask bits, in mask order.
var localeNames = []struct {
	name string
	mask Locale
}{
	{"enUS", LocaleEnUS},
	{"koKR", LocaleKoKR},
	{"frFR", LocaleFrFR},
	{"deDE", LocaleDeDE},
	{"zhCN", LocaleZhCN},
	{"esES", LocaleEsES},
	{"zhTW", LocaleZhTW},
	{"enGB", LocaleEnGB},
	{"enCN", LocaleEnCN},
	{"enTW", LocaleEnTW},
	{"esMX", LocaleEsMX},
	{"ruRU", LocaleRuRU},
	{"ptBR", LocalePtBR},
	{"itIT", LocaleItIT},
	{"ptPT", LocalePtPT},
}

// ParseLocale converts a comma-separated locale list ("enUS,deDE")
// into a mask. "all" (or an empty string) is [LocaleAll]; "none" is
// [LocaleNone]. Name matching is case-insensitive; an unknown name is
// an error listing the valid names.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return LocaleAll, nil
	}
	if strings.EqualFold(s, "none") {
		return LocaleNone, nil
	}

	var mask Locale
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, ln := range localeNames {
			if strings.EqualFold(ln.name, part) {
				mask |= ln.mask
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown locale %q (valid: %s, all, none)", part, localeNameList())
		}
	}
	return mask, nil
}

// String renders the mask as a comma-separated name list, "all", or
// "none". Bits outside the named set render as a hex remainder.
func (l Locale) String() string {
	switch l {
	case LocaleAll:
		return "all"
	case LocaleNone:
		return "none"
	}

	var names []string
	rest := l
	for _, ln := range localeNames {
		if l&ln.mask != 0 {
			names = append(names, ln.name)
			rest &^= ln.mask
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func localeNameList() string {
	names := make([]string, len(localeNames))
	for i, ln := range localeNames {
		names[i] = ln.name
	}
	return strings.Join(names, ", ")
}
