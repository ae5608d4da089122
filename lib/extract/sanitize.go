// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package extract

import "strings"

// reservedChars are name characters rejected by common filesystems.
const reservedChars = `<>:"|?*`

// SanitizePath converts a storage entry name into a safe relative
// path, slash-separated. Separators (`/`, `\` and `:`) split the name
// into components; empty components and `.` drop; `..` becomes `__`
// so a hostile listing cannot climb out of the output directory;
// reserved characters and control bytes become `_`. A name with no
// usable components becomes "unnamed".
func SanitizePath(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '/' || r == '\\' || r == ':'
	})
	out := parts[:0]
	for _, p := range parts {
		switch p {
		case ".":
			continue
		case "..":
			out = append(out, "__")
			continue
		}
		out = append(out, sanitizeComponent(p))
	}
	if len(out) == 0 {
		return "unnamed"
	}
	return strings.Join(out, "/")
}

func sanitizeComponent(c string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, c)
}
