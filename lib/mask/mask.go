// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package mask expands search masks containing {a,b,c} brace groups
// into the flat list of alternatives a storage engine can match
// directly. Expansion is purely textual; the engine's own wildcard
// characters pass through untouched.
package mask

import (
	"errors"
	"strings"
)

// MaxExpansion caps the number of masks one expansion may produce. A
// mask with many stacked groups multiplies alternatives; the cap
// keeps a hostile mask from allocating without bound.
const MaxExpansion = 10000

// ErrTooManyMasks is returned when an expansion exceeds
// [MaxExpansion].
var ErrTooManyMasks = errors.New("mask expands to too many alternatives")

// Expand expands every brace group in the mask, left to right, into
// the deduplicated list of alternatives in first-encounter order.
//
// A group's alternatives are split on top-level commas only; commas
// inside a nested group belong to that group. An opening brace with
// no matching close is literal text: the whole mask passes through
// unexpanded. A mask without braces expands to itself.
func Expand(m string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	if err := expandInto(m, &out, seen); err != nil {
		return nil, err
	}
	return out, nil
}

func expandInto(m string, out *[]string, seen map[string]struct{}) error {
	open := strings.IndexByte(m, '{')
	if open < 0 {
		return emit(m, out, seen)
	}

	// Find the matching close brace and the top-level comma
	// positions inside the group, tracking nesting depth.
	closeAt := -1
	var commas []int
	depth := 0
	for i := open; i < len(m); i++ {
		switch m[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				closeAt = i
			}
		case ',':
			if depth == 1 {
				commas = append(commas, i)
			}
		}
		if closeAt >= 0 {
			break
		}
	}
	if closeAt < 0 {
		// Unterminated group: the brace is literal.
		return emit(m, out, seen)
	}

	prefix := m[:open]
	suffix := m[closeAt+1:]

	start := open + 1
	for _, comma := range commas {
		if err := expandInto(prefix+m[start:comma]+suffix, out, seen); err != nil {
			return err
		}
		start = comma + 1
	}
	return expandInto(prefix+m[start:closeAt]+suffix, out, seen)
}

func emit(m string, out *[]string, seen map[string]struct{}) error {
	if _, dup := seen[m]; dup {
		return nil
	}
	if len(*out) >= MaxExpansion {
		return ErrTooManyMasks
	}
	seen[m] = struct{}{}
	*out = append(*out, m)
	return nil
}
