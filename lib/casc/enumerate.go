// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"fmt"

	"github.com/hydra1983/casckit/lib/mask"
)

// Enumeration limit values.
const (
	// DefaultLimit is the cap callers apply when the user did not
	// choose one.
	DefaultLimit = 1000

	// NoLimit disables the cap (any negative limit does).
	NoLimit = -1
)

// EnumerateOptions configures [Storage.Enumerate].
type EnumerateOptions struct {
	// Mask is the search mask, possibly containing {a,b,c} brace
	// groups. Empty means "*".
	Mask string

	// ListFile optionally names an external listfile supplying file
	// names for storages without an embedded name source.
	ListFile string

	// Limit caps the number of entries across all expanded masks.
	// Zero returns an empty listing without touching the engine;
	// negative means unlimited. [DefaultLimit] is the conventional
	// cap.
	Limit int
}

// Listing is the result of an enumeration: deduplicated entries in
// first-seen order.
type Listing struct {
	// Entries are the matched files, first occurrence of each name.
	Entries []FileEntry

	// LimitReached reports that the limit stopped the enumeration;
	// more entries may exist.
	LimitReached bool
}

// TotalSize sums the sizes of all entries.
func (l *Listing) TotalSize() uint64 {
	var total uint64
	for i := range l.Entries {
		total += l.Entries[i].Size
	}
	return total
}

// Enumerate expands the mask and runs one find iteration per expanded
// alternative, merging results into a single listing. Duplicate names
// keep their first-seen entry and do not consume limit budget. A
// failure on any alternative fails the whole enumeration; partial
// listings are never returned.
func (s *Storage) Enumerate(opts EnumerateOptions) (*Listing, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if opts.Limit == 0 {
		return &Listing{}, nil
	}

	pattern := opts.Mask
	if pattern == "" {
		pattern = "*"
	}
	masks, err := mask.Expand(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding mask %q: %w", pattern, err)
	}

	listing := &Listing{}
	seen := make(map[string]struct{})
	remaining := opts.Limit

	for _, m := range masks {
		if remaining == 0 {
			break
		}
		if err := s.enumerateOne(m, opts.ListFile, seen, &remaining, listing); err != nil {
			return nil, err
		}
	}
	listing.LimitReached = remaining == 0

	s.logger.Debug("enumeration complete",
		"mask", pattern,
		"alternatives", len(masks),
		"entries", len(listing.Entries),
		"limitReached", listing.LimitReached)
	return listing, nil
}

// enumerateOne drains a single expanded mask into the listing,
// decrementing remaining for each genuinely new entry. remaining
// never decrements past zero; negative means unlimited.
func (s *Storage) enumerateOne(m, listFile string, seen map[string]struct{}, remaining *int, listing *Listing) error {
	fnd := s.NewFinder(m, listFile)
	for *remaining != 0 && fnd.Scan() {
		e := fnd.Entry()
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		listing.Entries = append(listing.Entries, e)
		if *remaining > 0 {
			*remaining--
		}
	}

	err := fnd.Err()
	closeErr := fnd.Close()
	if err != nil {
		return fmt.Errorf("enumerating mask %q: %w", m, err)
	}
	if closeErr != nil {
		return fmt.Errorf("enumerating mask %q: %w", m, closeErr)
	}
	return nil
}
