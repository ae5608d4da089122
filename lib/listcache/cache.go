// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package listcache persists enumeration results between runs.
//
// Enumerating a large storage walks every index entry the mask
// touches, which can take seconds on cold caches. The listing cache
// stores finished listings in a small bbolt database keyed by the
// exact request (storage path, mask, listfile, limit, locale) so a
// repeat of the same listing is a single read.
//
// Entries are validated against the storage's build number on the way
// out: patching a storage changes its build, and a listing taken from
// an older build silently drops or renames files. A stale entry is a
// miss and is deleted lazily.
package listcache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	bolt "go.etcd.io/bbolt"

	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/codec"
)

var listingsBucket = []byte("listings")

// envelopeVersion is bumped when the stored envelope layout changes.
// Entries with any other version are misses.
const envelopeVersion = 1

// cacheDomainKey is the 32-byte BLAKE3 key for cache record keys. The
// value is the ASCII domain string zero-padded to 32 bytes, so the key
// is inspectable in hex dumps while keeping keyed-mode domain
// separation. Changing it invalidates every existing cache file.
var cacheDomainKey = [32]byte{
	'c', 'a', 's', 'c', 'k', 'i', 't', ' ', 'l', 'i', 's', 't', 'i', 'n', 'g', ' ',
	'c', 'a', 'c', 'h', 'e', ' ', 'v', '1', 0, 0, 0, 0, 0, 0, 0, 0,
}

// Cache is a persistent listing store backed by a bbolt database.
// Safe for concurrent use.
type Cache struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening listing cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(listingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing listing cache: %w", err)
	}
	return &Cache{db: db, logger: logger}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// DefaultPath returns the standard cache location. Honors
// XDG_CACHE_HOME, falling back to ~/.cache.
func DefaultPath() string {
	cacheDirectory := os.Getenv("XDG_CACHE_HOME")
	if cacheDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "casckit-listings.db")
		}
		cacheDirectory = filepath.Join(homeDirectory, ".cache")
	}
	return filepath.Join(cacheDirectory, "casckit", "listings.db")
}

// Request identifies one enumeration for caching purposes. Two
// requests with identical fields against the same storage build
// produce the same listing.
type Request struct {
	StoragePath string
	Mask        string
	ListFile    string
	Limit       int
	LocaleMask  uint32
}

// key derives the cache record key: a keyed BLAKE3 digest over the
// canonical request tuple.
func (r Request) key() []byte {
	hasher, err := blake3.NewKeyed(cacheDomainKey[:])
	if err != nil {
		panic("listcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	fmt.Fprintf(hasher, "%s\n%s\n%s\n%d\n%d", r.StoragePath, r.Mask, r.ListFile, r.Limit, r.LocaleMask)
	return hasher.Sum(nil)
}

// envelope is the stored CBOR value wrapping one listing.
type envelope struct {
	Version      int              `json:"v"`
	Build        uint32           `json:"build"`
	Created      int64            `json:"created"`
	LimitReached bool             `json:"limit_reached"`
	Entries      []casc.FileEntry `json:"entries"`
}

// Get returns the cached listing for req, or (nil, false) on a miss.
// Entries written by a different envelope version or storage build are
// misses and are deleted.
func (c *Cache) Get(req Request, build uint32) (*casc.Listing, bool) {
	key := req.key()

	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(listingsBucket).Get(key); data != nil {
			raw = make([]byte, len(data))
			copy(raw, data)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false
	}

	payload, err := decompress(raw)
	if err != nil {
		c.logger.Warn("dropping unreadable listing cache entry", "error", err)
		c.delete(key)
		return nil, false
	}

	var env envelope
	if err := codec.Unmarshal(payload, &env); err != nil {
		c.logger.Warn("dropping undecodable listing cache entry", "error", err)
		c.delete(key)
		return nil, false
	}

	if env.Version != envelopeVersion || env.Build != build {
		c.logger.Debug("stale listing cache entry",
			"cached_version", env.Version,
			"cached_build", env.Build,
			"build", build)
		c.delete(key)
		return nil, false
	}

	return &casc.Listing{Entries: env.Entries, LimitReached: env.LimitReached}, true
}

// Put stores a listing best-effort. Failures are logged and swallowed:
// a broken cache must never fail the listing that produced the data.
func (c *Cache) Put(req Request, build uint32, listing *casc.Listing) {
	env := envelope{
		Version:      envelopeVersion,
		Build:        build,
		Created:      time.Now().Unix(),
		LimitReached: listing.LimitReached,
		Entries:      listing.Entries,
	}
	payload, err := codec.Marshal(env)
	if err != nil {
		c.logger.Warn("encoding listing cache entry failed", "error", err)
		return
	}
	stored := compress(payload)

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(listingsBucket).Put(req.key(), stored)
	})
	if err != nil {
		c.logger.Warn("writing listing cache entry failed", "error", err)
		return
	}
	c.logger.Debug("cached listing",
		"entries", len(listing.Entries),
		"payload_bytes", len(payload),
		"stored_bytes", len(stored))
}

func (c *Cache) delete(key []byte) {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(listingsBucket).Delete(key)
	})
	if err != nil {
		c.logger.Debug("deleting listing cache entry failed", "error", err)
	}
}
