// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package listcache

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/codec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "listings.db"), testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleListing() *casc.Listing {
	return &casc.Listing{
		Entries: []casc.FileEntry{
			{Name: "interface/icons/spell.blp", Size: 1024, CKey: casc.Key{0x01, 0x02}, Available: true},
			{Name: "sound/music/intro.mp3", Size: 2048, CKey: casc.Key{0x03, 0x04}},
			{Name: "toc.txt", Size: 64, Available: true},
		},
		LimitReached: true,
	}
}

func sampleRequest() Request {
	return Request{
		StoragePath: "/data/storage",
		Mask:        "interface/*",
		Limit:       1000,
		LocaleMask:  0x2,
	}
}

// storedRecord reads the raw bytes the cache persisted for req.
func storedRecord(t *testing.T, cache *Cache, req Request) []byte {
	t.Helper()
	var raw []byte
	err := cache.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(listingsBucket).Get(req.key()); data != nil {
			raw = make([]byte, len(data))
			copy(raw, data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reading stored record: %v", err)
	}
	return raw
}

// plantRecord writes raw bytes under req's key, bypassing Put.
func plantRecord(t *testing.T, cache *Cache, req Request, raw []byte) {
	t.Helper()
	err := cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(listingsBucket).Put(req.key(), raw)
	})
	if err != nil {
		t.Fatalf("planting record: %v", err)
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()
	listing := sampleListing()

	cache.Put(req, 61582, listing)

	got, ok := cache.Get(req, 61582)
	if !ok {
		t.Fatal("Get missed immediately after Put")
	}
	if !got.LimitReached {
		t.Error("LimitReached not preserved")
	}
	if len(got.Entries) != len(listing.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(listing.Entries))
	}
	for i, want := range listing.Entries {
		e := got.Entries[i]
		if e.Name != want.Name || e.Size != want.Size || e.CKey != want.CKey || e.Available != want.Available {
			t.Errorf("entry %d = %+v, want %+v", i, e, want)
		}
	}
}

func TestGetEmptyCache(t *testing.T) {
	cache := openCache(t)

	if _, ok := cache.Get(sampleRequest(), 61582); ok {
		t.Error("Get on an empty cache should miss")
	}
}

func TestGetDifferentRequest(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()
	cache.Put(req, 61582, sampleListing())

	other := req
	other.Mask = "sound/*"
	if _, ok := cache.Get(other, 61582); ok {
		t.Error("Get with a different mask should miss")
	}

	other = req
	other.Limit = 50
	if _, ok := cache.Get(other, 61582); ok {
		t.Error("Get with a different limit should miss")
	}
}

func TestGetBuildMismatch(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()
	cache.Put(req, 61582, sampleListing())

	if _, ok := cache.Get(req, 61583); ok {
		t.Fatal("Get with a newer build should miss")
	}

	// The stale entry is deleted on the way out, so even the original
	// build misses now.
	if _, ok := cache.Get(req, 61582); ok {
		t.Error("stale entry should have been deleted by the mismatched Get")
	}
	if raw := storedRecord(t, cache, req); raw != nil {
		t.Error("stale record still present in the database")
	}
}

func TestGetEnvelopeVersionMismatch(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()

	env := envelope{Version: envelopeVersion + 1, Build: 61582, Entries: sampleListing().Entries}
	payload, err := codec.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	plantRecord(t, cache, req, compress(payload))

	if _, ok := cache.Get(req, 61582); ok {
		t.Error("envelope from a future version should miss")
	}
	if raw := storedRecord(t, cache, req); raw != nil {
		t.Error("incompatible record should have been deleted")
	}
}

func TestGetCorruptRecord(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()

	// Valid zstd tag, garbage frame.
	plantRecord(t, cache, req, []byte{compressionZstd, 0xde, 0xad, 0xbe, 0xef})

	if _, ok := cache.Get(req, 61582); ok {
		t.Fatal("corrupt record should miss")
	}
	if raw := storedRecord(t, cache, req); raw != nil {
		t.Error("corrupt record should have been deleted")
	}
}

func TestGetUndecodablePayload(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()

	// Decompresses fine, but the payload is not CBOR.
	plantRecord(t, cache, req, rawRecord([]byte{0xff, 0xfe, 0xfd}))

	if _, ok := cache.Get(req, 61582); ok {
		t.Fatal("undecodable payload should miss")
	}
	if raw := storedRecord(t, cache, req); raw != nil {
		t.Error("undecodable record should have been deleted")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.db")
	req := sampleRequest()

	cache, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	cache.Put(req, 61582, sampleListing())
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopening cache failed: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get(req, 61582)
	if !ok {
		t.Fatal("Get missed after reopen")
	}
	if len(got.Entries) != 3 {
		t.Errorf("got %d entries after reopen, want 3", len(got.Entries))
	}
}

func TestSmallListingUsesBlockCompression(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()
	cache.Put(req, 61582, sampleListing())

	raw := storedRecord(t, cache, req)
	if raw == nil {
		t.Fatal("no record stored")
	}
	if raw[0] != compressionLZ4 && raw[0] != compressionRaw {
		t.Errorf("small listing stored with tag %d, want lz4 or raw", raw[0])
	}
}

func TestLargeListingUsesZstd(t *testing.T) {
	cache := openCache(t)
	req := sampleRequest()

	listing := &casc.Listing{}
	for i := range 200 {
		listing.Entries = append(listing.Entries, casc.FileEntry{
			Name:      fmt.Sprintf("interface/icons/spell_frostbolt_rank_%04d.blp", i),
			Size:      uint64(i) * 1024,
			Available: true,
		})
	}
	cache.Put(req, 61582, listing)

	raw := storedRecord(t, cache, req)
	if raw == nil {
		t.Fatal("no record stored")
	}
	if raw[0] != compressionZstd {
		t.Errorf("large listing stored with tag %d, want zstd", raw[0])
	}

	got, ok := cache.Get(req, 61582)
	if !ok {
		t.Fatal("Get missed for large listing")
	}
	if len(got.Entries) != 200 {
		t.Errorf("got %d entries, want 200", len(got.Entries))
	}
}

func TestCompressRoundtrip(t *testing.T) {
	// Compressible data: repeated pattern.
	patterned := make([]byte, 64*1024)
	for i := range patterned {
		patterned[i] = byte(i % 17)
	}
	// Incompressible data stays raw.
	random := make([]byte, 512)
	rand.Read(random)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"small", []byte("interface/icons/spell.blp")},
		{"patterned", patterned},
		{"random", random},
		{"single_byte", []byte{0x42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := compress(tt.payload)
			got, err := decompress(stored)
			if err != nil {
				t.Fatalf("decompress failed: %v", err)
			}
			if len(got) != len(tt.payload) {
				t.Fatalf("roundtrip length %d, want %d", len(got), len(tt.payload))
			}
			for i := range got {
				if got[i] != tt.payload[i] {
					t.Fatalf("roundtrip mismatch at byte %d", i)
				}
			}
		})
	}
}

func TestCompressRandomStaysRaw(t *testing.T) {
	random := make([]byte, 512)
	rand.Read(random)

	stored := compress(random)
	if stored[0] != compressionRaw {
		t.Errorf("random payload stored with tag %d, want raw", stored[0])
	}
	if len(stored) != 1+len(random) {
		t.Errorf("raw record is %d bytes, want %d", len(stored), 1+len(random))
	}
}

func TestDecompressRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name   string
		stored []byte
	}{
		{"empty", nil},
		{"unknown_tag", []byte{99, 0x01}},
		{"truncated_lz4_header", []byte{compressionLZ4, 0x01, 0x02}},
		{"oversized_lz4_claim", []byte{compressionLZ4, 0xff, 0xff, 0xff, 0xff, 0x00}},
		{"garbage_zstd", []byte{compressionZstd, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decompress(tt.stored); err == nil {
				t.Errorf("decompress(%v) should fail", tt.stored)
			}
		})
	}
}

func TestRequestKeyDistinguishesFields(t *testing.T) {
	base := sampleRequest()
	baseKey := string(base.key())

	variants := []Request{
		{StoragePath: "/data/other", Mask: base.Mask, Limit: base.Limit, LocaleMask: base.LocaleMask},
		{StoragePath: base.StoragePath, Mask: "*", Limit: base.Limit, LocaleMask: base.LocaleMask},
		{StoragePath: base.StoragePath, Mask: base.Mask, ListFile: "names.txt", Limit: base.Limit, LocaleMask: base.LocaleMask},
		{StoragePath: base.StoragePath, Mask: base.Mask, Limit: casc.NoLimit, LocaleMask: base.LocaleMask},
		{StoragePath: base.StoragePath, Mask: base.Mask, Limit: base.Limit, LocaleMask: 0x10},
	}

	for i, variant := range variants {
		if string(variant.key()) == baseKey {
			t.Errorf("variant %d has the same key as the base request: %+v", i, variant)
		}
	}

	if string(base.key()) != baseKey {
		t.Error("key is not deterministic for identical requests")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", dir)
		want := filepath.Join(dir, "casckit", "listings.db")
		if got := DefaultPath(); got != want {
			t.Errorf("DefaultPath() = %q, want %q", got, want)
		}
	})

	t.Run("home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", "")
		t.Setenv("HOME", home)
		want := filepath.Join(home, ".cache", "casckit", "listings.db")
		if got := DefaultPath(); got != want {
			t.Errorf("DefaultPath() = %q, want %q", got, want)
		}
	})
}

func BenchmarkPut(b *testing.B) {
	cache, err := Open(filepath.Join(b.TempDir(), "listings.db"), testLogger())
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer cache.Close()

	listing := &casc.Listing{}
	for i := range 1000 {
		listing.Entries = append(listing.Entries, casc.FileEntry{
			Name: fmt.Sprintf("world/maps/azeroth/tile_%02d_%02d.adt", i/64, i%64),
			Size: uint64(i) * 4096,
		})
	}
	req := sampleRequest()

	b.ReportAllocs()
	for b.Loop() {
		cache.Put(req, 61582, listing)
	}
}

func BenchmarkGet(b *testing.B) {
	cache, err := Open(filepath.Join(b.TempDir(), "listings.db"), testLogger())
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	defer cache.Close()

	listing := &casc.Listing{}
	for i := range 1000 {
		listing.Entries = append(listing.Entries, casc.FileEntry{
			Name: fmt.Sprintf("world/maps/azeroth/tile_%02d_%02d.adt", i/64, i%64),
			Size: uint64(i) * 4096,
		})
	}
	req := sampleRequest()
	cache.Put(req, 61582, listing)

	b.ReportAllocs()
	for b.Loop() {
		if _, ok := cache.Get(req, 61582); !ok {
			b.Fatal("Get missed")
		}
	}
}
