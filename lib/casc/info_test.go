// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func TestDecodeUint32Info(t *testing.T) {
	if got := decodeUint32Info([]byte{0x39, 0x05, 0x00, 0x00}); got != 1337 {
		t.Errorf("decoded %d, want 1337", got)
	}
	if got := decodeUint32Info([]byte{1, 2}); got != 0 {
		t.Errorf("short buffer decoded %d, want 0", got)
	}
	if got := decodeUint32Info(nil); got != 0 {
		t.Errorf("nil buffer decoded %d, want 0", got)
	}
}

func TestDecodeProduct(t *testing.T) {
	buf := make([]byte, 0x20)
	copy(buf, "wow")
	binary.LittleEndian.PutUint32(buf[0x1c:], 52237)

	p := decodeProduct(buf)
	if p.Code != "wow" {
		t.Errorf("code = %q, want %q", p.Code, "wow")
	}
	if p.Build != 52237 {
		t.Errorf("build = %d, want 52237", p.Build)
	}
}

func TestDecodeProductTruncated(t *testing.T) {
	// A buffer holding only part of the code region decodes the code
	// and a zero build.
	p := decodeProduct([]byte("d4"))
	if p.Code != "d4" {
		t.Errorf("code = %q, want %q", p.Code, "d4")
	}
	if p.Build != 0 {
		t.Errorf("build = %d, want 0", p.Build)
	}

	if p := decodeProduct(nil); p.Code != "" || p.Build != 0 {
		t.Errorf("nil buffer decoded %+v, want zero product", p)
	}
}

func TestDecodeProductUnterminatedCode(t *testing.T) {
	// A code filling the whole region is bounded at productCodeSize.
	buf := make([]byte, 0x20)
	for i := 0; i < 0x1c; i++ {
		buf[i] = 'a'
	}
	p := decodeProduct(buf)
	if len(p.Code) != productCodeSize {
		t.Errorf("code length = %d, want %d", len(p.Code), productCodeSize)
	}
}

func TestDecodeTags(t *testing.T) {
	tags := []Tag{
		{Name: "Windows", Value: 2},
		{Name: "enUS", Value: 1},
		{Name: "x86_64", Value: 3},
	}
	buf := encodeTagTable(tags)

	got := decodeTags(buf)
	if !reflect.DeepEqual(got, tags) {
		t.Errorf("decoded %+v, want %+v", got, tags)
	}
}

func TestDecodeTagsTruncated(t *testing.T) {
	tags := []Tag{
		{Name: "Windows", Value: 2},
		{Name: "enUS", Value: 1},
	}
	buf := encodeTagTable(tags)

	// Cut the buffer inside the second descriptor: only the first tag
	// is decodable. Truncation yields partial results, not an error.
	got := decodeTags(buf[:8+tagDescriptorSize+4])
	if len(got) != 1 {
		t.Fatalf("decoded %d tags, want 1", len(got))
	}
	// The name region is gone entirely, so the surviving tag has its
	// value but no name.
	if got[0].Value != 2 {
		t.Errorf("value = %d, want 2", got[0].Value)
	}
}

func TestDecodeTagsCorruptCount(t *testing.T) {
	// A count claiming more descriptors than the buffer holds is
	// capped, not trusted.
	buf := encodeTagTable([]Tag{{Name: "t", Value: 1}})
	binary.LittleEndian.PutUint64(buf, 1<<40)

	got := decodeTags(buf)
	if len(got) > 2 {
		t.Errorf("decoded %d tags from corrupt count", len(got))
	}
}

func TestDecodeTagsEmpty(t *testing.T) {
	if got := decodeTags(nil); got != nil {
		t.Errorf("nil buffer decoded %+v, want nil", got)
	}
	var count [8]byte
	if got := decodeTags(count[:]); got != nil {
		t.Errorf("zero count decoded %+v, want nil", got)
	}
}

func TestDecodeString(t *testing.T) {
	if got := decodeString(append([]byte("C:/games/wow:wow"), 0, 'x')); got != "C:/games/wow:wow" {
		t.Errorf("decoded %q", got)
	}
	if got := decodeString([]byte("bare")); got != "bare" {
		t.Errorf("unterminated string decoded %q, want %q", got, "bare")
	}
}

func TestFeatures(t *testing.T) {
	f := FeatureFileNames | FeatureTags | FeatureOnline

	if !f.Has(FeatureFileNames) || !f.Has(FeatureTags) {
		t.Error("Has() missed set flags")
	}
	if f.Has(FeatureRootCKey) {
		t.Error("Has() reported an unset flag")
	}

	want := []string{"file-names", "tags", "online"}
	if !reflect.DeepEqual(f.List(), want) {
		t.Errorf("List() = %v, want %v", f.List(), want)
	}
	if f.String() != "file-names,tags,online" {
		t.Errorf("String() = %q", f.String())
	}
	if Features(0).String() != "none" {
		t.Errorf("zero features String() = %q, want none", Features(0).String())
	}
}

// encodeTagTable builds the engine's tag-table wire form for decoder
// tests: count, descriptors, packed NUL-separated names.
func encodeTagTable(tags []Tag) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(tags)))
	for _, tag := range tags {
		desc := make([]byte, tagDescriptorSize)
		binary.LittleEndian.PutUint32(desc[8:], uint32(len(tag.Name)))
		binary.LittleEndian.PutUint32(desc[12:], tag.Value)
		buf = append(buf, desc...)
	}
	for _, tag := range tags {
		buf = append(buf, tag.Name...)
		buf = append(buf, 0)
	}
	return buf
}
