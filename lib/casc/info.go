// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Storage info layout constants.
const (
	// productCodeSize is the size of the NUL-terminated product code
	// region; the build number follows it.
	productCodeSize = 0x1c

	// tagDescriptorSize is the size of each tag descriptor: 8-byte
	// engine-side name pointer, 4-byte name length, 4-byte tag value.
	// The packed NUL-separated names follow the descriptor table.
	tagDescriptorSize = 16
)

// Features is the storage feature bitmask from [InfoFeatures].
type Features uint32

const (
	// FeatureFileNames: the storage has a name source (listfile or
	// embedded root manifest) so find results carry real names.
	FeatureFileNames Features = 1 << iota

	// FeatureRootCKey: the root handler addresses files by CKey.
	FeatureRootCKey

	// FeatureTags: the storage has a tag table.
	FeatureTags

	// FeatureFnameHashes: file name hashes are present for all files.
	FeatureFnameHashes

	// FeatureFnameHashesOptional: name hashes exist but not for every
	// file.
	FeatureFnameHashesOptional

	// FeatureFileDataIds: files are addressable by numeric id.
	FeatureFileDataIds

	// FeatureLocaleFlags: entries carry locale bitmasks.
	FeatureLocaleFlags

	// FeatureContentFlags: entries carry content flag words.
	FeatureContentFlags

	// FeatureDataArchives: content lives in combined archive files.
	FeatureDataArchives

	// FeatureDataFiles: content lives in raw per-file storage.
	FeatureDataFiles

	// FeatureOnline: the storage fetches missing content from a
	// remote CDN.
	FeatureOnline

	// FeatureForceDownload: opening a missing file triggers download
	// instead of failing.
	FeatureForceDownload
)

// featureNames lists the flags in bit order for [Features.List].
var featureNames = []struct {
	bit  Features
	name string
}{
	{FeatureFileNames, "file-names"},
	{FeatureRootCKey, "root-ckey"},
	{FeatureTags, "tags"},
	{FeatureFnameHashes, "fname-hashes"},
	{FeatureFnameHashesOptional, "fname-hashes-optional"},
	{FeatureFileDataIds, "file-data-ids"},
	{FeatureLocaleFlags, "locale-flags"},
	{FeatureContentFlags, "content-flags"},
	{FeatureDataArchives, "data-archives"},
	{FeatureDataFiles, "data-files"},
	{FeatureOnline, "online"},
	{FeatureForceDownload, "force-download"},
}

// Has reports whether all bits of f2 are set.
func (f Features) Has(f2 Features) bool {
	return f&f2 == f2
}

// List returns the names of the set flags in bit order.
func (f Features) List() []string {
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.bit) {
			names = append(names, fn.name)
		}
	}
	return names
}

// String renders the set flags joined with ",", or "none".
func (f Features) String() string {
	names := f.List()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Product identifies the storage's product and build.
type Product struct {
	// Code is the short product code name ("wow", "d4", ...).
	Code string

	// Build is the build number the storage was created from.
	Build uint32
}

// Tag is one entry of the storage's tag table. A file's
// [FileEntry.TagMask] has bit i set when tag i applies to it.
type Tag struct {
	// Name is the tag name ("Windows", "enUS", ...).
	Name string

	// Value is the engine's tag category value.
	Value uint32
}

// decodeUint32Info decodes the counter info classes. Short buffers
// decode as zero; info decoding never fails.
func decodeUint32Info(buf []byte) uint32 {
	if len(buf) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(buf)
}

// decodeProduct decodes an [InfoProduct] buffer.
func decodeProduct(buf []byte) Product {
	var p Product
	code := buf
	if len(code) > productCodeSize {
		code = code[:productCodeSize]
	}
	if i := bytes.IndexByte(code, 0); i >= 0 {
		code = code[:i]
	}
	p.Code = string(code)
	if len(buf) >= productCodeSize+4 {
		p.Build = binary.LittleEndian.Uint32(buf[productCodeSize:])
	}
	return p
}

// decodeTags decodes an [InfoTags] buffer: uint64 count, then
// fixed-size descriptors, then the packed NUL-separated names the
// descriptors' length fields index into. A truncated buffer yields
// the decodable prefix of the table.
func decodeTags(buf []byte) []Tag {
	if len(buf) < 8 {
		return nil
	}
	count := binary.LittleEndian.Uint64(buf)
	if count == 0 {
		return nil
	}

	// Cap at what the descriptor table region can actually hold so a
	// corrupt count cannot drive allocation.
	maxCount := uint64(len(buf)-8) / tagDescriptorSize
	if count > maxCount {
		count = maxCount
	}

	namesOff := 8 + int(count)*tagDescriptorSize
	tags := make([]Tag, 0, count)
	nameAt := namesOff
	for i := uint64(0); i < count; i++ {
		desc := buf[8+int(i)*tagDescriptorSize:]
		nameLen := int(binary.LittleEndian.Uint32(desc[8:]))
		value := binary.LittleEndian.Uint32(desc[12:])

		var name string
		if nameAt < len(buf) {
			end := nameAt + nameLen
			if end > len(buf) {
				end = len(buf)
			}
			raw := buf[nameAt:end]
			if j := bytes.IndexByte(raw, 0); j >= 0 {
				raw = raw[:j]
			}
			name = string(raw)
			// Names are packed back to back with NUL terminators.
			nameAt += nameLen + 1
		}

		tags = append(tags, Tag{Name: name, Value: value})
	}
	return tags
}

// decodeString decodes a NUL-terminated string info buffer
// ([InfoPathProduct]).
func decodeString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}
