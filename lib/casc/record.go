// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Find record layout constants. The engine fills a fixed little-endian
// structure for every find result.
const (
	// MaxPath is the size of the file name region, including the NUL
	// terminator.
	MaxPath = 1024

	// KeySize is the byte length of content and encoded keys.
	KeySize = 16

	// Field offsets within the record. The name region comes first;
	// the fixed fields follow it back to back, except for an 8-byte
	// engine-side pointer between FileSize and FileDataId that the
	// decoder skips.
	recNameOff       = 0
	recCKeyOff       = MaxPath
	recEKeyOff       = recCKeyOff + KeySize
	recTagMaskOff    = recEKeyOff + KeySize
	recFileSizeOff   = recTagMaskOff + 8
	recPlainNameOff  = recFileSizeOff + 8
	recFileDataIdOff = recPlainNameOff + 8
	recLocaleOff     = recFileDataIdOff + 4
	recContentOff    = recLocaleOff + 4
	recSpanCountOff  = recContentOff + 4
	recAvailableOff  = recSpanCountOff + 4
	recNameTypeOff   = recAvailableOff + 4

	// FindRecordSize is the full record length.
	FindRecordSize = recNameTypeOff + 4
)

// Key is a 16-byte CASC key. Content keys (CKeys) are the MD5 of the
// file content; encoded keys (EKeys) identify the encoded form inside
// the archives.
type Key [KeySize]byte

// IsZero reports whether the key is all zero bytes, which the engine
// uses for "no key known".
func (k Key) IsZero() bool {
	return k == Key{}
}

// String renders the key as lowercase hex, or "" for a zero key.
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return hex.EncodeToString(k[:])
}

// NameType describes how a find result's name was produced.
type NameType uint32

const (
	// NameFull is a full path from the storage's root handler.
	NameFull NameType = iota

	// NameDataID is a synthesized "FILE{id}.dat" name for storages
	// that address files by numeric id.
	NameDataID

	// NameCKey is the content key rendered as hex, used when no
	// listfile provides a real name.
	NameCKey
)

// FileEntry is one decoded find result.
type FileEntry struct {
	// Name is the file's path within the storage, using the
	// separators the storage's name source produced (either slash
	// style appears in the wild).
	Name string

	// CKey is the content key (MD5 of the content). Zero when the
	// storage does not expose content keys for this entry.
	CKey Key

	// EKey is the encoded key. Zero when unknown.
	EKey Key

	// TagMask has one bit per storage tag that applies to the entry,
	// in tag-table order.
	TagMask uint64

	// Size is the content length in bytes.
	Size uint64

	// FileDataID is the numeric id for storages that use them, else
	// zero.
	FileDataID uint32

	// LocaleFlags is the entry's locale bitmask (see [Locale]).
	LocaleFlags uint32

	// ContentFlags carries the engine's per-entry content bits.
	ContentFlags uint32

	// SpanCount is the number of file spans the content is stored in.
	SpanCount uint32

	// Available reports whether the content is present in the local
	// storage (false means known but not downloaded).
	Available bool

	// NameType records how Name was produced.
	NameType NameType
}

// DecodeFileEntry decodes the engine's find record buffer. The buffer
// must contain at least the name region; missing tail fields decode as
// zero so the decoder works against engines writing short records.
func DecodeFileEntry(buf []byte) (FileEntry, error) {
	if len(buf) < MaxPath {
		return FileEntry{}, fmt.Errorf("find record too short: %d bytes, need at least %d", len(buf), MaxPath)
	}

	var e FileEntry

	name := buf[recNameOff : recNameOff+MaxPath]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	e.Name = string(name)

	if len(buf) >= recEKeyOff {
		copy(e.CKey[:], buf[recCKeyOff:recCKeyOff+KeySize])
	}
	if len(buf) >= recTagMaskOff {
		copy(e.EKey[:], buf[recEKeyOff:recEKeyOff+KeySize])
	}
	if len(buf) >= recTagMaskOff+8 {
		e.TagMask = binary.LittleEndian.Uint64(buf[recTagMaskOff:])
	}
	if len(buf) >= recFileSizeOff+8 {
		e.Size = binary.LittleEndian.Uint64(buf[recFileSizeOff:])
	}
	if len(buf) >= recFileDataIdOff+4 {
		e.FileDataID = binary.LittleEndian.Uint32(buf[recFileDataIdOff:])
	}
	if len(buf) >= recLocaleOff+4 {
		e.LocaleFlags = binary.LittleEndian.Uint32(buf[recLocaleOff:])
	}
	if len(buf) >= recContentOff+4 {
		e.ContentFlags = binary.LittleEndian.Uint32(buf[recContentOff:])
	}
	if len(buf) >= recSpanCountOff+4 {
		e.SpanCount = binary.LittleEndian.Uint32(buf[recSpanCountOff:])
	}
	if len(buf) >= recAvailableOff+4 {
		e.Available = binary.LittleEndian.Uint32(buf[recAvailableOff:]) != 0
	}
	if len(buf) >= recNameTypeOff+4 {
		e.NameType = NameType(binary.LittleEndian.Uint32(buf[recNameTypeOff:]))
	}

	return e, nil
}

// EncodeFileEntry writes the record layout for e. The engine side
// produces these buffers in production; the encoder exists for the
// in-memory test engine and for tools that replay captures.
func EncodeFileEntry(e FileEntry) []byte {
	buf := make([]byte, FindRecordSize)

	name := e.Name
	if len(name) >= MaxPath {
		name = name[:MaxPath-1]
	}
	copy(buf[recNameOff:], name)

	copy(buf[recCKeyOff:], e.CKey[:])
	copy(buf[recEKeyOff:], e.EKey[:])
	binary.LittleEndian.PutUint64(buf[recTagMaskOff:], e.TagMask)
	binary.LittleEndian.PutUint64(buf[recFileSizeOff:], e.Size)
	binary.LittleEndian.PutUint32(buf[recFileDataIdOff:], e.FileDataID)
	binary.LittleEndian.PutUint32(buf[recLocaleOff:], e.LocaleFlags)
	binary.LittleEndian.PutUint32(buf[recContentOff:], e.ContentFlags)
	binary.LittleEndian.PutUint32(buf[recSpanCountOff:], e.SpanCount)
	if e.Available {
		binary.LittleEndian.PutUint32(buf[recAvailableOff:], 1)
	}
	binary.LittleEndian.PutUint32(buf[recNameTypeOff:], uint32(e.NameType))

	return buf
}
