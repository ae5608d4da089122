// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package listcache

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Stored records carry a one-byte compression tag so the format can
// evolve without a database migration.
const (
	compressionRaw  byte = 0
	compressionLZ4  byte = 1
	compressionZstd byte = 2
)

// zstdThreshold selects zstd for payloads at or above this size. Small
// listings compress with lz4, which is cheaper to decode than a zstd
// frame and good enough at these sizes.
const zstdThreshold = 4 << 10

// maxEnvelopeSize caps the decoded size a stored record may claim,
// bounding the allocation a corrupt record can trigger.
const maxEnvelopeSize = 1 << 30

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("listcache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("listcache: zstd decoder initialization failed: " + err.Error())
	}
}

// compress wraps payload in a tagged record, compressed when that
// actually saves space.
func compress(payload []byte) []byte {
	if len(payload) >= zstdThreshold {
		out := zstdEncoder.EncodeAll(payload, []byte{compressionZstd})
		if len(out) < 1+len(payload) {
			return out
		}
		return rawRecord(payload)
	}

	// lz4 block compression needs the uncompressed size to decode, so
	// the record stores it after the tag.
	out := make([]byte, 5+lz4.CompressBlockBound(len(payload)))
	out[0] = compressionLZ4
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(payload)))
	written, err := lz4.CompressBlock(payload, out[5:], nil)
	if err != nil || written == 0 || 5+written >= 1+len(payload) {
		return rawRecord(payload)
	}
	return out[:5+written]
}

func rawRecord(payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = compressionRaw
	copy(out[1:], payload)
	return out
}

// decompress unwraps a tagged record back to the CBOR payload.
func decompress(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("empty cache record")
	}
	tag, data := stored[0], stored[1:]
	switch tag {
	case compressionRaw:
		return data, nil
	case compressionLZ4:
		if len(data) < 4 {
			return nil, fmt.Errorf("truncated lz4 cache record: %d bytes", len(stored))
		}
		size := binary.LittleEndian.Uint32(data[:4])
		if size > maxEnvelopeSize {
			return nil, fmt.Errorf("lz4 cache record claims %d bytes, limit %d", size, maxEnvelopeSize)
		}
		payload := make([]byte, size)
		read, err := lz4.UncompressBlock(data[4:], payload)
		if err != nil {
			return nil, fmt.Errorf("decompressing lz4 cache record: %w", err)
		}
		if read != int(size) {
			return nil, fmt.Errorf("lz4 cache record decoded to %d bytes, expected %d", read, size)
		}
		return payload, nil
	case compressionZstd:
		payload, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing zstd cache record: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unknown cache record compression tag %d", tag)
	}
}
