// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides casckit's standard CBOR encoding configuration.
//
// Casckit uses two serialization formats with a clear boundary:
//
//   - JSON for external surfaces: CLI --json output (listings, trees,
//     storage info) and anything a user script is expected to parse.
//   - CBOR for internal persistence: listing cache envelopes and any
//     other on-disk state the tool writes for itself.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every casckit package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which keeps stored envelopes stable across runs and builds.
//
// For buffer-oriented operations (cache records, state files):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Struct tag rule: types that only ever live in CBOR carry `cbor`
// tags; types that appear in both CLI JSON output and CBOR storage
// carry a single `json` tag (fxamacker/cbor reads `json` tags as a
// fallback, so one tag controls naming and omitempty for both
// formats). Never put both tags on the same field.
package codec
