// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package casc provides the access layer over a CASC (Content
// Addressed Storage Container) storage engine. It opens local storages,
// enumerates their files by mask, reads file content, and decodes the
// engine's binary record and info formats into Go values.
//
// The package is organized in layers, each usable independently:
//
//   - Engine protocol: the [Engine] interface mirrors the native
//     engine's calling convention (boolean success flags plus a
//     process-wide last-error register). Everything above this layer
//     sees ordinary Go errors; [EngineError] carries the operation
//     name and the symbolic error code of a failed call.
//
//   - Codecs: the engine returns find results and storage info as
//     fixed-layout little-endian buffers. [FileEntry] decoding and the
//     [InfoClass] decoders turn them into Go structs. Info decoders
//     never fail; short buffers decode to zero values so callers can
//     probe capabilities without error plumbing.
//
//   - Storage: [Open] wraps an engine storage handle in a [*Storage]
//     that owns its lifecycle. [Storage.ReadAll] reads a file by name
//     in bounded chunks; [Storage.Info] exposes the decoded info
//     classes.
//
//   - Finder: [Storage.NewFinder] iterates one search mask in the
//     shape of bufio.Scanner (Scan/Entry/Err/Close). The find-handle
//     lifecycle and the last-error protocol are handled internally.
//
//   - Enumerate: [Storage.Enumerate] runs a brace-expanded mask set
//     through the finder, deduplicates by file name, and applies the
//     result limit across all expanded masks.
//
// The package never touches the disk itself; all storage access goes
// through the [Engine]. Tests use the in-memory engine from
// lib/casc/casctest.
package casc
