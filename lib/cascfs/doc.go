// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

// Package cascfs implements a read-only FUSE filesystem over an open
// storage, presenting an enumeration's file tree as regular files.
//
// The tree is fixed at mount time: the listing passed to [Mount] is
// normalized by pathtree and materialized as persistent inodes, so
// lookups and directory reads are served without touching the engine.
// Storage content is immutable while mounted, which also means the
// kernel page cache stays valid across opens (FOPEN_KEEP_CACHE).
//
// # Read Path
//
// Each open of a file creates an independent engine handle. The
// engine's file position belongs to the handle, so reads serialize on
// a per-handle mutex and seek to the requested offset before reading.
// Release closes the engine handle.
//
// # Write Path
//
// Not implemented. The storage format is an immutable local archive;
// all mutation operations return EROFS.
package cascfs
