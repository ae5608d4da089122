// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package cascfs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/hydra1983/casckit/lib/casc"
)

// fileHandle is one kernel open of a storage file. The engine keeps
// the file position in the handle, so reads serialize on mu and seek
// to the requested offset before reading.
type fileHandle struct {
	mu     sync.Mutex
	file   *casc.File
	name   string
	logger *slog.Logger
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.file.Seek(off, io.SeekStart); err != nil {
		h.logger.Error("seeking storage file",
			"name", h.name,
			"offset", off,
			"error", err)
		return nil, syscall.EIO
	}

	// The engine may return short reads at span boundaries; fill the
	// kernel's buffer until EOF.
	total := 0
	for total < len(dest) {
		n, err := h.file.Read(dest[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			h.logger.Error("reading storage file",
				"name", h.name,
				"offset", off,
				"error", err)
			return nil, syscall.EIO
		}
		if n == 0 {
			break
		}
	}
	return fuse.ReadResultData(dest[:total]), 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	if err := h.file.Close(); err != nil {
		h.logger.Warn("closing storage file", "name", h.name, "error", err)
		return syscall.EIO
	}
	return 0
}
