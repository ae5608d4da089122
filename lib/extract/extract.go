// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract writes storage entries to the local filesystem.
//
// The pipeline takes a listing produced by [casc.Storage.Enumerate],
// sanitizes each entry name into a relative path, and streams the
// content in bounded chunks so memory use stays flat regardless of
// file size. Entries fail individually: a bad file is recorded in the
// result and the run continues.
package extract

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydra1983/casckit/lib/casc"
)

const (
	// DefaultChunkSize is the read buffer size when Options.ChunkSize
	// is zero.
	DefaultChunkSize = 1 << 20

	// MaxChunk caps the read buffer size. Reads beyond 2 GiB minus a
	// small header margin are not portable across engine builds, so
	// larger requests clamp down to this.
	MaxChunk = 1<<31 - 256
)

// DefaultOutDir is where extracted files land when Options.OutDir is
// empty.
var DefaultOutDir = filepath.Join("output", "extracted")

// Options configures an extraction run. The zero value extracts
// sequentially into [DefaultOutDir] with [DefaultChunkSize] reads,
// skipping files that already exist.
type Options struct {
	// OutDir is the directory extracted files are written under. It
	// is created if missing.
	OutDir string

	// ChunkSize is the read buffer size in bytes. Values above
	// MaxChunk clamp with a warning.
	ChunkSize int

	// Overwrite replaces existing output files. When false an
	// existing file counts as skipped.
	Overwrite bool

	// Verify hashes the written bytes and compares the digest to the
	// entry's content key. A mismatch fails the entry and removes the
	// partial file.
	Verify bool

	// Workers is the number of concurrent extractions. Values below 2
	// extract sequentially. Each worker opens its own file handle;
	// handles are never shared across goroutines.
	Workers int

	Logger *slog.Logger
}

// Failure records one entry that could not be extracted.
type Failure struct {
	Name string
	Err  error
}

// Result is the outcome of an extraction run.
type Result struct {
	// Extracted counts files fully written to disk.
	Extracted int

	// Skipped counts files left untouched because they already
	// existed and Overwrite was off.
	Skipped int

	// Failed lists entries that errored. Failures do not abort the
	// run.
	Failed []Failure

	// TotalBytes is the number of content bytes written.
	TotalBytes int64

	Elapsed time.Duration
}

// Summary returns a one-line account of the run for display.
func (r *Result) Summary() string {
	parts := []string{fmt.Sprintf("%d extracted (%s)", r.Extracted, formatBytes(r.TotalBytes))}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if len(r.Failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(r.Failed)))
	}
	return strings.Join(parts, ", ") + " in " + r.Elapsed.Round(time.Millisecond).String()
}

// Run extracts the given entries from st into opts.OutDir. Per-entry
// problems are recorded in the result; Run itself errors only on setup
// failures or context cancellation. On cancellation the entries
// already in flight settle before Run returns ctx.Err() alongside the
// partial result.
func Run(ctx context.Context, st *casc.Storage, entries []casc.FileEntry, opts Options) (*Result, error) {
	if st == nil {
		return nil, fmt.Errorf("extracting: nil storage")
	}
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch {
	case opts.ChunkSize <= 0:
		opts.ChunkSize = DefaultChunkSize
	case opts.ChunkSize > MaxChunk:
		opts.Logger.Warn("chunk size clamped",
			"requested", opts.ChunkSize,
			"max", MaxChunk)
		opts.ChunkSize = MaxChunk
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", opts.OutDir, err)
	}

	checkDiskSpace(opts, entries)

	r := &runner{st: st, opts: opts, result: &Result{}}

	start := time.Now()
	var err error
	if opts.Workers > 1 {
		err = r.runParallel(ctx, entries)
	} else {
		err = r.runSequential(ctx, entries)
	}
	r.result.Elapsed = time.Since(start)
	return r.result, err
}

// checkDiskSpace warns when the listing's total size exceeds the free
// space under the output directory. Best effort: platforms without the
// statfs call skip the check.
func checkDiskSpace(opts Options, entries []casc.FileEntry) {
	var total uint64
	for _, e := range entries {
		total += e.Size
	}
	free, err := freeSpace(opts.OutDir)
	if err != nil || total <= free {
		return
	}
	opts.Logger.Warn("listing is larger than free disk space",
		"needed", formatBytes(int64(total)),
		"free", formatBytes(int64(free)))
}

type runner struct {
	st   *casc.Storage
	opts Options

	mu     sync.Mutex
	result *Result
}

func (r *runner) runSequential(ctx context.Context, entries []casc.FileEntry) error {
	buf := make([]byte, r.opts.ChunkSize)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		written, skipped, err := r.extractOne(entry, buf)
		r.record(entry, written, skipped, err)
	}
	return nil
}

func (r *runner) runParallel(ctx context.Context, entries []casc.FileEntry) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.Workers)

	// One reusable read buffer per worker slot.
	bufs := make(chan []byte, r.opts.Workers)
	for range r.opts.Workers {
		bufs <- make([]byte, r.opts.ChunkSize)
	}

	for _, entry := range entries {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			buf := <-bufs
			defer func() { bufs <- buf }()
			written, skipped, err := r.extractOne(entry, buf)
			r.record(entry, written, skipped, err)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// record merges one entry's outcome into the shared result.
func (r *runner) record(entry casc.FileEntry, written int64, skipped bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil:
		r.opts.Logger.Warn("extraction failed", "name", entry.Name, "error", err)
		r.result.Failed = append(r.result.Failed, Failure{Name: entry.Name, Err: err})
	case skipped:
		r.opts.Logger.Debug("skipping existing file", "name", entry.Name)
		r.result.Skipped++
	default:
		r.opts.Logger.Debug("extracted file", "name", entry.Name, "bytes", written)
		r.result.Extracted++
		r.result.TotalBytes += written
	}
}

// extractOne writes a single entry to disk. Returns the bytes written,
// whether the entry was skipped, and any entry-level error.
func (r *runner) extractOne(entry casc.FileEntry, buf []byte) (int64, bool, error) {
	dest := filepath.Join(r.opts.OutDir, filepath.FromSlash(SanitizePath(entry.Name)))
	if !underDir(r.opts.OutDir, dest) {
		return 0, false, fmt.Errorf("entry %q escapes the output directory", entry.Name)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, false, fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if r.opts.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		if !r.opts.Overwrite && errors.Is(err, fs.ErrExist) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("creating %s: %w", dest, err)
	}

	written, err := r.copyEntry(entry, out, buf)
	if err != nil {
		out.Close()
		os.Remove(dest)
		return 0, false, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return 0, false, fmt.Errorf("closing %s: %w", dest, err)
	}
	return written, false, nil
}

// copyEntry streams one entry's content into w in chunk-sized reads.
func (r *runner) copyEntry(entry casc.FileEntry, w io.Writer, buf []byte) (int64, error) {
	file, err := r.st.OpenEntry(entry)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	size, err := file.Size()
	if err != nil {
		return 0, fmt.Errorf("sizing %s: %w", entry.Name, err)
	}

	var digest hash.Hash
	if r.opts.Verify {
		digest = md5.New()
	}

	var written int64
	remaining := size
	for remaining > 0 {
		want := len(buf)
		if uint64(want) > remaining {
			want = int(remaining)
		}
		n, err := file.Read(buf[:want])
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("writing %s: %w", entry.Name, werr)
			}
			if digest != nil {
				digest.Write(buf[:n])
			}
			written += int64(n)
			remaining -= uint64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("reading %s: %w", entry.Name, err)
		}
	}
	if remaining != 0 {
		return written, fmt.Errorf("reading %s: truncated at %d of %d bytes", entry.Name, written, size)
	}

	if digest != nil && !entry.CKey.IsZero() {
		var sum casc.Key
		copy(sum[:], digest.Sum(nil))
		if sum != entry.CKey {
			return written, fmt.Errorf("content hash mismatch for %s: got %s, want %s",
				entry.Name, sum, entry.CKey)
		}
	}
	return written, nil
}

// underDir reports whether path stays inside dir after cleaning.
func underDir(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// formatBytes returns a human-readable size.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
