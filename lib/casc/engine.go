// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

// StorageHandle identifies an open storage inside the engine.
type StorageHandle uintptr

// FileHandle identifies an open file inside the engine.
type FileHandle uintptr

// FindHandle identifies an in-progress find iteration inside the
// engine.
type FindHandle uintptr

// InvalidHandle is the engine's sentinel invalid handle value. A
// returned handle equal to this or to zero is a failure even when the
// call itself reported success.
const InvalidHandle = ^uintptr(0)

// validHandle reports whether h is usable.
func validHandle(h uintptr) bool {
	return h != 0 && h != InvalidHandle
}

// InfoClass selects which storage property [Engine.StorageInfo]
// returns. The numeric values match the engine's enumeration order.
type InfoClass uint32

const (
	// InfoLocalFileCount is the number of files present in the local
	// storage (uint32).
	InfoLocalFileCount InfoClass = iota

	// InfoTotalFileCount is the number of files the storage knows
	// about, including files not downloaded locally (uint32).
	InfoTotalFileCount

	// InfoFeatures is the storage feature bitmask (uint32). See
	// [Features] for the flag values.
	InfoFeatures

	// InfoProduct is the product descriptor: a NUL-terminated code
	// name followed by the build number. See [Product].
	InfoProduct

	// InfoTags is the tag table: a count followed by fixed-size tag
	// descriptors and packed names. See [Tag].
	InfoTags

	// InfoPathProduct is the storage path with the product code
	// appended, as a NUL-terminated string.
	InfoPathProduct
)

// FileInfoClass selects which file property [Engine.FileInfo]
// returns.
type FileInfoClass uint32

const (
	// FileInfoContentKey is the file's 16-byte content key.
	FileInfoContentKey FileInfoClass = iota

	// FileInfoEncodedKey is the file's 16-byte encoded key.
	FileInfoEncodedKey

	// FileInfoFull is the engine's full per-file structure. The
	// access layer treats it as opaque bytes.
	FileInfoFull

	// FileInfoSpan is the engine's span table for the file. Opaque
	// to the access layer.
	FileInfoSpan
)

// OpenFlagNameIsCKey requests opening a file by its content key
// rendered as hex instead of by file name.
const OpenFlagNameIsCKey uint32 = 0x1

// Engine is the native CASC storage engine. Implementations mirror
// the engine's C calling convention: operations report success as a
// boolean, and the cause of a failure is read from a process-wide
// last-error register via [Engine.LastError].
//
// The protocol rules the access layer relies on:
//
//   - After any call returning false, LastError holds the cause until
//     the next engine call replaces it. Callers read it immediately,
//     before any other engine interaction.
//   - [Engine.SetLastError] with [Success] clears the register; the
//     find loop does this before FindFirst so that a clean empty
//     iteration is distinguishable from a stale error.
//   - Info queries are two-phase: a call with a nil buffer fails with
//     [ErrorInsufficientBuf] and reports the required size; the call
//     is then repeated with a buffer of exactly that size. The engine
//     may fill less than the buffer; the returned length governs.
//   - FindFirst and FindNext fill a caller-supplied record buffer
//     (layout in [DecodeFileEntry]); the caller reuses one buffer for
//     the whole iteration. FindFirst failing with a no-match code
//     means "empty result", not "error".
//   - Handles are released exactly once; releasing an invalid handle
//     fails with [ErrorInvalidHandle]. A returned handle of zero or
//     [InvalidHandle] is a failure regardless of the success flag.
//
// The engine executes calls synchronously; a call blocks its caller
// until the engine completes it. The last-error register is
// process-wide, so a failing call and the LastError read that follows
// it must not be interleaved with other engine calls.
type Engine interface {
	// OpenStorage opens the storage at path (local directory with an
	// optional "path:product" suffix).
	OpenStorage(path string) (StorageHandle, bool)

	// CloseStorage releases a storage handle.
	CloseStorage(h StorageHandle) bool

	// OpenFile opens a file within the storage by name. localeMask
	// restricts which locale variants match; [LocaleAll] matches any.
	// flags modify name interpretation (see [OpenFlagNameIsCKey]).
	OpenFile(h StorageHandle, name string, localeMask uint32, flags uint32) (FileHandle, bool)

	// CloseFile releases a file handle.
	CloseFile(f FileHandle) bool

	// ReadFile reads up to len(buf) bytes from the file's current
	// position and advances it. A read at end of file returns
	// (0, true).
	ReadFile(f FileHandle, buf []byte) (int, bool)

	// GetFileSize returns the file's content size in bytes.
	GetFileSize(f FileHandle) (uint64, bool)

	// SetFilePointer moves the file position. whence is one of
	// io.SeekStart, io.SeekCurrent, io.SeekEnd. Returns the new
	// absolute position.
	SetFilePointer(f FileHandle, offset int64, whence int) (uint64, bool)

	// FindFirst starts a mask iteration, filling rec with the first
	// record when one exists. listFile optionally names an external
	// listfile providing names for storages without embedded ones.
	FindFirst(h StorageHandle, mask string, listFile string, rec []byte) (FindHandle, bool)

	// FindNext fills rec with the next record of the iteration.
	// Exhaustion fails with [ErrorNoMoreFiles].
	FindNext(fh FindHandle, rec []byte) bool

	// FindClose releases a find handle.
	FindClose(fh FindHandle) bool

	// StorageInfo fills buf with the info for class and returns the
	// byte length needed (nil buf) or actually written (non-nil buf).
	StorageInfo(h StorageHandle, class InfoClass, buf []byte) (int, bool)

	// FileInfo fills buf with the info for class, with the same
	// two-phase length protocol as StorageInfo.
	FileInfo(f FileHandle, class FileInfoClass, buf []byte) (int, bool)

	// LastError reads the last-error register.
	LastError() ErrorCode

	// SetLastError writes the last-error register.
	SetLastError(code ErrorCode)
}
