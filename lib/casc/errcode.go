// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"fmt"
	"strings"
)

// ErrorCode is a value of the engine's last-error register. The
// numeric values follow the engine's POSIX-flavored port; the symbolic
// names are the stable contract. Two names may share a value (the
// engine reports file-not-found and path-not-found identically), in
// which case [ErrorCode.Names] lists both.
type ErrorCode uint32

const (
	// Success means the previous operation completed. It is also the
	// value [Finder] writes before FindFirst so a clean empty
	// iteration cannot inherit a stale code.
	Success ErrorCode = 0

	ErrorAccessDenied     ErrorCode = 1
	ErrorFileNotFound     ErrorCode = 2
	ErrorPathNotFound     ErrorCode = 2
	ErrorInvalidHandle    ErrorCode = 9
	ErrorNotEnoughMemory  ErrorCode = 12
	ErrorAlreadyExists    ErrorCode = 17
	ErrorInvalidParameter ErrorCode = 22
	ErrorDiskFull         ErrorCode = 28
	ErrorNotSupported     ErrorCode = 95
	ErrorInsufficientBuf  ErrorCode = 105
)

// Engine-specific codes live above the POSIX range.
const (
	ErrorBadFormat      ErrorCode = 1000
	ErrorNoMoreFiles    ErrorCode = 1001
	ErrorHandleEOF      ErrorCode = 1002
	ErrorCanNotComplete ErrorCode = 1003
	ErrorFileCorrupt    ErrorCode = 1004
	ErrorFileEncrypted  ErrorCode = 1005
	ErrorDeletePending  ErrorCode = 1006
)

// errorNames maps each code to its symbolic names in declaration
// order. Codes sharing a value list every name.
var errorNames = map[ErrorCode][]string{
	Success:               {"SUCCESS"},
	ErrorAccessDenied:     {"ERROR_ACCESS_DENIED"},
	ErrorFileNotFound:     {"ERROR_FILE_NOT_FOUND", "ERROR_PATH_NOT_FOUND"},
	ErrorInvalidHandle:    {"ERROR_INVALID_HANDLE"},
	ErrorNotEnoughMemory:  {"ERROR_NOT_ENOUGH_MEMORY"},
	ErrorAlreadyExists:    {"ERROR_ALREADY_EXISTS"},
	ErrorInvalidParameter: {"ERROR_INVALID_PARAMETER"},
	ErrorDiskFull:         {"ERROR_DISK_FULL"},
	ErrorNotSupported:     {"ERROR_NOT_SUPPORTED"},
	ErrorInsufficientBuf:  {"ERROR_INSUFFICIENT_BUFFER"},
	ErrorBadFormat:        {"ERROR_BAD_FORMAT"},
	ErrorNoMoreFiles:      {"ERROR_NO_MORE_FILES"},
	ErrorHandleEOF:        {"ERROR_HANDLE_EOF"},
	ErrorCanNotComplete:   {"ERROR_CAN_NOT_COMPLETE"},
	ErrorFileCorrupt:      {"ERROR_FILE_CORRUPT"},
	ErrorFileEncrypted:    {"ERROR_FILE_ENCRYPTED"},
	ErrorDeletePending:    {"ERROR_DELETE_PENDING"},
}

// Names returns the symbolic names for the code joined with "/".
// Unknown codes render as "ERROR_<value>".
func (c ErrorCode) Names() string {
	if names, ok := errorNames[c]; ok {
		return strings.Join(names, "/")
	}
	return fmt.Sprintf("ERROR_%d", uint32(c))
}

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	return fmt.Sprintf("%s (%d)", c.Names(), uint32(c))
}

// IsNoMatch reports whether the code means "the search matched
// nothing" rather than a fault. A FindFirst failing with a no-match
// code is an empty iteration; FindNext failing with one is normal
// exhaustion.
func (c ErrorCode) IsNoMatch() bool {
	switch c {
	case Success, ErrorFileNotFound, ErrorNoMoreFiles:
		return true
	}
	return false
}

// IsEOF reports whether the code means a read reached end of file.
func (c ErrorCode) IsEOF() bool {
	return c == ErrorHandleEOF
}

// EngineError is a failed engine call: the operation that failed and
// the last-error code read immediately after it.
type EngineError struct {
	// Op names the failed operation ("open storage", "find next", ...).
	Op string

	// Code is the engine's last-error value for the failure.
	Code ErrorCode
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// engineErr reads the engine's last error and wraps it for op. A
// SUCCESS register after a failed call still produces an error: the
// call reported failure, so the register being clean means the engine
// broke its own protocol, and CAN_NOT_COMPLETE is the honest code.
func engineErr(eng Engine, op string) *EngineError {
	code := eng.LastError()
	if code == Success {
		code = ErrorCanNotComplete
	}
	return &EngineError{Op: op, Code: code}
}
