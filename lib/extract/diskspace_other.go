// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux && !darwin

package extract

import "errors"

// freeSpace is unavailable on this platform; the disk-space preflight
// is skipped.
func freeSpace(path string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
