// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poolalloc

import "errors"

// Error kinds returned by Pool operations. These are diagnostic, not
// structural: a failing Alloc/AllocZeroed/Realloc returns (nil, err) and
// leaves the pool otherwise untouched; a failing Free reports err and is a
// no-op.
var (
	// ErrInvalidSize is returned when a requested size is zero, negative,
	// overflows, or exceeds the largest payload the pool could ever hold.
	ErrInvalidSize = errors.New("poolalloc: invalid size")

	// ErrOutOfMemory is returned when no free block is large enough to
	// satisfy a request after alignment.
	ErrOutOfMemory = errors.New("poolalloc: out of memory")

	// ErrNullFree is returned by Free(nil).
	ErrNullFree = errors.New("poolalloc: free of nil pointer")

	// ErrDoubleFree is returned when Free is called on a pointer whose
	// block is already marked free. The pool is left unchanged. Detection
	// relies solely on the free flag in the block's in-band header; nothing
	// guards that flag against being overwritten by writes past a payload.
	ErrDoubleFree = errors.New("poolalloc: double free")
)
