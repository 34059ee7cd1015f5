// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package poolalloc implements a first-fit, boundary-tag style memory
// allocator over a single fixed-size byte pool.
//
// The pool is a contiguous byte buffer carved into blocks on demand. Every
// block is prefixed by an in-band header recording its payload size, its
// free/allocated state, and, for free blocks only, the offset of the next
// free block by address. Free blocks are threaded into a singly linked,
// address-ordered free list; allocation walks that list for the first block
// large enough to satisfy the request, splitting off the remainder when
// there is room for a new header plus at least one payload byte. Freeing a
// block walks the same list to find its address-ordered neighbours and
// opportunistically coalesces with either one that turns out to be
// physically contiguous.
//
// Pool is not safe for concurrent use; see the poolsafe subpackage for a
// mutex-guarded wrapper.
package poolalloc
