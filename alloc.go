// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poolalloc

import "fmt"

// Alloc reserves a payload of size n bytes using first-fit placement over
// the free list, rounding the request up to the pool's alignment before
// searching. It returns a slice over the reserved payload whose length is n
// and whose capacity reaches the end of the block actually reserved (which
// may exceed n by the alignment padding plus up to a header's worth of
// otherwise-unsplittable slack).
//
// Alloc returns ErrInvalidSize if n is not a positive number of bytes that
// could ever fit in the pool, and ErrOutOfMemory if no free block large
// enough is found.
func (p *Pool) Alloc(n int) (b []byte, err error) {
	if trace {
		defer func() { traceCall("Alloc(%#x) %p, %v", n, ptrOf(b), err) }()
	}
	maxPayload := len(p.buf) - headerSize
	if n <= 0 || n > maxPayload {
		return nil, fmt.Errorf("%w: requested %d bytes, pool holds at most %d", ErrInvalidSize, n, maxPayload)
	}

	aligned := alignUp(n, p.alignment)

	var prevOffset uint64 = nullOffset
	cur := p.freeListHead
	for cur != nullOffset {
		h := p.headerAt(cur)
		if h.size >= uint64(aligned) {
			break
		}
		prevOffset = cur
		cur = h.next
	}
	if cur == nullOffset {
		return nil, fmt.Errorf("%w: no free block of at least %d bytes", ErrOutOfMemory, aligned)
	}

	h := p.headerAt(cur)
	blockSize := int(h.size)
	if blockSize > aligned+headerSize {
		// Split: carve the unused tail into a new free block and splice it
		// into the free list in place of the block we're taking.
		newOffset := cur + uint64(headerSize) + uint64(aligned)
		newHeader := p.headerAt(newOffset)
		newHeader.size = h.size - uint64(aligned) - uint64(headerSize)
		newHeader.free = 1
		newHeader.next = h.next

		h.size = uint64(aligned)
		h.free = 0
		blockSize = aligned

		if prevOffset == nullOffset {
			p.freeListHead = newOffset
		} else {
			p.headerAt(prevOffset).next = newOffset
		}
	} else {
		// Slack too small to split; the caller pays the internal
		// fragmentation and the whole block is unlinked.
		h.free = 0
		if prevOffset == nullOffset {
			p.freeListHead = h.next
		} else {
			p.headerAt(prevOffset).next = h.next
		}
	}

	return p.payload(cur, n, blockSize), nil
}

// Free releases the block backing b, which must have been returned by
// Alloc, AllocZeroed or Realloc on the same Pool. It is a no-op reporting
// ErrNullFree for a nil b and ErrDoubleFree, non-destructively, for a block
// already marked free.
//
// On success, Free marks the block free, then opportunistically coalesces
// it with a physically contiguous free predecessor and/or successor
// (invariant 5), attempting the successor first so that a block freed
// between two already-free neighbours ends up merged into one.
func (p *Pool) Free(b []byte) (err error) {
	if trace {
		defer func() { traceCall("Free(%p) %v", ptrOf(b), err) }()
	}
	if b == nil {
		diag("poolalloc: free of nil pointer")
		return ErrNullFree
	}

	payloadOff := p.offsetOf(b)
	hdrOff := payloadOff - uint64(headerSize)
	h := p.headerAt(hdrOff)
	if h.free == 1 {
		diag("poolalloc: double free at offset %#x", hdrOff)
		return ErrDoubleFree
	}

	h.free = 1

	var prevOffset uint64 = nullOffset
	cur := p.freeListHead
	for cur != nullOffset && cur < hdrOff {
		prevOffset = cur
		cur = p.headerAt(cur).next
	}
	succOffset := cur

	rightCoalesced := false
	if succOffset != nullOffset && hdrOff+uint64(headerSize)+h.size == succOffset {
		succ := p.headerAt(succOffset)
		h.size += uint64(headerSize) + succ.size
		h.next = succ.next
		rightCoalesced = true
	}
	if !rightCoalesced {
		h.next = succOffset
	}

	leftCoalesced := false
	if prevOffset != nullOffset {
		prev := p.headerAt(prevOffset)
		if prevOffset+uint64(headerSize)+prev.size == hdrOff {
			prev.size += uint64(headerSize) + h.size
			prev.next = h.next
			leftCoalesced = true
		}
	}

	if !leftCoalesced {
		if prevOffset == nullOffset {
			p.freeListHead = hdrOff
		} else {
			p.headerAt(prevOffset).next = hdrOff
		}
	}

	return nil
}

// AllocZeroed is Alloc(count*elemSize) with the returned payload zero
// filled, the pool's equivalent of calloc. It reports ErrInvalidSize if
// count*elemSize overflows or is non-positive.
func (p *Pool) AllocZeroed(count, elemSize int) ([]byte, error) {
	if count <= 0 || elemSize <= 0 {
		return nil, fmt.Errorf("%w: count=%d elemSize=%d", ErrInvalidSize, count, elemSize)
	}
	if count > (maxAllocSize)/elemSize {
		return nil, fmt.Errorf("%w: count=%d * elemSize=%d overflows", ErrInvalidSize, count, elemSize)
	}

	b, err := p.Alloc(count * elemSize)
	if err != nil {
		return nil, err
	}
	for i := range b {
		b[i] = 0
	}
	return b, nil
}

// maxAllocSize bounds the count*elemSize overflow check in AllocZeroed; any
// pool is far smaller than this in practice, so the check only needs to
// reject genuine int overflow, not compare against pool capacity (Alloc
// does that once the product is computed).
const maxAllocSize = int(^uint(0) >> 1)

// Realloc changes the size of the block backing b to n bytes.
//
// Per the spec: a nil b behaves as Alloc(n); n <= 0 frees b and returns nil;
// a b whose block is already free cannot be rescued and is treated as
// Alloc(n); shrinking keeps the existing block and its slack unreclaimed;
// growing allocates a new block, copies min(old, n) bytes, and only then
// frees the old block (alloc, copy, free - never free before copy, which
// would read already-released payload bytes).
func (p *Pool) Realloc(b []byte, n int) ([]byte, error) {
	if b == nil {
		return p.Alloc(n)
	}
	if n <= 0 {
		_ = p.Free(b)
		return nil, nil
	}

	payloadOff := p.offsetOf(b)
	hdrOff := payloadOff - uint64(headerSize)
	h := p.headerAt(hdrOff)
	if h.free == 1 {
		return p.Alloc(n)
	}

	cur := int(h.size)
	if n <= cur {
		return p.buf[payloadOff : payloadOff+uint64(n) : payloadOff+uint64(cur)], nil
	}

	newB, err := p.Alloc(n)
	if err != nil {
		return nil, err
	}
	copy(newB, b[:min(cur, n)])
	_ = p.Free(b)
	return newB, nil
}

func ptrOf(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}
