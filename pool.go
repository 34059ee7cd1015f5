// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poolalloc

import (
	"fmt"
	"unsafe"
)

const (
	// defaultPoolSize is POOL_SIZE from the spec: the default capacity of a
	// pool created with no explicit size.
	defaultPoolSize = 1024

	// defaultAlignment is WORD from the spec: payload sizes are rounded up
	// to this boundary before search and split.
	defaultAlignment = 8

	// nullOffset is the in-band ⊥ sentinel for next_free / no-successor.
	// Block 0 is always allocated-or-free header territory, never a
	// "no block" marker, so the all-ones pattern is free for that purpose.
	nullOffset = ^uint64(0)
)

// header is the in-band block header threaded through the pool. size is the
// payload length in bytes; free distinguishes free (1) from allocated (0);
// next is the offset, from the start of the pool, of the next free block by
// address, meaningful only while free == 1.
//
// Three uint64 fields keep the header itself a multiple of any alignment up
// to 8 bytes (the spec's worked examples assume H == 24, which is exactly
// unsafe.Sizeof(header{})).
type header struct {
	size uint64
	free uint64
	next uint64
}

const headerSize = int(unsafe.Sizeof(header{}))

// HeaderSize reports H, the per-block metadata overhead in bytes. It is
// fixed for the lifetime of the process (the header always holds three
// 8-byte fields), regardless of any pool's configured alignment.
func HeaderSize() int { return headerSize }

// Block describes one in-memory block as reported by Walk: a Walker yields
// these in contiguous address order, free or allocated.
type Block struct {
	Offset int
	Size   int
	Free   bool
}

// Pool is a fixed-capacity byte region managed as a first-fit,
// boundary-tag-style heap. The zero value is not usable; construct one with
// New. A Pool is not safe for concurrent use - see the poolsafe subpackage
// for a mutex-guarded wrapper.
type Pool struct {
	buf          []byte
	alignment    int
	freeListHead uint64
}

// Option configures a Pool at construction time.
type Option func(*poolConfig)

type poolConfig struct {
	alignment int
}

// WithAlignment overrides the default 8-byte payload alignment. alignment
// must be a power of two that evenly divides the block header size.
func WithAlignment(alignment int) Option {
	return func(c *poolConfig) { c.alignment = alignment }
}

// New allocates a pool of the given capacity in bytes and initializes it to
// a single free block spanning the whole pool, mirroring initialize_pool.
func New(size int, opts ...Option) (*Pool, error) {
	cfg := poolConfig{alignment: defaultAlignment}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.alignment <= 0 || cfg.alignment&(cfg.alignment-1) != 0 {
		return nil, fmt.Errorf("poolalloc: alignment %d is not a positive power of two", cfg.alignment)
	}
	if headerSize%cfg.alignment != 0 {
		return nil, fmt.Errorf("poolalloc: header size %d is not a multiple of alignment %d", headerSize, cfg.alignment)
	}
	if size <= headerSize {
		return nil, fmt.Errorf("%w: pool size %d must exceed header size %d", ErrInvalidSize, size, headerSize)
	}

	p := &Pool{
		buf:       make([]byte, size),
		alignment: cfg.alignment,
	}
	p.Reset()
	return p, nil
}

// NewDefault constructs a Pool using POOL_SIZE=1024 and ALIGNMENT=8, the
// spec's default configuration.
func NewDefault() *Pool {
	p, err := New(defaultPoolSize)
	if err != nil {
		// defaultPoolSize/defaultAlignment are compile-time constants known
		// to satisfy New's preconditions.
		panic(err)
	}
	return p
}

// Reset (re)creates one maximally sized free block covering the whole pool.
// It is the Go name for initialize_pool: idempotent, always succeeds, and
// invalidates every pointer previously returned by Alloc/AllocZeroed/Realloc
// on this Pool.
func (p *Pool) Reset() {
	for i := range p.buf {
		p.buf[i] = 0
	}
	h := p.headerAt(0)
	h.size = uint64(len(p.buf) - headerSize)
	h.free = 1
	h.next = nullOffset
	p.freeListHead = 0
}

// Size reports the pool's total capacity in bytes (POOL_SIZE).
func (p *Pool) Size() int { return len(p.buf) }

// Alignment reports the payload alignment in effect for this pool.
func (p *Pool) Alignment() int { return p.alignment }

// headerAt reifies the header stored at byte offset off in the pool.
func (p *Pool) headerAt(off uint64) *header {
	return (*header)(unsafe.Pointer(&p.buf[off]))
}

// offsetOf returns the pool-relative byte offset of the payload backing b,
// i.e. the position immediately after its header. It does not validate that
// b was actually returned by this Pool; per the spec, pointer validity is
// the caller's responsibility beyond the free-flag test performed by Free.
func (p *Pool) offsetOf(b []byte) uint64 {
	base := uintptr(unsafe.Pointer(&p.buf[0]))
	ptr := uintptr(unsafe.Pointer(&b[0]))
	return uint64(ptr - base)
}

// payload returns the byte slice for the block's payload at header offset
// hdrOff, with the given requested length and the block's full usable
// capacity.
func (p *Pool) payload(hdrOff uint64, length, capacity int) []byte {
	start := hdrOff + uint64(headerSize)
	return p.buf[start : start+uint64(length) : start+uint64(capacity)]
}

// alignUp rounds n up to the next multiple of m. m must be a power of two.
func alignUp(n, m int) int { return (n + m - 1) &^ (m - 1) }

// Walk visits every in-memory block, free or allocated, in contiguous
// address order starting at the beginning of the pool, stopping when
// visit returns false or the walk reaches the end of the pool. It never
// mutates pool state; this is the read-only iterator used by visualisers
// and by the property tests to check invariants 1-4 of the spec.
func (p *Pool) Walk(visit func(Block) bool) {
	off := 0
	for off < len(p.buf) {
		h := p.headerAt(uint64(off))
		b := Block{Offset: off, Size: int(h.size), Free: h.free == 1}
		if !visit(b) {
			return
		}
		off += headerSize + int(h.size)
	}
}

// Blocks is a convenience wrapper around Walk that collects every block
// into a slice, in contiguous address order.
func (p *Pool) Blocks() []Block {
	var out []Block
	p.Walk(func(b Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

// FreeList returns the blocks reachable from the free-list head, in address
// order, without consulting the contiguous layout. It exists mainly for
// tests asserting invariant 3 (address order) and invariant 4 (free-list
// completeness) independently of Walk.
func (p *Pool) FreeList() []Block {
	var out []Block
	cur := p.freeListHead
	for cur != nullOffset {
		h := p.headerAt(cur)
		out = append(out, Block{Offset: int(cur), Size: int(h.size), Free: true})
		cur = h.next
	}
	return out
}
