// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poolalloc

import (
	"testing"

	"github.com/cznic/mathutil"
)

// checkInvariants walks p and re-derives the free list two different ways,
// then cross-checks them against the spec's quantified invariants (spec.md
// section 8, items 1-4): exact contiguous coverage, no gaps/overlaps, no
// adjacent free pair, and free-list membership matching the walk exactly.
func checkInvariants(t *testing.T, p *Pool, step int) {
	t.Helper()

	covered := 0
	var prevFree bool
	var prevSeen bool
	walked := map[int]bool{}
	p.Walk(func(b Block) bool {
		if b.Offset != covered {
			t.Fatalf("step %d: gap/overlap at offset %d, expected %d", step, b.Offset, covered)
		}
		if b.Size < 1 {
			t.Fatalf("step %d: zero-sized block at offset %d", step, b.Offset)
		}
		if prevSeen && prevFree && b.Free {
			t.Fatalf("step %d: adjacent free blocks at offset %d", step, b.Offset)
		}
		walked[b.Offset] = b.Free
		covered += HeaderSize() + b.Size
		prevFree = b.Free
		prevSeen = true
		return true
	})
	if covered != p.Size() {
		t.Fatalf("step %d: walk covered %d bytes, want %d", step, covered, p.Size())
	}

	listed := map[int]bool{}
	lastOffset := -1
	for _, b := range p.FreeList() {
		if b.Offset <= lastOffset {
			t.Fatalf("step %d: free list not strictly address-increasing at offset %d", step, b.Offset)
		}
		lastOffset = b.Offset
		listed[b.Offset] = true
	}

	for off, free := range walked {
		if free != listed[off] {
			t.Fatalf("step %d: block at %d free=%v but free-list membership=%v", step, off, free, listed[off])
		}
	}
	for off := range listed {
		if !walked[off] {
			t.Fatalf("step %d: free list references offset %d not seen by Walk", step, off)
		}
	}
}

// TestPropertyRandomOpSequence drives a long, seeded random sequence of
// Alloc/Free calls - using the same full-cycle PRNG
// (github.com/cznic/mathutil.FC32) the teacher package uses for its own
// randomized Malloc/Free soak test - checking the spec's quantified
// invariants after every single operation.
func TestPropertyRandomOpSequence(t *testing.T) {
	const poolSize = 4096
	p, err := New(poolSize)
	if err != nil {
		t.Fatal(err)
	}

	rng, err := mathutil.NewFC32(1, 512, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(42)

	var live [][]byte
	const ops = 5000
	for i := 0; i < ops; i++ {
		if len(live) == 0 || rng.Next()%2 == 0 {
			n := rng.Next()
			b, err := p.Alloc(n)
			if err == nil {
				if len(b) != n {
					t.Fatalf("op %d: Alloc(%d) returned len %d", i, n, len(b))
				}
				live = append(live, b)
			}
		} else {
			idx := rng.Next() % len(live)
			if err := p.Free(live[idx]); err != nil {
				t.Fatalf("op %d: Free of a live pointer failed: %v", i, err)
			}
			live = append(live[:idx], live[idx+1:]...)
		}
		checkInvariants(t, p, i)
	}

	for _, b := range live {
		if err := p.Free(b); err != nil {
			t.Fatalf("final drain: %v", err)
		}
	}
	checkInvariants(t, p, ops)

	blocks := p.Blocks()
	if len(blocks) != 1 || !blocks[0].Free || blocks[0].Size != poolSize-HeaderSize() {
		t.Fatalf("pool did not return to a single free block after draining, got %+v", blocks)
	}
}

// TestPropertyAllocSucceedsTwice checks the round-trip law from spec.md
// section 8: alloc(n); free(p); alloc(n) succeeds both times whenever the
// first alloc(n) succeeds from the initial state.
func TestPropertyAllocSucceedsTwice(t *testing.T) {
	p, err := New(1024)
	if err != nil {
		t.Fatal(err)
	}
	rng, err := mathutil.NewFC32(1, 900, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(7)

	for i := 0; i < 200; i++ {
		p.Reset()
		n := rng.Next()
		b1, err := p.Alloc(n)
		if err != nil {
			continue // n too large for this pool; not part of the law's premise
		}
		if err := p.Free(b1); err != nil {
			t.Fatalf("trial %d: Free: %v", i, err)
		}
		if _, err := p.Alloc(n); err != nil {
			t.Fatalf("trial %d: second Alloc(%d) failed: %v", i, n, err)
		}
	}
}

// TestPropertyAllocSizeInvariant checks the size half of invariant 5: any
// successful Alloc(n) returns a usable capacity (the block's header size) of
// at least align_up(n, WORD). It does not check the block's free flag.
func TestPropertyAllocSizeInvariant(t *testing.T) {
	p, err := New(2048)
	if err != nil {
		t.Fatal(err)
	}
	rng, err := mathutil.NewFC32(1, 400, true)
	if err != nil {
		t.Fatal(err)
	}
	rng.Seed(99)

	for i := 0; i < 100; i++ {
		n := rng.Next()
		b, err := p.Alloc(n)
		if err != nil {
			continue
		}
		aligned := alignUp(n, p.Alignment())
		if cap(b) < aligned {
			t.Fatalf("trial %d: Alloc(%d) usable capacity %d < align_up = %d", i, n, cap(b), aligned)
		}
	}
}
