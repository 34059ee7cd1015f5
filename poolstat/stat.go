// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package poolstat reports allocation statistics for a poolalloc.Pool by
// walking its blocks, in the spirit of the AllocStats collaborator the
// wider cznic allocator family (github.com/cznic/lldb's Allocator) exposes
// from its own Verify pass.
package poolstat

import (
	"github.com/cznic/mathutil"

	"github.com/nyxar/poolalloc"
)

// Stats summarizes one snapshot of a pool's block layout.
type Stats struct {
	TotalBlocks     int // free + allocated blocks
	AllocatedBlocks int
	FreeBlocks      int
	AllocatedBytes  int // sum of allocated payload sizes
	FreeBytes       int // sum of free payload sizes
	HeaderBytes     int // total header overhead across all blocks
	LargestFree     int // size of the largest free block (0 if none)

	// SizeClasses buckets allocated blocks by the bit length of their
	// payload size (a coarse size-class histogram, the same bucketing
	// cznic/mathutil.BitLen gives the teacher package's own slot-size
	// classification). Index i counts allocated blocks whose size is in
	// [1<<(i-1), 1<<i), with index 0 reserved for size 0 (never produced
	// by this allocator, kept for a clean 1:1 BitLen mapping).
	SizeClasses [64]int
}

// Collect walks p and computes a fresh Stats snapshot. It performs no
// mutation and takes no lock, so it must not run while another goroutine
// mutates p; poolsafe.Pool has no Collect method of its own.
func Collect(p *poolalloc.Pool) Stats {
	var s Stats
	p.Walk(func(b poolalloc.Block) bool {
		s.TotalBlocks++
		s.HeaderBytes += poolalloc.HeaderSize()
		if b.Free {
			s.FreeBlocks++
			s.FreeBytes += b.Size
			if b.Size > s.LargestFree {
				s.LargestFree = b.Size
			}
			return true
		}

		s.AllocatedBlocks++
		s.AllocatedBytes += b.Size
		class := mathutil.BitLen(b.Size)
		if class >= len(s.SizeClasses) {
			class = len(s.SizeClasses) - 1
		}
		s.SizeClasses[class]++
		return true
	})
	return s
}
