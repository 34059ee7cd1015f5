// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command poolalloc-viz is the process entry point and command dispatcher
// for poolalloc: the driver and pretty-printer the core library itself
// deliberately leaves as an external collaborator. It runs a scripted demo
// allocation sequence against a fresh Pool, printing the bracketed
// per-block layout after each step.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nyxar/poolalloc"
)

func main() {
	var (
		size      int
		alignment int
		timing    bool
		verbose   bool
	)
	flag.IntVar(&size, "size", 1024, "pool capacity in bytes")
	flag.IntVar(&alignment, "alignment", 8, "payload alignment in bytes")
	flag.BoolVar(&timing, "timing", false, "print wall-clock time taken by each operation")
	flag.BoolVar(&verbose, "verbose", false, "trace every Alloc/Free call to stderr")
	flag.Parse()

	poolalloc.SetTrace(verbose)

	pool, err := poolalloc.New(size, poolalloc.WithAlignment(alignment))
	if err != nil {
		fatalf("creating pool: %v", err)
	}

	d := &driver{pool: pool, timing: timing, out: os.Stdout}
	d.run()
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "poolalloc-viz: "+format+"\n", args...)
	os.Exit(1)
}

type driver struct {
	pool   *poolalloc.Pool
	timing bool
	out    io.Writer
}

// run replays the original allocator's worked demo: four equal allocations,
// three interleaved frees (the last of which right- then left-coalesces),
// and two follow-up allocations: the first is carved from the coalesced
// region at the start of the pool, the second is too large for what remains
// of it and lands in the tail free block.
func (d *driver) run() {
	p1 := d.alloc("alloc p1 (100 bytes)", 100)
	p2 := d.alloc("alloc p2 (100 bytes)", 100)
	p3 := d.alloc("alloc p3 (100 bytes)", 100)
	p4 := d.alloc("alloc p4 (100 bytes)", 100)

	d.free("free p1", p1)
	d.free("free p3", p3)
	d.free("free p2", p2)

	d.alloc("alloc p5 (200 bytes)", 200)
	d.alloc("alloc p6 (300 bytes)", 300)

	_ = p4
}

func (d *driver) alloc(label string, n int) []byte {
	start := time.Now()
	b, err := d.pool.Alloc(n)
	d.report(label, time.Since(start))
	if err != nil {
		fmt.Fprintf(d.out, "%s failed: %v\n", label, err)
		return nil
	}
	visualize(d.out, d.pool)
	return b
}

func (d *driver) free(label string, b []byte) {
	start := time.Now()
	err := d.pool.Free(b)
	d.report(label, time.Since(start))
	if err != nil {
		fmt.Fprintf(d.out, "%s failed: %v\n", label, err)
	}
	visualize(d.out, d.pool)
}

func (d *driver) report(label string, took time.Duration) {
	if !d.timing {
		return
	}
	fmt.Fprintf(d.out, "%s took %s\n", label, took)
}

// visualize walks the pool contiguously and prints each block's metadata
// and payload byte range to w, reconstructing the original
// visualize_memory_pool() trace format: "[META-DATA]:[a]-[b]--[KIND:
// SIZE(n)]:[c]-[d]." per block.
func visualize(w io.Writer, p *poolalloc.Pool) {
	fmt.Fprintln(w)
	p.Walk(func(b poolalloc.Block) bool {
		metaStart := b.Offset
		metaEnd := metaStart + poolalloc.HeaderSize() - 1
		blockEnd := metaEnd + b.Size
		kind := "Allocated-DATA"
		if b.Free {
			kind = "FREE-DATA"
		}
		fmt.Fprintf(w, "[META-DATA]:[%d]-[%d]--[%s: SIZE(%d)]:[%d]-[%d].", metaStart, metaEnd, kind, b.Size, metaEnd+1, blockEnd)
		return true
	})
	fmt.Fprintln(w)
}
