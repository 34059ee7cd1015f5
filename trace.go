// Copyright 2024 The Poolalloc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package poolalloc

import (
	"fmt"
	"os"
)

// trace gates optional per-call tracing, mirroring the teacher package's own
// debug switch: a plain package-level flag plus fmt.Fprintf to stderr
// wrapping each call, rather than a structured logger, since there is
// nothing here worth aggregating or querying.
var trace = false

// SetTrace turns per-call tracing to stderr on or off for every Pool in
// the process. It is meant for interactive debugging (the -verbose flag of
// cmd/poolalloc-viz), not for production use.
func SetTrace(on bool) { trace = on }

func traceCall(format string, args ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// diag reports a diagnostic line for an error condition Free must not treat
// as fatal (null-free, double-free). Unlike traceCall, it is not gated by
// trace: the spec requires these to be user-visible regardless of verbosity.
func diag(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
