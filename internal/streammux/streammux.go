// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package streammux merges the stdout and stderr streams of a child process
// into a single sequence of records, one strategy per platform capability.
//
// The goroutine strategy reads each stream on its own goroutine and merges
// through small hand-off channels. The select strategy blocks in select(2)
// over both descriptors and uses no extra goroutine readers; it is only
// available on POSIX platforms.
//
// Per-stream line order is always exact. The interleaving between the two
// streams is best-effort: consumer speed and scheduling can reorder lines
// across streams relative to wall-clock emission. This is accepted behavior,
// not a defect.
package streammux

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Backend names a multiplexing strategy.
type Backend string

const (
	// BackendAuto resolves to the goroutine strategy.
	BackendAuto Backend = "auto"
	// BackendGoroutine reads each stream on a dedicated goroutine.
	BackendGoroutine Backend = "goroutine"
	// BackendThread is an accepted alias for BackendGoroutine.
	BackendThread Backend = "thread"
	// BackendSelect waits for descriptor readiness, POSIX only. Descriptors
	// beyond the select(2) range fall back to the goroutine strategy.
	BackendSelect Backend = "select"
)

var (
	// ErrUnknownBackend is returned when the backend name is not recognized.
	ErrUnknownBackend = errors.New(`backend must be "auto", "goroutine", "thread" or "select"`)
	// ErrUnsupportedBackend is returned when the select backend is requested on a non-POSIX platform.
	ErrUnsupportedBackend = errors.New("select backend is only available on POSIX platforms")
)

// Record is one merge iteration. At least one side is set; nil means that
// stream produced nothing this iteration. Lines include their trailing
// newline except for a final unterminated fragment.
type Record struct {
	Out *string
	Err *string
}

// Source is the view of a running child process needed by a multiplexer.
// Each stream is read by exactly one owner for the lifetime of the merge.
type Source interface {
	// Exited reports whether the process has terminated, without blocking.
	Exited() bool
	// Stdout returns the read end of the child's stdout pipe.
	Stdout() *os.File
	// Stderr returns the read end of the child's stderr pipe.
	Stderr() *os.File
}

// Multiplexer merges both output streams of a child process.
type Multiplexer interface {
	// Mux consumes src's streams until both are exhausted. The returned
	// channel carries one Record per merge iteration and is closed after
	// both streams have ended. Mux must be called at most once per source.
	Mux(ctx context.Context, src Source) <-chan Record
}

// New resolves a backend name to a strategy. Unknown names and platform
// mismatches are reported here, before any process is spawned.
func New(b Backend) (Multiplexer, error) {
	switch b {
	case BackendAuto, BackendGoroutine, BackendThread, "":
		// Auto picks the goroutine strategy: portable and well proven,
		// at the cost of two reader goroutines per process.
		return goroutineMux{}, nil
	case BackendSelect:
		if !selectSupported {
			return nil, ErrUnsupportedBackend
		}

		return newSelectMux(), nil
	default:
		return nil, fmt.Errorf("%w: got %q", ErrUnknownBackend, b)
	}
}
