// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teex executes a command in a child process, simultaneously
// forwarding its stdout and stderr to the parent's streams in real time and
// capturing the full text of both for programmatic inspection.
//
// Per-stream output order is always preserved exactly. The interleaving
// between the two streams is best-effort only: it approximates, but does not
// guarantee, the child's wall-clock emission order.
package teex

import (
	"github.com/matt-FFFFFF/teex/internal/proc"
)

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)

// Proc is a handle to the child process. It remains valid after Run returns
// and can be polled, waited on or signalled by the caller.
type Proc = proc.Proc

// Result describes a completed (or, when detached, a started) command.
// It is immutable once returned.
type Result struct {
	// Out is the captured stdout text.
	Out string
	// Err is the captured stderr text.
	Err string
	// ExitCode is the child's exit code, or -1 when detached or killed by a
	// signal.
	ExitCode int
	// Proc is the handle to the child process. For non-detached runs its
	// pipe read ends are already closed; the captured text is in Out and Err.
	Proc *Proc
	// Command is the normalized command text.
	Command string
}
