// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tee runs a child process while simultaneously forwarding its
// output to the caller's sinks and capturing it for later inspection.
package tee

import (
	"context"
	"io"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/proc"
	"github.com/matt-FFFFFF/teex/internal/streammux"
)

// Options configures a tee run. A nil sink disables forwarding for that side;
// capture happens regardless.
type Options struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Backend streammux.Backend
}

// flusher is the subset of buffered writers we flush after each line so
// interactive consumers see output in real time.
type flusher interface {
	Flush() error
}

// Run validates the backend, starts the process via factory and drives the
// multiplexer to exhaustion. Every produced line is appended to its side's
// capture slice and, when a sink is present, written through immediately.
//
// Run returns without waiting for the process to terminate: by the time the
// streams are exhausted the process has usually exited, but the exit code is
// the caller's to collect via the returned handle.
func Run(ctx context.Context, factory func() (*proc.Proc, error), opts Options) (*proc.Proc, []string, []string, error) {
	// Resolve the strategy before spawning anything so a bad configuration
	// never leaves a stray child behind.
	mux, err := streammux.New(opts.Backend)
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := factory()
	if err != nil {
		return nil, nil, nil, err
	}

	// Cancellation kills the child, which EOFs both pipes and unwinds the
	// merge loop below.
	stop := p.KillOnCancel(ctx)
	defer stop()

	ctxlog.Debug(ctx, "teeing process output", "pid", p.Pid(), "backend", opts.Backend)

	var outLines, errLines []string

	for rec := range mux.Mux(ctx, p) {
		if rec.Out != nil {
			forward(opts.Stdout, *rec.Out)

			outLines = append(outLines, *rec.Out)
		}

		if rec.Err != nil {
			forward(opts.Stderr, *rec.Err)

			errLines = append(errLines, *rec.Err)
		}
	}

	ctxlog.Debug(ctx, "streams exhausted", "stdoutLines", len(outLines), "stderrLines", len(errLines))

	return p, outLines, errLines, nil
}

// forward writes one line to the sink and flushes it straight away.
func forward(w io.Writer, line string) {
	if w == nil {
		return
	}

	_, _ = io.WriteString(w, line)

	if f, ok := w.(flusher); ok {
		_ = f.Flush()
	}
}
