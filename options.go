// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teex

import (
	"io"

	"github.com/matt-FFFFFF/teex/internal/streammux"
)

// options collects the per-run configuration. Zero values give a quiet,
// captured, non-shell foreground run.
type options struct {
	shell   bool
	detach  bool
	verbose int
	tee     *bool
	backend streammux.Backend
	cwd     string
	env     map[string]string
	stdout  io.Writer
	stderr  io.Writer
}

// Option implements a functional options pattern for Run.
type Option func(*options)

// WithShell runs the command through the system shell ("/bin/sh -c" on
// POSIX, "cmd /c" on Windows).
func WithShell() Option {
	return func(o *options) {
		o.shell = true
	}
}

// WithDetach starts the process and returns immediately without teeing or
// waiting. The caller owns the returned handle.
func WithDetach() Option {
	return func(o *options) {
		o.detach = true
	}
}

// WithVerbose sets the verbosity level, 0 to 3. Level 1 and above enables
// teeing by default, level 2 adds a prompt-style header, level 3 adds
// start/end rules.
func WithVerbose(level int) Option {
	return func(o *options) {
		o.verbose = level
	}
}

// WithTee overrides the tee default. When false, output is captured without
// being forwarded.
func WithTee(tee bool) Option {
	return func(o *options) {
		o.tee = &tee
	}
}

// WithTeeBackend selects the multiplexing strategy: "auto", "goroutine",
// "thread" (alias) or "select" (POSIX only).
func WithTeeBackend(backend string) Option {
	return func(o *options) {
		o.backend = streammux.Backend(backend)
	}
}

// WithCwd sets the working directory for the child process.
func WithCwd(cwd string) Option {
	return func(o *options) {
		o.cwd = cwd
	}
}

// WithEnv appends environment variables to the child's environment.
func WithEnv(env map[string]string) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithStdout sets the forward sink for the child's stdout, replacing the
// default os.Stdout. A nil writer disables forwarding for that side.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithStderr sets the forward sink for the child's stderr, replacing the
// default os.Stderr. A nil writer disables forwarding for that side.
func WithStderr(w io.Writer) Option {
	return func(o *options) {
		o.stderr = w
	}
}
