// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for OS termination signals. The first signal
// of a type is left for the child process to handle (an interactive Ctrl-C
// reaches the whole foreground process group); the second signal of the same
// type cancels the context so the CLI can stop waiting and clean up.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// New returns a channel receiving the given signals, defaulting to the
// standard termination set.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker listening", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Watch consumes sigCh and cancels the context when a second signal of the
// same type arrives. It returns when the channel is closed or after
// cancelling.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := seen[sig]; ok {
			ctxlog.Info(ctx, "second signal of type received, cancelling", "signal", sig.String())
			close(sigCh)
			cancel()

			return
		}

		ctxlog.Info(ctx, "signal received, waiting for child", "signal", sig.String())

		seen[sig] = struct{}{}
	}
}
