// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package streammux

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/linescan"
	"golang.org/x/sys/unix"
)

const selectSupported = true

// selectable reports whether fd can be represented in a select(2) FdSet.
func selectable(fd int) bool {
	return fd >= 0 && fd < unix.FD_SETSIZE
}

func newSelectMux() Multiplexer {
	return selectMux{}
}

// selectMux multiplexes both streams from a single goroutine by blocking in
// select(2) until at least one descriptor is readable. One wakeup produces
// one record carrying up to one line per ready stream, so interleaving is
// wakeup-granular rather than chronological.
type selectMux struct{}

func (selectMux) Mux(ctx context.Context, src Source) <-chan Record {
	ofile, efile := src.Stdout(), src.Stderr()
	ofd, efd := int(ofile.Fd()), int(efile.Fd())

	// FdSet silently corrupts for descriptors beyond the select(2) range.
	if !selectable(ofd) || !selectable(efd) {
		ctxlog.Warn(ctx, "descriptor beyond select range, using goroutine strategy",
			"stdoutFd", ofd, "stderrFd", efd)

		return goroutineMux{}.Mux(ctx, src)
	}

	out := make(chan Record)

	go func() {
		defer close(out)

		oscan, escan := linescan.New(ofile), linescan.New(efile)
		oLive, eLive := true, true

		for (oLive || eLive) && !src.Exited() {
			// A scanner may hold decoded data beyond the line it last
			// returned; waiting on the descriptor would stall on it.
			oReady := oLive && oscan.Buffered() > 0
			eReady := eLive && escan.Buffered() > 0

			if !oReady && !eReady {
				var fds unix.FdSet

				nfd := 0

				if oLive {
					fds.Set(ofd)
					nfd = max(nfd, ofd)
				}

				if eLive {
					fds.Set(efd)
					nfd = max(nfd, efd)
				}

				if _, err := unix.Select(nfd+1, &fds, nil, nil, nil); err != nil {
					if errors.Is(err, unix.EINTR) {
						continue
					}

					ctxlog.Error(ctx, "select failed, abandoning streams", "error", err)

					return
				}

				oReady = oLive && fds.IsSet(ofd)
				eReady = eLive && fds.IsSet(efd)
			}

			var rec Record

			if oReady {
				line, err := oscan.ReadLine()
				if err != nil {
					logReadEnd(ctx, err)

					oLive = false
				} else {
					rec.Out = &line
				}
			}

			if eReady {
				line, err := escan.ReadLine()
				if err != nil {
					logReadEnd(ctx, err)

					eLive = false
				} else {
					rec.Err = &line
				}
			}

			if rec.Out != nil || rec.Err != nil {
				out <- rec
			}
		}

		// The process has exited; zip the residual lines of both streams
		// together until each is exhausted.
		for oLive || eLive {
			var rec Record

			if oLive {
				line, err := oscan.ReadLine()
				if err != nil {
					logReadEnd(ctx, err)

					oLive = false
				} else {
					rec.Out = &line
				}
			}

			if eLive {
				line, err := escan.ReadLine()
				if err != nil {
					logReadEnd(ctx, err)

					eLive = false
				} else {
					rec.Err = &line
				}
			}

			if rec.Out != nil || rec.Err != nil {
				out <- rec
			}
		}
	}()

	return out
}
