// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package streammux

import (
	"context"
	"io"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/linescan"
)

// lineQueueCapacity bounds the per-stream hand-off channel. A single slot
// keeps memory bounded and makes the reader goroutine block until the merge
// loop has taken the previous line.
const lineQueueCapacity = 1

// goroutineMux reads each stream on its own goroutine. The merge loop blocks
// on whichever stream produces next, so neither stream can stall the other.
type goroutineMux struct{}

func (goroutineMux) Mux(ctx context.Context, src Source) <-chan Record {
	stdout := streamLines(ctx, src, src.Stdout())
	stderr := streamLines(ctx, src, src.Stderr())

	return merge(stdout, stderr)
}

// merge combines two per-stream line channels into a single record stream.
// A closed channel marks its stream complete; the other stream carries on
// until both are done.
func merge(stdout, stderr <-chan string) <-chan Record {
	out := make(chan Record)

	go func() {
		defer close(out)

		for stdout != nil || stderr != nil {
			var rec Record

			select {
			case line, ok := <-stdout:
				if !ok {
					stdout = nil
					continue
				}

				rec.Out = &line

				// Pair up a stderr line if one is already waiting.
				if stderr != nil {
					select {
					case eline, ok := <-stderr:
						if !ok {
							stderr = nil
						} else {
							rec.Err = &eline
						}
					default:
					}
				}
			case line, ok := <-stderr:
				if !ok {
					stderr = nil
					continue
				}

				rec.Err = &line

				if stdout != nil {
					select {
					case oline, ok := <-stdout:
						if !ok {
							stdout = nil
						} else {
							rec.Out = &oline
						}
					default:
					}
				}
			}

			out <- rec
		}
	}()

	return out
}

// streamLines reads lines from r until the stream ends and sends them on the
// returned channel. While the process is live each line is read with a
// blocking read; once the process has exited the remaining buffered data is
// drained. The channel close is the completion sentinel and always comes
// last, exactly once.
func streamLines(ctx context.Context, src Source, r io.Reader) <-chan string {
	ch := make(chan string, lineQueueCapacity)

	go func() {
		defer close(ch)

		sc := linescan.New(r)

		for !src.Exited() {
			line, err := sc.ReadLine()
			if err != nil {
				logReadEnd(ctx, err)
				return
			}

			ch <- line
		}

		// Process has exited: drain whatever is left in the pipe.
		for {
			line, err := sc.ReadLine()
			if err != nil {
				logReadEnd(ctx, err)
				return
			}

			ch <- line
		}
	}()

	return ch
}

// logReadEnd records why a stream stopped producing. EOF is the normal end
// of stream; anything else ends that stream's contribution early while the
// other stream carries on.
func logReadEnd(ctx context.Context, err error) {
	if err == io.EOF {
		return
	}

	ctxlog.Error(ctx, "stream read failed, stream abandoned", "error", err)
}
