// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linescan reads a stream as a lazy sequence of newline-terminated
// lines. A final fragment without a trailing newline is still yielded, once.
package linescan

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
)

// Scanner produces lines from a reader. It is not restartable and must only
// be used by a single reader at a time.
type Scanner struct {
	r *bufio.Reader
}

// New returns a Scanner reading from r.
func New(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// ReadLine blocks until a full line is available and returns it including the
// trailing newline. At end of stream a final unterminated fragment is
// returned with a nil error; the call after that returns io.EOF. A read on a
// closed pipe is treated as end of stream, any other error is returned as-is.
func (s *Scanner) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == nil {
		return line, nil
	}

	if errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		if line != "" {
			return line, nil
		}

		return "", io.EOF
	}

	return line, err //nolint:wrapcheck
}

// Buffered reports the number of bytes already read from the stream but not
// yet consumed as lines. Used by the readiness-based multiplexer, which must
// not wait on a descriptor while decoded data is still pending.
func (s *Scanner) Buffered() int {
	return s.r.Buffered()
}
