// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package streammux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeSource stands in for a child process: a pipe per stream and an exit
// flag the test controls.
type fakeSource struct {
	stdout, stderr *os.File
	wOut, wErr     *os.File
	exited         atomic.Bool
}

func newFakeSource(t *testing.T) *fakeSource {
	t.Helper()

	rOut, wOut, err := os.Pipe()
	require.NoError(t, err)

	rErr, wErr, err := os.Pipe()
	require.NoError(t, err)

	f := &fakeSource{stdout: rOut, stderr: rErr, wOut: wOut, wErr: wErr}

	t.Cleanup(func() {
		_ = rOut.Close()
		_ = rErr.Close()
	})

	return f
}

func (f *fakeSource) Exited() bool     { return f.exited.Load() }
func (f *fakeSource) Stdout() *os.File { return f.stdout }
func (f *fakeSource) Stderr() *os.File { return f.stderr }

// collect drains the record channel into per-stream line slices.
func collect(records <-chan Record) (outLines, errLines []string) {
	for rec := range records {
		if rec.Out != nil {
			outLines = append(outLines, *rec.Out)
		}

		if rec.Err != nil {
			errLines = append(errLines, *rec.Err)
		}
	}

	return outLines, errLines
}

func TestNew_BackendResolution(t *testing.T) {
	for _, b := range []Backend{BackendAuto, BackendGoroutine, BackendThread, ""} {
		mux, err := New(b)
		require.NoError(t, err, "backend %q should resolve", b)
		assert.IsType(t, goroutineMux{}, mux, "backend %q should resolve to the goroutine strategy", b)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("fibers")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNew_SelectBackendAvailability(t *testing.T) {
	mux, err := New(BackendSelect)

	if selectSupported {
		require.NoError(t, err)
		assert.NotNil(t, mux)

		return
	}

	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestGoroutineMux_PerStreamOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newFakeSource(t)

	const n = 100

	go func() {
		for i := 0; i < n; i++ {
			fmt.Fprintf(src.wOut, "out %d\n", i)
		}

		_ = src.wOut.Close()
	}()

	go func() {
		for i := 0; i < n; i++ {
			fmt.Fprintf(src.wErr, "err %d\n", i)
		}

		_ = src.wErr.Close()
	}()

	outLines, errLines := collect(goroutineMux{}.Mux(context.Background(), src))

	require.Len(t, outLines, n)
	require.Len(t, errLines, n)

	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("out %d\n", i), outLines[i])
		assert.Equal(t, fmt.Sprintf("err %d\n", i), errLines[i])
	}
}

func TestGoroutineMux_DrainAfterExit(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newFakeSource(t)

	// All output is already buffered in the pipes when the process is
	// observed as exited; every line must still be drained.
	fmt.Fprint(src.wOut, "a\nb\n")
	fmt.Fprint(src.wErr, "c\n")
	require.NoError(t, src.wOut.Close())
	require.NoError(t, src.wErr.Close())
	src.exited.Store(true)

	outLines, errLines := collect(goroutineMux{}.Mux(context.Background(), src))

	assert.Equal(t, []string{"a\n", "b\n"}, outLines)
	assert.Equal(t, []string{"c\n"}, errLines)
}

func TestGoroutineMux_FinalUnterminatedLine(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newFakeSource(t)

	fmt.Fprint(src.wOut, "done\nno newline")
	require.NoError(t, src.wOut.Close())
	require.NoError(t, src.wErr.Close())

	outLines, errLines := collect(goroutineMux{}.Mux(context.Background(), src))

	assert.Equal(t, []string{"done\n", "no newline"}, outLines)
	assert.Empty(t, errLines)
}

func TestGoroutineMux_OneSilentStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newFakeSource(t)

	fmt.Fprint(src.wErr, "only stderr\n")
	require.NoError(t, src.wOut.Close())
	require.NoError(t, src.wErr.Close())

	outLines, errLines := collect(goroutineMux{}.Mux(context.Background(), src))

	assert.Empty(t, outLines)
	assert.Equal(t, []string{"only stderr\n"}, errLines)
}

// failingReader yields its data on the first read, then fails with a
// non-EOF error.
type failingReader struct {
	data string
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true

		return copy(p, r.data), nil
	}

	return 0, errors.New("input/output error")
}

func TestGoroutineMux_ReadErrorAbandonsOnlyThatStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{}

	stdout := streamLines(context.Background(), src, &failingReader{data: "o1\n"})
	stderr := streamLines(context.Background(), src, strings.NewReader("e1\ne2\ne3\n"))

	outLines, errLines := collect(merge(stdout, stderr))

	assert.Equal(t, []string{"o1\n"}, outLines, "lines read before the failure are kept")
	assert.Equal(t, []string{"e1\n", "e2\n", "e3\n"}, errLines, "the healthy stream still drains completely")
}

func TestGoroutineMux_RecordAlwaysCarriesALine(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newFakeSource(t)

	fmt.Fprint(src.wOut, "x\n")
	fmt.Fprint(src.wErr, "y\n")
	require.NoError(t, src.wOut.Close())
	require.NoError(t, src.wErr.Close())

	for rec := range (goroutineMux{}).Mux(context.Background(), src) {
		assert.True(t, rec.Out != nil || rec.Err != nil, "a record must carry at least one line")
	}
}
