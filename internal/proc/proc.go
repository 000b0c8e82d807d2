// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package proc starts child processes with both output streams captured as
// pipes and exposes a handle with a non-blocking exit poll and a blocking
// wait. The handle owns the read ends of the pipes; the write ends are closed
// in the parent as soon as the child is running, so readers observe EOF when
// the child exits.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
)

// Proc is a handle to a running or exited child process.
type Proc struct {
	process *os.Process
	stdout  *os.File // read end of the child's stdout pipe
	stderr  *os.File // read end of the child's stderr pipe

	done    chan struct{}
	state   *os.ProcessState
	waitErr error
}

// Attr carries the optional process attributes for Start.
type Attr struct {
	Cwd string
	Env map[string]string
}

// Start launches argv[0] with the given arguments. Stdout and stderr are
// always piped, never inherited. The extra environment variables in attr.Env
// are appended to the parent's environment.
func Start(argv []string, attr Attr) (*Proc, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty argv", ErrCouldNotStartProcess)
	}

	path, err := exePath(argv[0])
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()

		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	env := os.Environ()
	for k, v := range attr.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	args := append([]string{filepath.Base(path)}, argv[1:]...)

	ps, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir:   attr.Cwd,
		Env:   env,
		Files: []*os.File{os.Stdin, wOut, wErr},
	})
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()
		_ = rErr.Close()
		_ = wErr.Close()

		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	// The child owns the write ends now. Closing our copies lets the read
	// ends reach EOF when the child exits.
	_ = wOut.Close()
	_ = wErr.Close()

	p := &Proc{
		process: ps,
		stdout:  rOut,
		stderr:  rErr,
		done:    make(chan struct{}),
	}

	go p.reap()

	return p, nil
}

// reap waits for the process and records its final state.
func (p *Proc) reap() {
	state, err := p.process.Wait()
	p.state = state
	p.waitErr = err
	close(p.done)
}

// Exited reports whether the process has terminated. It never blocks.
func (p *Proc) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process terminates and returns its exit code.
func (p *Proc) Wait() (int, error) {
	<-p.done

	if p.waitErr != nil {
		return -1, p.waitErr
	}

	return p.state.ExitCode(), nil
}

// Pid returns the operating system process identifier.
func (p *Proc) Pid() int {
	return p.process.Pid
}

// Signal sends sig to the process.
func (p *Proc) Signal(sig os.Signal) error {
	return p.process.Signal(sig) //nolint:wrapcheck
}

// Kill forcefully terminates the process. Killing an already finished
// process is not an error.
func (p *Proc) Kill() error {
	err := p.process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err //nolint:wrapcheck
	}

	return nil
}

// KillOnCancel kills the process when ctx is cancelled, so readers blocked on
// its pipes observe EOF and unwind. The returned stop function releases the
// watcher; call it once the process output has been consumed. The watcher
// also releases itself when the process exits on its own.
func (p *Proc) KillOnCancel(ctx context.Context) (stop func()) {
	stopCh := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			ctxlog.Debug(ctx, "context cancelled, killing process", "pid", p.Pid())

			_ = p.Kill()
		case <-p.done:
		case <-stopCh:
		}
	}()

	return func() { close(stopCh) }
}

// Stdout returns the read end of the child's stdout pipe.
func (p *Proc) Stdout() *os.File {
	return p.stdout
}

// Stderr returns the read end of the child's stderr pipe.
func (p *Proc) Stderr() *os.File {
	return p.stderr
}

// Close releases the pipe read ends. It does not terminate the process.
func (p *Proc) Close() error {
	return errors.Join(p.stdout.Close(), p.stderr.Close())
}

// exePath resolves name to an absolute executable path, searching PATH when
// name contains no separator.
func exePath(name string) (string, error) {
	if filepath.Base(name) != name {
		return name, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return path, nil
}
