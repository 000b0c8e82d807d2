// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/proc"
	"github.com/matt-FFFFFF/teex/internal/tee"
	shellwords "github.com/mattn/go-shellwords"
)

// ErrParseCommand is returned when a command string cannot be split into words.
var ErrParseCommand = errors.New("failed to parse command string")

// Run executes a command given as a single text string. Unless WithShell is
// set, the string is split into words with POSIX shell rules.
//
// The returned Result carries the captured stdout and stderr text, the exit
// code of the fully terminated process, the process handle and the
// normalized command text. When WithDetach is set, Run returns immediately
// after starting the process; only Proc and Command are populated.
func Run(ctx context.Context, command string, opts ...Option) (*Result, error) {
	o := defaultOptions(opts)

	argv, err := normalizeText(command, o.shell)
	if err != nil {
		return nil, err
	}

	return run(ctx, command, argv, o)
}

// RunArgs executes a command given as an argv list. The normalized command
// text in the Result is the shell-quoted join of the list.
func RunArgs(ctx context.Context, argv []string, opts ...Option) (*Result, error) {
	o := defaultOptions(opts)

	text := joinCommand(argv)

	if o.shell {
		argv = shellArgv(text)
	}

	return run(ctx, text, argv, o)
}

func defaultOptions(opts []Option) *options {
	o := &options{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func run(ctx context.Context, text string, argv []string, o *options) (*Result, error) {
	teeing := o.verbose > 0
	if o.tee != nil {
		teeing = *o.tee
	}

	if o.verbose > 1 {
		printBanner(o.stdout, text, o.cwd, o.verbose)
	}

	factory := func() (*proc.Proc, error) {
		// Deferred so that all validation happens before anything is spawned.
		return proc.Start(argv, proc.Attr{Cwd: o.cwd, Env: o.env})
	}

	if o.detach {
		p, err := factory()
		if err != nil {
			return nil, err
		}

		ctxlog.Debug(ctx, "detached from process", "pid", p.Pid())

		if o.verbose > 0 && o.stdout != nil {
			fmt.Fprintln(o.stdout, "...detaching")
		}

		return &Result{ExitCode: -1, Proc: p, Command: text}, nil
	}

	var (
		p            *proc.Proc
		out, errText string
		err          error
	)

	if teeing {
		p, out, errText, err = teeRun(ctx, factory, o)
	} else {
		p, out, errText, err = plainRun(ctx, factory)
	}

	if err != nil {
		return nil, err
	}

	// Waiting here guarantees the exit code reflects a fully terminated
	// process before the result is assembled.
	ret, err := p.Wait()
	if err != nil {
		return nil, err
	}

	// Capture is complete; release the pipe read ends.
	_ = p.Close()

	if o.verbose > 2 && o.stdout != nil {
		fmt.Fprintln(o.stdout, "└─── END CMD ───")
	}

	return &Result{
		Out:      out,
		Err:      errText,
		ExitCode: ret,
		Proc:     p,
		Command:  text,
	}, nil
}

// teeRun forwards and captures both streams line by line.
func teeRun(ctx context.Context, factory func() (*proc.Proc, error), o *options) (*proc.Proc, string, string, error) {
	p, outLines, errLines, err := tee.Run(ctx, factory, tee.Options{
		Stdout:  o.stdout,
		Stderr:  o.stderr,
		Backend: o.backend,
	})
	if err != nil {
		return nil, "", "", err
	}

	return p, joinLines(outLines), joinLines(errLines), nil
}

// plainRun captures both streams without forwarding. The streams are read
// concurrently so neither pipe can fill and stall the child.
func plainRun(ctx context.Context, factory func() (*proc.Proc, error)) (*proc.Proc, string, string, error) {
	p, err := factory()
	if err != nil {
		return nil, "", "", err
	}

	stop := p.KillOnCancel(ctx)
	defer stop()

	var (
		wg      sync.WaitGroup
		errData []byte
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		var rerr error

		errData, rerr = io.ReadAll(p.Stderr())
		if rerr != nil {
			ctxlog.Error(ctx, "stderr read failed, capture truncated", "error", rerr)
		}
	}()

	outData, rerr := io.ReadAll(p.Stdout())
	if rerr != nil {
		ctxlog.Error(ctx, "stdout read failed, capture truncated", "error", rerr)
	}

	wg.Wait()

	return p, repairUTF8(string(outData)), repairUTF8(string(errData)), nil
}

// normalizeText derives the spawn argv from a command string.
func normalizeText(command string, shell bool) ([]string, error) {
	if shell {
		return shellArgv(command), nil
	}

	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, errors.Join(ErrParseCommand, err)
	}

	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrParseCommand)
	}

	return argv, nil
}

// shellArgv wraps a command text for execution by the system shell.
func shellArgv(text string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/c", text}
	}

	return []string{"/bin/sh", "-c", text}
}

// joinCommand renders an argv list as a single shell-quoted command text.
func joinCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, word := range argv {
		quoted[i] = quoteWord(word)
	}

	return strings.Join(quoted, " ")
}

// quoteWord single-quotes a word when it contains characters the shell would
// interpret.
func quoteWord(s string) string {
	if s == "" {
		return "''"
	}

	if !strings.ContainsAny(s, " \t\n\"'`$&|;<>()*?[]#~%{}\\!") {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// joinLines concatenates captured lines, repairing invalid UTF-8 line by
// line rather than failing the whole join.
func joinLines(lines []string) string {
	joined := strings.Join(lines, "")
	if utf8.ValidString(joined) {
		return joined
	}

	repaired := make([]string, len(lines))
	for i, line := range lines {
		repaired[i] = strings.ToValidUTF8(line, string(utf8.RuneError))
	}

	return strings.Join(repaired, "")
}

// repairUTF8 replaces invalid byte sequences with the replacement rune.
func repairUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// printBanner writes the prompt-style header shown at verbose level 2 and
// the start rule shown at level 3.
func printBanner(w io.Writer, text, cwd string, verbose int) {
	if w == nil {
		return
	}

	if verbose > 2 {
		fmt.Fprintln(w, "┌─── START CMD ───")
	}

	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	username := "?"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	hostname, _ := os.Hostname()

	fmt.Fprintf(w, "[teex] %s@%s:%s$ %s\n", username, hostname, compressUser(cwd), text)
}

// compressUser abbreviates the home directory prefix of a path to "~".
func compressUser(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}

	if path == home {
		return "~"
	}

	if strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}

	return path
}
