// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exec implements the "teex exec" subcommand.
package exec

import (
	"context"
	"strings"

	"github.com/matt-FFFFFF/teex"
	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	shellFlag   = "shell"
	cwdFlag     = "cwd"
	envFlag     = "env"
	backendFlag = "backend"
	verboseFlag = "verbose"
	noTeeFlag   = "no-tee"
	detachFlag  = "detach"
)

// Cmd runs a single command and exits with the child's exit code.
var Cmd = &cli.Command{
	Name: "exec",
	Description: `Run a command, teeing its output.
The command and its arguments follow the flags; use "--" to separate them.

Examples:
  teex exec -- ping -c 2 localhost
  teex exec --shell -- 'echo out && echo err 1>&2'
  teex exec --backend select -- make test`,
	Usage:     "teex exec [flags] -- command [args...]",
	ArgsUsage: "command [args...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:     shellFlag,
			Aliases:  []string{"s"},
			Usage:    "Run the command through the system shell",
			Value:    false,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     cwdFlag,
			Aliases:  []string{"C"},
			Usage:    "Working directory for the child process",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:    envFlag,
			Aliases: []string{"e"},
			Usage:   "Extra environment variable as KEY=VALUE, may be repeated",
		},
		&cli.StringFlag{
			Name:     backendFlag,
			Aliases:  []string{"b"},
			Usage:    `Tee backend: "auto", "goroutine", "thread" or "select" (POSIX only)`,
			Value:    "auto",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:    verboseFlag,
			Aliases: []string{"v"},
			Usage:   "Verbosity level, 0 to 3",
			Value:   1,
		},
		&cli.BoolFlag{
			Name:     noTeeFlag,
			Usage:    "Capture output without printing it",
			Value:    false,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     detachFlag,
			Aliases:  []string{"d"},
			Usage:    "Start the process and return immediately",
			Value:    false,
			OnlyOnce: true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("no command given, see 'teex exec --help'", 1)
	}

	opts := []teex.Option{
		teex.WithVerbose(int(cmd.Int(verboseFlag))),
		teex.WithTeeBackend(cmd.String(backendFlag)),
	}

	if cmd.Bool(shellFlag) {
		opts = append(opts, teex.WithShell())
	}

	if cwd := cmd.String(cwdFlag); cwd != "" {
		opts = append(opts, teex.WithCwd(cwd))
	}

	if env := parseEnv(cmd.StringSlice(envFlag)); len(env) > 0 {
		opts = append(opts, teex.WithEnv(env))
	}

	if cmd.Bool(noTeeFlag) {
		opts = append(opts, teex.WithTee(false))
	}

	if cmd.Bool(detachFlag) {
		opts = append(opts, teex.WithDetach())
	}

	res, err := runCommand(ctx, args, opts)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if cmd.Bool(detachFlag) {
		ctxlog.Info(ctx, "process detached", "pid", res.Proc.Pid(), "command", res.Command)
		return nil
	}

	ctxlog.Debug(ctx, "command finished", "exitCode", res.ExitCode, "command", res.Command)

	if res.ExitCode != 0 {
		return cli.Exit("", res.ExitCode)
	}

	return nil
}

// runCommand treats a single argument as command text and multiple arguments
// as an argv list.
func runCommand(ctx context.Context, args []string, opts []teex.Option) (*teex.Result, error) {
	if len(args) == 1 {
		return teex.Run(ctx, args[0], opts...)
	}

	return teex.RunArgs(ctx, args, opts...)
}

// parseEnv splits KEY=VALUE pairs, ignoring malformed entries.
func parseEnv(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}

		env[k] = v
	}

	return env
}
