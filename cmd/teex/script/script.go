// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script implements the "teex script" subcommand, which runs the
// steps of a YAML script file sequentially.
package script

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/teex"
	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/script"
	"github.com/urfave/cli/v3"
)

const (
	backendFlag = "backend"
	verboseFlag = "verbose"
)

// Cmd runs a script file. Steps run first to last; the first failing step
// stops the run and its exit code becomes the CLI's exit code.
var Cmd = &cli.Command{
	Name: "script",
	Description: `Run the steps of a YAML script file sequentially.

A script file looks like:
  steps:
    - name: build
      command: go build ./...
    - name: test
      command: go test ./...`,
	Usage:     "teex script myscript.yaml",
	ArgsUsage: "file",
	Flags: []cli.Flag{
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
			Usage:   "Verbosity level passed to each step",
			Value:   2,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("no script file given, see 'teex script --help'", 1)
	}

	s, err := script.Load(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for i, step := range s.Steps {
		label := step.Name
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}

		ctxlog.Info(ctx, "running step", "step", label, "command", step.Command)

		opts := []teex.Option{
			teex.WithVerbose(int(cmd.Int(verboseFlag))),
			teex.WithTeeBackend(cmd.String(backendFlag)),
			teex.WithCwd(step.Cwd),
			teex.WithEnv(step.Env),
		}

		if step.Shell {
			opts = append(opts, teex.WithShell())
		}

		res, err := teex.Run(ctx, step.Command, opts...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("step %s: %s", label, err), 1)
		}

		if res.ExitCode != 0 {
			ctxlog.Error(ctx, "step failed", "step", label, "exitCode", res.ExitCode)

			return cli.Exit("", res.ExitCode)
		}
	}

	ctxlog.Info(ctx, "script completed", "steps", len(s.Steps))

	return nil
}
