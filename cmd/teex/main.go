// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the teex command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/teex"
	"github.com/matt-FFFFFF/teex/cmd/teex/exec"
	"github.com/matt-FFFFFF/teex/cmd/teex/script"
	"github.com/matt-FFFFFF/teex/internal/ctxlog"
	"github.com/matt-FFFFFF/teex/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const jsonLogFlag = "json-log"

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		exec.Cmd,
		script.Cmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "teex",
	Description: `Teex runs a command in a child process, simultaneously printing its
stdout and stderr in real time and capturing both streams for inspection.
Per-stream output order is exact; interleaving between the two streams is
best-effort.`,
	Usage:     "teex exec -- ping -c 2 localhost",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:     jsonLogFlag,
			Usage:    "Emit structured JSON logs instead of pretty console output",
			Value:    false,
			OnlyOnce: true,
		},
	},
	Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cmd.Bool(jsonLogFlag) {
			return ctxlog.New(ctx, ctxlog.JSONLogger), nil
		}

		return ctx, nil
	},
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", teex.Version, teex.Commit)

	err := rootCmd.Run(ctx, os.Args)

	if ctx.Err() != nil {
		ctxlog.Error(ctx, "command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Error(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}
}
