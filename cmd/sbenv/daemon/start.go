// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/supervisor"
)

// startParams holds the parameters for the start command.
type startParams struct {
	cli.JSONOutput
	Force  bool   `flag:"force,f" desc:"replace a running daemon instead of leaving it alone"`
	Binary string `flag:"binary,b" desc:"binary spec for this start only: a version (0.5.1) or an executable path"`
}

// lifecycleResult is the JSON output shared by start, stop, and
// restart.
type lifecycleResult struct {
	Path  string `json:"path"`
	State string `json:"state"`
	PID   int    `json:"pid,omitempty"`
}

// StartCommand returns the "start" command.
func StartCommand() *cli.Command {
	var params startParams

	return &cli.Command{
		Name:    "start",
		Summary: "Start the environment's daemon",
		Description: `Start the daemon for the environment at PATH (or the nearest
environment above the current directory).

The daemon runs detached with its output appended to
.sbenv/logs/daemon.log under the environment root, and survives this
command exiting. When a live daemon is already tracked, start is a
no-op reporting its PID; --force replaces it. The binary comes from
the environment's pin, the global default, or the OS search path;
--binary overrides all three for this invocation.`,
		Usage: "sbenv start [--force] [--binary SPEC] [PATH]",
		Examples: []cli.Example{
			{
				Description: "Start the daemon for the current directory's environment",
				Command:     "sbenv start",
			},
			{
				Description: "Replace the running daemon with a specific version",
				Command:     "sbenv start --force --binary 0.5.1",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("start", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runStart(ctx, start, &params, logger)
		},
	}
}

func runStart(ctx context.Context, start string, params *startParams, logger *slog.Logger) error {
	logger = logger.With("command", "start")
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(rt, start)
	if err != nil {
		return err
	}
	spec, err := env.startSpec(ctx, rt, params.Binary, params.Force, logger)
	if err != nil {
		return err
	}

	status, err := rt.Supervisor().Start(ctx, spec)
	if err != nil {
		return err
	}

	result := lifecycleResult{Path: env.Root, State: string(status.State), PID: status.PID}
	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Printf("daemon %s (pid %d)\n", status.State, status.PID)
	fmt.Printf("  logs: %s\n", supervisor.LogPath(env.Root))
	return nil
}
