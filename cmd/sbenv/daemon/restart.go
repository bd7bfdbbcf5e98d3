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

// restartParams holds the parameters for the restart command.
type restartParams struct {
	cli.JSONOutput
	Binary string `flag:"binary,b" desc:"binary spec for the new daemon: a version (0.5.1) or an executable path"`
}

// RestartCommand returns the "restart" command.
func RestartCommand() *cli.Command {
	var params restartParams

	return &cli.Command{
		Name:    "restart",
		Summary: "Restart the environment's daemon",
		Description: `Stop the environment's daemon (failures logged, not fatal), wait a
beat, and start a fresh one. Restart always replaces: it behaves like
'stop' followed by 'start --force'.`,
		Usage: "sbenv restart [--binary SPEC] [PATH]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("restart", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runRestart(ctx, start, &params, logger)
		},
	}
}

func runRestart(ctx context.Context, start string, params *restartParams, logger *slog.Logger) error {
	logger = logger.With("command", "restart")
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(rt, start)
	if err != nil {
		return err
	}
	spec, err := env.startSpec(ctx, rt, params.Binary, true, logger)
	if err != nil {
		return err
	}

	status, err := rt.Supervisor().Restart(ctx, spec)
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
