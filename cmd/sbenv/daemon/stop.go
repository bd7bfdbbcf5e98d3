// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/supervisor"
)

// stopParams holds the parameters for the stop command.
type stopParams struct {
	cli.JSONOutput
}

// StopCommand returns the "stop" command.
func StopCommand() *cli.Command {
	var params stopParams

	return &cli.Command{
		Name:    "stop",
		Summary: "Stop the environment's daemon",
		Description: `Stop the daemon for the environment at PATH (or the nearest
environment above the current directory).

The daemon gets SIGTERM and up to ten seconds to exit, with SIGKILL
escalation halfway through. Stopping an environment with no running
daemon is not an error; stale PID files are cleaned up on the way.`,
		Usage: "sbenv stop [PATH]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("stop", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runStop(start, &params, logger)
		},
	}
}

func runStop(start string, params *stopParams, logger *slog.Logger) error {
	logger = logger.With("command", "stop")
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	root, err := envconfig.FindRoot(start)
	if err != nil {
		return err
	}

	status, err := rt.Supervisor().Stop(root)
	if err != nil {
		return err
	}

	result := lifecycleResult{Path: root, State: string(status.State), PID: status.PID}
	if done, err := params.EmitJSON(result); done {
		return err
	}

	switch status.State {
	case supervisor.StateAbsent:
		fmt.Println("daemon stopped")
	case supervisor.StateStale:
		fmt.Println("daemon was not running (stale pid file cleaned up)")
	default:
		fmt.Printf("daemon %s\n", status.State)
	}
	return nil
}
