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

// statusParams holds the parameters for the status command.
type statusParams struct {
	cli.JSONOutput
}

// statusResult is the JSON output for status.
type statusResult struct {
	Path   string `json:"path"`
	State  string `json:"state"`
	PID    int    `json:"pid,omitempty"`
	Health string `json:"health,omitempty"`
	Port   int    `json:"port,omitempty"`
}

// StatusCommand returns the "status" command.
func StatusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Report the daemon's state and health",
		Description: `Report whether the environment's daemon is running and, when it is,
probe its control API.

Health distinguishes three outcomes: healthy (the API answered 200,
or 401 asking for the token), unhealthy (it answered something else),
and unreachable (no HTTP response). Stale PID files are cleaned up as
a side effect of the check.

Exit code is 0 when the daemon is running, 3 when it is not.`,
		Usage: "sbenv status [--json] [PATH]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runStatus(ctx, start, &params, logger)
		},
	}
}

func runStatus(ctx context.Context, start string, params *statusParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	env, err := loadEnvironment(rt, start)
	if err != nil {
		return err
	}

	status, err := rt.Supervisor().Status(ctx, env.Root, env.probeURL())
	if err != nil {
		return err
	}

	result := statusResult{
		Path:   env.Root,
		State:  string(status.State),
		PID:    status.PID,
		Health: string(status.Health),
		Port:   env.port(),
	}
	if done, err := params.EmitJSON(result); done {
		if err != nil {
			return err
		}
		return exitCodeFor(status.State)
	}

	switch status.State {
	case supervisor.StateRunning:
		fmt.Printf("daemon running (pid %d)\n", status.PID)
		if status.Health != "" {
			fmt.Printf("  health: %s\n", status.Health)
		}
		if env.port() != 0 {
			fmt.Printf("  port:   %d\n", env.port())
		}
	case supervisor.StateStale:
		fmt.Println("daemon not running (stale pid file cleaned up)")
	default:
		fmt.Println("daemon not running")
	}
	return exitCodeFor(status.State)
}

// exitCodeFor maps the daemon state to the command's exit code: 0
// running, 3 not. Scripts branch on this without parsing output.
func exitCodeFor(state supervisor.State) error {
	if state == supervisor.StateRunning {
		return nil
	}
	return &cli.ExitError{Code: 3}
}
