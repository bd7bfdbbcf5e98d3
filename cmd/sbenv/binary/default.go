// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/envconfig"
)

// DefaultCommand returns the "default" command group for the global
// default binary spec.
func DefaultCommand() *cli.Command {
	return &cli.Command{
		Name:    "default",
		Summary: "Manage the global default binary spec",
		Description: `Manage the global default binary spec, applied when an environment
does not pin its own binary. The spec is a released version (0.5.1)
or an executable path, exactly like --binary elsewhere.`,
		Subcommands: []*cli.Command{
			defaultShowCommand(),
			defaultSetCommand(),
			defaultClearCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Point unpinned environments at a released version",
				Command:     "sbenv default set 0.5.1",
			},
			{
				Description: "Show the current default",
				Command:     "sbenv default show",
			},
		},
	}
}

func defaultShowCommand() *cli.Command {
	return &cli.Command{
		Name:    "show",
		Summary: "Show the global default binary spec",
		Usage:   "sbenv default show",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			rt, err := cli.NewRuntime(logger)
			if err != nil {
				return err
			}
			defaults, err := rt.LoadDefaults()
			if err != nil {
				return err
			}
			if defaults.Binary == "" {
				fmt.Println("no default binary set")
				return nil
			}
			fmt.Println(defaults.Binary)
			return nil
		},
	}
}

func defaultSetCommand() *cli.Command {
	return &cli.Command{
		Name:    "set",
		Summary: "Set the global default binary spec",
		Usage:   "sbenv default set SPEC",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("spec required\n\nUsage: sbenv default set SPEC")
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			rt, err := cli.NewRuntime(logger)
			if err != nil {
				return err
			}
			if err := rt.SaveDefaults(&envconfig.Defaults{Binary: args[0]}); err != nil {
				return err
			}
			fmt.Printf("default binary set to %s\n", args[0])
			return nil
		},
	}
}

func defaultClearCommand() *cli.Command {
	return &cli.Command{
		Name:    "clear",
		Summary: "Clear the global default binary spec",
		Usage:   "sbenv default clear",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			rt, err := cli.NewRuntime(logger)
			if err != nil {
				return err
			}
			if err := rt.SaveDefaults(&envconfig.Defaults{}); err != nil {
				return err
			}
			fmt.Println("default binary cleared")
			return nil
		},
	}
}
