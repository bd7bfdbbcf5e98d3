// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete sbenv CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	binarycmd "github.com/openmined/sbenv/cmd/sbenv/binary"
	"github.com/openmined/sbenv/cmd/sbenv/cli"
	daemoncmd "github.com/openmined/sbenv/cmd/sbenv/daemon"
	envcmd "github.com/openmined/sbenv/cmd/sbenv/env"
	"github.com/openmined/sbenv/lib/version"
)

// Root builds and returns the complete sbenv CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "sbenv",
		Description: `sbenv: isolated environments for the SyftBox daemon.

Each environment binds an identity, a directory, a port, and a pinned
daemon binary, so several daemons coexist on one machine without
stepping on each other's config or ports.`,
		Subcommands: []*cli.Command{
			envcmd.InitCommand(),
			envcmd.ListCommand(),
			envcmd.RemoveCommand(),
			envcmd.ActivateCommand(),
			envcmd.DeactivateCommand(),
			daemoncmd.StartCommand(),
			daemoncmd.StopCommand(),
			daemoncmd.RestartCommand(),
			daemoncmd.StatusCommand(),
			daemoncmd.LogsCommand(),
			binarycmd.Command(),
			binarycmd.DefaultCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("sbenv %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Create an environment in the current directory",
				Command:     "sbenv init --email alice@example.com",
			},
			{
				Description: "Start its daemon and check on it",
				Command:     "sbenv start && sbenv status",
			},
			{
				Description: "Watch the daemon's output",
				Command:     "sbenv logs --follow",
			},
			{
				Description: "Bind the current shell to the environment",
				Command:     `eval "$(sbenv activate)"`,
			},
			{
				Description: "Pin every unpinned environment to a released version",
				Command:     "sbenv default set 0.5.1",
			},
			{
				Description: "See every environment on this machine",
				Command:     "sbenv list",
			},
		},
	}
}
