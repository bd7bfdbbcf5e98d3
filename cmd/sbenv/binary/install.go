// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/binaries"
)

// installParams holds the parameters for the binary install command.
type installParams struct {
	cli.JSONOutput
}

func installCommand() *cli.Command {
	var params installParams

	return &cli.Command{
		Name:    "install",
		Summary: "Download a released version into the cache",
		Description: `Download and cache the daemon binary for VERSION, even when the
cache already holds it. The installed executable is probed for its
self-reported version and build details; the probe's answer wins over
the requested version when the two disagree.`,
		Usage: "sbenv binary install VERSION",
		Examples: []cli.Example{
			{
				Description: "Install version 0.5.1",
				Command:     "sbenv binary install 0.5.1",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("install", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return fmt.Errorf("version required\n\nUsage: sbenv binary install VERSION")
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			if !binaries.IsVersion(args[0]) {
				return fmt.Errorf("%q is not a version; install takes a released version like 0.5.1", args[0])
			}
			return runInstall(ctx, args[0], &params, logger)
		},
	}
}

func runInstall(ctx context.Context, version string, params *installParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	resolver, err := rt.Resolver()
	if err != nil {
		return err
	}

	resolution, err := resolver.Install(ctx, version)
	if err != nil {
		return err
	}

	result := resolveResult{
		Path:    resolution.Path,
		Version: resolution.Version,
		Hash:    resolution.Hash,
	}
	if resolution.Build != nil {
		result.OS = resolution.Build.OS
		result.Arch = resolution.Build.Arch
	}
	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Printf("installed %s\n", resolution.Version)
	fmt.Printf("  path: %s\n", resolution.Path)
	if resolution.Hash != "" {
		fmt.Printf("  hash: %s\n", resolution.Hash)
	}
	return nil
}
