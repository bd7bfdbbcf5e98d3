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
	"github.com/openmined/sbenv/lib/envconfig"
)

// resolveParams holds the parameters for the binary resolve command.
type resolveParams struct {
	cli.JSONOutput
	Path string `flag:"path" desc:"environment root to resolve for (defaults to the nearest environment)"`
}

// resolveResult is the JSON output for binary resolve.
type resolveResult struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	Hash    string `json:"hash,omitempty"`
	OS      string `json:"os,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

func resolveCommand() *cli.Command {
	var params resolveParams

	return &cli.Command{
		Name:    "resolve",
		Summary: "Show which executable a spec or environment resolves to",
		Description: `Resolve a binary spec to a concrete executable.

With SPEC, resolve that spec directly: a version is served from the
cache (downloading on a miss), a path or name is checked on disk and
the OS search path. Without SPEC, resolve for an environment the way
'sbenv start' would: the environment's pin first, then the global
default, then the search path.`,
		Usage: "sbenv binary resolve [SPEC] [--path DIR]",
		Examples: []cli.Example{
			{
				Description: "Resolve a released version (downloads on cache miss)",
				Command:     "sbenv binary resolve 0.5.1",
			},
			{
				Description: "Resolve for the environment two directories up",
				Command:     "sbenv binary resolve --path ../..",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("resolve", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			spec := ""
			if len(args) > 0 {
				spec = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runResolve(ctx, spec, &params, logger)
		},
	}
}

func runResolve(ctx context.Context, spec string, params *resolveParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	resolver, err := rt.Resolver()
	if err != nil {
		return err
	}

	var resolution binaries.Resolution
	if spec != "" {
		resolution, err = resolver.Resolve(ctx, spec)
	} else {
		resolution, err = resolveForEnvironment(ctx, rt, resolver, params.Path)
	}
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

	fmt.Printf("path:    %s\n", result.Path)
	if result.Version != "" {
		fmt.Printf("version: %s\n", result.Version)
	}
	if result.OS != "" {
		fmt.Printf("build:   %s/%s\n", result.OS, result.Arch)
	}
	if result.Hash != "" {
		fmt.Printf("hash:    %s\n", result.Hash)
	}
	return nil
}

// resolveForEnvironment applies the same precedence start uses: the
// environment's recorded pin, then the global default, then the OS
// search path.
func resolveForEnvironment(ctx context.Context, rt *cli.Runtime, resolver *binaries.Resolver, startDir string) (binaries.Resolution, error) {
	if startDir == "" {
		startDir = "."
	}
	root, err := envconfig.FindRoot(startDir)
	if err != nil {
		return binaries.Resolution{}, err
	}
	reg, err := rt.LoadRegistry()
	if err != nil {
		return binaries.Resolution{}, err
	}
	defaults, err := rt.LoadDefaults()
	if err != nil {
		return binaries.Resolution{}, err
	}

	var recordedPath, recordedVersion string
	if record, ok := reg.FindByPath(root); ok {
		recordedPath = record.BinaryPath
		recordedVersion = record.BinaryVersion
	}
	return resolver.ResolveForEnvironment(ctx, recordedPath, recordedVersion, defaults.Binary)
}
