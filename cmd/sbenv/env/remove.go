// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/registry"
)

// removeParams holds the parameters for the remove command.
type removeParams struct {
	cli.JSONOutput
	Yes bool `flag:"yes,y" desc:"also delete the environment's state files (.sbenv/ and .syftbox/config.json)"`
}

// removeResult is the JSON output for remove.
type removeResult struct {
	Path         string `json:"path"`
	Unregistered int    `json:"unregistered"`
	FilesDeleted bool   `json:"files_deleted"`
}

// RemoveCommand returns the "remove" command.
func RemoveCommand() *cli.Command {
	var params removeParams

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove an environment from the registry",
		Description: `Remove the environment rooted at PATH (or the nearest environment
above the current directory) from the registry.

A running daemon is stopped first; stop failures are logged but do
not block removal. User data stays in place: only the registry entry
goes away unless --yes is given, which additionally deletes the
environment's own state files (.sbenv/ and .syftbox/config.json) and
nothing else.`,
		Usage: "sbenv remove [--yes] [PATH]",
		Examples: []cli.Example{
			{
				Description: "Unregister the environment in the current directory",
				Command:     "sbenv remove",
			},
			{
				Description: "Unregister and delete the environment's state files",
				Command:     "sbenv remove --yes ./sandbox",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("remove", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runRemove(ctx, start, &params, logger)
		},
	}
}

func runRemove(ctx context.Context, start string, params *removeParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	reg, err := rt.LoadRegistry()
	if err != nil {
		return err
	}

	root, err := resolveRemovalRoot(start, reg)
	if err != nil {
		return err
	}

	// Best effort: a daemon that cannot be stopped should not leave
	// the registry entry stuck forever.
	if _, err := rt.Supervisor().Stop(root); err != nil {
		logger.Warn("stopping daemon before removal", "path", root, "error", err)
	}

	removed := reg.Unregister(root)
	if removed > 0 {
		if err := rt.SaveRegistry(reg); err != nil {
			return err
		}
	}

	filesDeleted := false
	if params.Yes {
		if err := deleteStateFiles(root); err != nil {
			return err
		}
		filesDeleted = true
	}

	result := removeResult{Path: root, Unregistered: removed, FilesDeleted: filesDeleted}
	if done, err := params.EmitJSON(result); done {
		return err
	}

	if removed == 0 {
		fmt.Printf("%s was not registered\n", root)
	} else {
		fmt.Printf("removed %s from the registry\n", root)
	}
	if filesDeleted {
		fmt.Println("deleted .sbenv/ and .syftbox/config.json")
	} else {
		fmt.Println("environment files left in place (use --yes to delete them)")
	}
	return nil
}

// resolveRemovalRoot finds the environment root to remove. Removal
// must keep working when the environment's config file is already
// gone but a registry entry lingers, so the registry is consulted
// when the upward walk finds nothing.
func resolveRemovalRoot(start string, reg registry.Registry) (string, error) {
	root, findErr := envconfig.FindRoot(start)
	if findErr == nil {
		return root, nil
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	if record, ok := reg.FindByPath(abs); ok {
		return record.Path, nil
	}
	return "", findErr
}

// deleteStateFiles removes only what sbenv itself created. The
// .syftbox directory goes away too when the config was its last
// occupant.
func deleteStateFiles(root string) error {
	if err := os.RemoveAll(filepath.Join(root, ".sbenv")); err != nil {
		return fmt.Errorf("deleting %s: %w", filepath.Join(root, ".sbenv"), err)
	}
	configPath := envconfig.ConfigPath(root)
	if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", configPath, err)
	}
	// Ignored on purpose: fails when the daemon left other files there.
	_ = os.Remove(filepath.Dir(configPath))
	return nil
}
