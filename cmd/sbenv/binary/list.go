// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/binaries"
)

// listParams holds the parameters for the binary list command.
type listParams struct {
	cli.JSONOutput
}

// listEntry is one cached version in the listing.
type listEntry struct {
	Version string `json:"version"`
	Path    string `json:"path"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List cached daemon versions",
		Usage:   "sbenv binary list [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return runList(&params, logger)
		},
	}
}

func runList(params *listParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}

	cached, err := binaries.ListCached(rt.Settings.BinariesDir())
	if err != nil {
		return err
	}

	entries := make([]listEntry, 0, len(cached))
	for _, binary := range cached {
		entries = append(entries, listEntry{Version: binary.Version, Path: binary.Path})
	}

	if done, err := params.EmitJSON(entries); done {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no cached binaries")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tPATH")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Version, entry.Path)
	}
	return tw.Flush()
}
