// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/identity"
	"github.com/openmined/sbenv/lib/registry"
	"github.com/openmined/sbenv/lib/supervisor"
)

// listParams holds the parameters for the list command.
type listParams struct {
	cli.JSONOutput
}

// listEntry is one environment in the listing.
type listEntry struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Port      int    `json:"port"`
	Path      string `json:"path"`
	ServerURL string `json:"server_url,omitempty"`
	DevMode   bool   `json:"dev_mode,omitempty"`
	Binary    string `json:"binary,omitempty"`
	State     string `json:"state"`
	PID       int    `json:"pid,omitempty"`
	Active    bool   `json:"active"`
}

// ListCommand returns the "list" command.
func ListCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List registered environments",
		Description: `List every registered environment with its daemon state.

The state column reflects the PID file and the process table only; no
health probe is performed (use 'sbenv status' for that). The
environment activated in the current shell is marked with *.`,
		Usage: "sbenv list [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return runList(ctx, &params, logger)
		},
	}
}

func runList(ctx context.Context, params *listParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	reg, err := rt.LoadRegistry()
	if err != nil {
		return err
	}

	entries := collectEntries(ctx, reg, rt.Supervisor(), os.Getenv("SBENV_ROOT"), logger)

	if done, err := params.EmitJSON(entries); done {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no environments registered")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEMAIL\tPORT\tSTATE\tPATH")
	for _, entry := range entries {
		name := entry.Name
		if entry.Active {
			name = "* " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			name, entry.Email, entry.Port, entry.State, entry.Path)
	}
	return tw.Flush()
}

// collectEntries builds the listing rows. A broken environment (say,
// an unreadable state directory) degrades to state "error" instead of
// hiding the rest of the listing.
func collectEntries(ctx context.Context, reg registry.Registry, sup *supervisor.Supervisor, activeRoot string, logger *slog.Logger) []listEntry {
	// Registered paths are canonical; SBENV_ROOT comes from activate,
	// which prints whatever path the walk found.
	if activeRoot != "" {
		activeRoot = identity.Canonicalize(activeRoot)
	}

	entries := make([]listEntry, 0, len(reg))
	for _, key := range reg.SortedKeys() {
		record := reg[key]

		entry := listEntry{
			Name:      record.Name,
			Email:     record.Email,
			Port:      record.Port,
			Path:      record.Path,
			ServerURL: record.ServerURL,
			DevMode:   record.DevMode,
			Active:    activeRoot != "" && activeRoot == record.Path,
		}
		switch {
		case record.BinaryPath != "":
			entry.Binary = record.BinaryPath
		case record.BinaryVersion != "":
			entry.Binary = record.BinaryVersion
		}

		status, err := sup.Status(ctx, record.Path, "")
		if err != nil {
			logger.Warn("checking daemon state", "path", record.Path, "error", err)
			entry.State = "error"
		} else {
			entry.State = string(status.State)
			entry.PID = status.PID
		}

		entries = append(entries, entry)
	}
	return entries
}
