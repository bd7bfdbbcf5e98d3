// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/envconfig"
)

// activateVars are the variables activate exports and deactivate
// unsets, in output order.
var activateVars = []string{
	"SBENV_ROOT",
	"SBENV_EMAIL",
	"SBENV_PORT",
	"SYFTBOX_CONFIG_PATH",
}

// ActivateCommand returns the "activate" command.
func ActivateCommand() *cli.Command {
	return &cli.Command{
		Name:    "activate",
		Summary: "Print export lines that select an environment",
		Description: `Print shell export lines binding the current shell to the
environment at PATH (or the nearest environment above the current
directory). A process cannot change its parent shell, so the output
must be evaluated:

  eval "$(sbenv activate)"

SYFTBOX_CONFIG_PATH points tooling at the environment's config file;
the SBENV_* variables mark the active environment for sbenv itself
(list shows it with *).`,
		Usage: "sbenv activate [PATH]",
		Examples: []cli.Example{
			{
				Description: "Activate the environment in the current directory",
				Command:     `eval "$(sbenv activate)"`,
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runActivate(start, logger)
		},
	}
}

// DeactivateCommand returns the "deactivate" command.
func DeactivateCommand() *cli.Command {
	return &cli.Command{
		Name:    "deactivate",
		Summary: "Print unset lines that deselect the active environment",
		Description: `Print shell unset lines undoing a previous activate. Like
activate, the output must be evaluated:

  eval "$(sbenv deactivate)"`,
		Usage: "sbenv deactivate",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			for _, name := range activateVars {
				fmt.Printf("unset %s\n", name)
			}
			return nil
		},
	}
}

func runActivate(start string, logger *slog.Logger) error {
	root, err := envconfig.FindRoot(start)
	if err != nil {
		return err
	}
	cfg, err := envconfig.LoadConfig(envconfig.ConfigPath(root))
	if err != nil {
		return err
	}

	port := 0
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	reg, err := rt.LoadRegistry()
	if err != nil {
		return err
	}
	if record, ok := reg.FindByPath(root); ok {
		port = record.Port
	} else if marker, err := envconfig.ReadMarker(root); err == nil {
		port = marker.Port
	}

	fmt.Printf("export SBENV_ROOT=%s\n", shellQuote(root))
	fmt.Printf("export SBENV_EMAIL=%s\n", shellQuote(cfg.Email))
	fmt.Printf("export SBENV_PORT=%s\n", shellQuote(fmt.Sprintf("%d", port)))
	fmt.Printf("export SYFTBOX_CONFIG_PATH=%s\n", shellQuote(envconfig.ConfigPath(root)))

	// Comments survive eval; a bare invocation still shows the hint.
	fmt.Printf("# environment %s\n", root)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintf(os.Stderr, "run: eval \"$(sbenv activate)\"\n")
	}
	return nil
}

// shellQuote single-quotes a value for POSIX shells, escaping embedded
// single quotes.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
