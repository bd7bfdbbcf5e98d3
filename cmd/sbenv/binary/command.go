// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"github.com/openmined/sbenv/cmd/sbenv/cli"
)

// Command returns the "binary" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "binary",
		Summary: "Manage daemon binaries",
		Description: `Manage the daemon executables sbenv runs.

Binaries are cached per version under the sbenv data directory.
resolve answers "what would run for this spec or environment" without
side effects beyond a cache-miss download; install forces a download;
list shows the cache.`,
		Subcommands: []*cli.Command{
			resolveCommand(),
			installCommand(),
			listCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "See which executable the current environment would run",
				Command:     "sbenv binary resolve",
			},
			{
				Description: "Install a released version into the cache",
				Command:     "sbenv binary install 0.5.1",
			},
			{
				Description: "List cached versions",
				Command:     "sbenv binary list",
			},
		},
	}
}
