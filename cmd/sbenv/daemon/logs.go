// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/supervisor"
)

// followPollInterval is how often follow mode checks the log file for
// appended output.
const followPollInterval = 500 * time.Millisecond

// logsParams holds the parameters for the logs command.
type logsParams struct {
	Lines  int  `flag:"lines,n" desc:"number of trailing lines to show" default:"50"`
	Follow bool `flag:"follow,f" desc:"keep printing as the daemon appends"`
}

// LogsCommand returns the "logs" command.
func LogsCommand() *cli.Command {
	var params logsParams

	return &cli.Command{
		Name:    "logs",
		Summary: "Show the daemon's log output",
		Description: `Print the tail of the environment daemon's log file
(.sbenv/logs/daemon.log under the environment root). The file
accumulates across daemon runs; --follow keeps printing as the daemon
appends, until interrupted.`,
		Usage: "sbenv logs [-f] [-n LINES] [PATH]",
		Examples: []cli.Example{
			{
				Description: "Show the last 50 log lines",
				Command:     "sbenv logs",
			},
			{
				Description: "Watch the daemon's output live",
				Command:     "sbenv logs --follow",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("logs", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runLogs(ctx, start, &params, logger)
		},
	}
}

func runLogs(ctx context.Context, start string, params *logsParams, logger *slog.Logger) error {
	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}
	root, err := envconfig.FindRoot(start)
	if err != nil {
		return err
	}

	// The liveness check cleans up stale PID files like every other
	// lifecycle command; logs from a dead daemon are still shown.
	status, err := rt.Supervisor().Status(ctx, root, "")
	if err != nil {
		return err
	}
	if status.State != supervisor.StateRunning {
		fmt.Fprintln(os.Stderr, "note: daemon not running")
	}

	logPath := supervisor.LogPath(root)
	lines, offset, err := tailLines(logPath, params.Lines)
	if os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "no logs yet at %s\n", logPath)
		return nil
	}
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}

	if params.Follow {
		return followFile(ctx, logPath, offset)
	}
	return nil
}

// tailLines returns the last n lines of the file and the offset just
// past what was read, for follow mode to continue from. The file is
// read backwards in doubling windows so a large log never gets
// slurped whole for a 50-line tail.
func tailLines(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 || n <= 0 {
		return nil, size, nil
	}

	window := int64(64 * 1024)
	for {
		if window > size {
			window = size
		}
		buf := make([]byte, window)
		if _, err := file.ReadAt(buf, size-window); err != nil && err != io.EOF {
			return nil, 0, fmt.Errorf("reading %s: %w", path, err)
		}

		lines := strings.Split(string(buf), "\n")
		if last := len(lines) - 1; lines[last] == "" {
			lines = lines[:last]
		}

		// With a partial window the first element may be a cut-off
		// line; it only matters if it would be part of the answer.
		if window == size {
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			return lines, size, nil
		}
		if len(lines) > n {
			return lines[len(lines)-n:], size, nil
		}
		window *= 2
	}
}

// followFile prints bytes appended to path from offset onward until
// the context is cancelled. A shrinking file (rotation, truncation)
// resets the offset to the new start.
func followFile(ctx context.Context, path string, offset int64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(followPollInterval):
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		size := info.Size()
		if size < offset {
			offset = 0
		}
		if size == offset {
			continue
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		buf := make([]byte, size-offset)
		read, err := file.ReadAt(buf, offset)
		file.Close()
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		buf = buf[:read]

		os.Stdout.Write(buf)
		offset += int64(read)
	}
}
