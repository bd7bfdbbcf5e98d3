// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// orphanGrace is how long an orphan gets to exit after SIGTERM
// before it is killed outright.
const orphanGrace = 500 * time.Millisecond

// killOrphans terminates daemon processes that reference this
// environment's config file but are not the tracked PID: leftovers
// of a crashed supervisor run that would otherwise fight the new
// daemon for the port and the config.
//
// Matching is a substring search of the config path in the process
// command line. That is a weak heuristic: ps may truncate command
// lines past the match, and an unrelated process whose arguments
// merely mention the path gets caught. The daemon offers no more
// reliable marker to scan for.
func (s *Supervisor) killOrphans(configPath string, trackedPID int) error {
	entries, err := s.inspector.List()
	if err != nil {
		return fmt.Errorf("scanning process list for orphans: %w", err)
	}
	self := os.Getpid()
	for _, entry := range entries {
		if entry.PID == trackedPID || entry.PID == self {
			continue
		}
		if !strings.Contains(entry.Command, configPath) {
			continue
		}
		s.logger.Warn("terminating orphan daemon",
			"pid", entry.PID,
			"command", entry.Command,
		)
		if err := s.inspector.Terminate(entry.PID); err != nil {
			s.logger.Warn("orphan did not take SIGTERM", "pid", entry.PID, "error", err)
		}
		s.clk.Sleep(orphanGrace)
		if s.inspector.Alive(entry.PID) {
			s.logger.Warn("orphan survived SIGTERM, killing", "pid", entry.PID)
			if err := s.inspector.Kill(entry.PID); err != nil {
				s.logger.Warn("killing orphan failed", "pid", entry.PID, "error", err)
			}
		}
	}
	return nil
}
