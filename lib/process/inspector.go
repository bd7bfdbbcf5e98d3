// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Entry is one row of the process-table snapshot: a PID and the
// command line ps reported for it.
type Entry struct {
	PID     int
	Command string
}

// Inspector abstracts process-table access. The supervisor depends on
// this interface, never on the unix package directly.
type Inspector interface {
	// Alive reports whether a process with the given PID currently
	// exists. A process we lack permission to signal still counts as
	// alive.
	Alive(pid int) bool

	// List returns a snapshot of running processes with their command
	// lines. Command lines may be truncated by the OS; callers doing
	// substring matches against them must treat misses as possible.
	List() ([]Entry, error)

	// Terminate sends the graceful termination signal (SIGTERM).
	Terminate(pid int) error

	// Kill sends the forceful, uncatchable kill signal (SIGKILL).
	Kill(pid int) error
}

// System returns the real Inspector backed by kill(2) and ps(1).
func System() Inspector {
	return systemInspector{}
}

type systemInspector struct{}

func (systemInspector) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return err == unix.EPERM
}

func (systemInspector) List() ([]Entry, error) {
	// -A: every process; -o pid=,args=: bare pid and full command line.
	output, err := exec.Command("ps", "-A", "-o", "pid=,args=").Output()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	return parsePSOutput(string(output)), nil
}

func (systemInspector) Terminate(pid int) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("terminating pid %d: %w", pid, err)
	}
	return nil
}

func (systemInspector) Kill(pid int) error {
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		return fmt.Errorf("killing pid %d: %w", pid, err)
	}
	return nil
}

// parsePSOutput parses "pid command line" rows. Unparsable rows are
// skipped: ps output is advisory input, not a document format.
func parsePSOutput(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pidField, command, _ := strings.Cut(line, " ")
		pid, err := strconv.Atoi(pidField)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{PID: pid, Command: strings.TrimSpace(command)})
	}
	return entries
}
