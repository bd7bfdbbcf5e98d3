// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openmined/sbenv/lib/atomicfile"
)

// readPIDFile parses the PID file at path. A missing file means no
// daemon was ever tracked and returns 0. Unparsable content returns
// an error so the caller can treat the file as stale.
func readPIDFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading PID file %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("PID file %s contains %q, not a process ID", path, strings.TrimSpace(string(content)))
	}
	return pid, nil
}

// writePIDFile records a confirmed-live daemon PID.
func writePIDFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating state directory for %s: %w", path, err)
	}
	if err := atomicfile.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing PID file %s: %w", path, err)
	}
	return nil
}

// removePIDFile deletes the PID file; a file already gone is fine.
func removePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing PID file %s: %w", path, err)
	}
	return nil
}
