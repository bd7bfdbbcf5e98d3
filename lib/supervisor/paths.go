// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "path/filepath"

// stateDirName is the per-environment state directory at the
// environment root.
const stateDirName = ".sbenv"

// PIDPath returns where the environment's daemon PID is tracked.
func PIDPath(root string) string {
	return filepath.Join(root, stateDirName, "daemon.pid")
}

// LogPath returns the single log file the daemon's stdout and stderr
// are redirected to. It outlives the CLI process that spawned the
// daemon.
func LogPath(root string) string {
	return filepath.Join(root, stateDirName, "logs", "daemon.log")
}
