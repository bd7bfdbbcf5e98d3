// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// SpawnSpec describes one daemon launch.
type SpawnSpec struct {
	// Binary is the executable to run: an absolute path from
	// resolution, or a bare name left to the OS search path.
	Binary string

	// ConfigPath is passed explicitly even though the daemon is
	// known to also consult the global config location for some
	// operations.
	ConfigPath string

	// BindAddress is the host:port the daemon should listen on.
	BindAddress string

	// Token is the control API bearer token, optional.
	Token string

	// LogPath receives the daemon's stdout and stderr.
	LogPath string

	// WorkDir is the environment root the daemon runs in.
	WorkDir string
}

// Args assembles the daemon's argument list.
func (spec SpawnSpec) Args() []string {
	args := []string{"daemon", "--config", spec.ConfigPath}
	if spec.BindAddress != "" {
		args = append(args, "--http-addr", spec.BindAddress)
	}
	if spec.Token != "" {
		args = append(args, "--token", spec.Token)
	}
	return args
}

// Launcher spawns the daemon detached from the CLI process. Tests
// substitute fakes to script spawn outcomes.
type Launcher interface {
	Launch(spec SpawnSpec) (pid int, err error)
}

// NewLauncher returns the production launcher.
func NewLauncher() Launcher {
	return execLauncher{}
}

type execLauncher struct{}

// Launch starts the daemon in its own session with stdin on the null
// device and both output streams appended to the log file, so the
// child survives and keeps logging after this process exits.
func (execLauncher) Launch(spec SpawnSpec) (int, error) {
	if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0755); err != nil {
		return 0, fmt.Errorf("creating log directory for %s: %w", spec.LogPath, err)
	}
	logFile, err := os.OpenFile(spec.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening daemon log %s: %w", spec.LogPath, err)
	}
	defer logFile.Close()

	command := exec.Command(spec.Binary, spec.Args()...)
	command.Dir = spec.WorkDir
	command.Stdout = logFile
	command.Stderr = logFile
	command.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := command.Start(); err != nil {
		return 0, fmt.Errorf("spawning %s: %w", spec.Binary, err)
	}
	pid := command.Process.Pid
	// The child is on its own now; nobody waits on it.
	command.Process.Release()
	return pid, nil
}

// DeriveBindAddress picks the daemon's listen address: the host:port
// of the recorded client URL when one exists, otherwise loopback on
// the environment's registered port. Port 0 means the environment
// was never allocated one.
func DeriveBindAddress(clientURL string, port int) (string, error) {
	if clientURL != "" {
		parsed, err := url.Parse(clientURL)
		if err != nil {
			return "", fmt.Errorf("parsing client URL %q: %w", clientURL, err)
		}
		if parsed.Host != "" {
			return parsed.Host, nil
		}
	}
	if port == 0 {
		return "", fmt.Errorf("environment has no client URL and no allocated port")
	}
	return fmt.Sprintf("127.0.0.1:%d", port), nil
}

// ControlURL returns the base URL of the daemon's control API for
// health probing.
func ControlURL(clientURL string, port int) string {
	if clientURL != "" {
		return clientURL
	}
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
