// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/openmined/sbenv/lib/process"
	"github.com/openmined/sbenv/lib/supervisor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupSettings(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	content := fmt.Sprintf("data_dir: %s\nglobal_config: %s\n",
		filepath.Join(dir, "data"), filepath.Join(dir, "global-config.json"))
	if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SBENV_CONFIG", settingsPath)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	read, write, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = write
	defer func() { os.Stdout = original }()

	fn()

	write.Close()
	data, err := io.ReadAll(read)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	return string(data)
}

func sbenv(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var err error
	output := captureStdout(t, func() {
		err = Root().Execute(context.Background(), args, testLogger())
	})
	return output, err
}

func TestRootCommandTree(t *testing.T) {
	root := Root()

	want := []string{
		"init", "list", "remove", "activate", "deactivate",
		"start", "stop", "restart", "status", "logs",
		"binary", "default", "version",
	}
	seen := map[string]int{}
	for _, sub := range root.Subcommands {
		if sub.Name == "" {
			t.Error("subcommand with empty name")
		}
		seen[sub.Name]++
	}
	for _, name := range want {
		if seen[name] != 1 {
			t.Errorf("subcommand %q appears %d times, want 1", name, seen[name])
		}
	}
	if len(root.Subcommands) != len(want) {
		t.Errorf("tree has %d subcommands, want %d", len(root.Subcommands), len(want))
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := sbenv(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(output, "sbenv ") {
		t.Errorf("output = %q", output)
	}
}

func TestNoArgsShowsHelp(t *testing.T) {
	output, err := sbenv(t)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(output, "init") || !strings.Contains(output, "start") {
		t.Errorf("help output = %q", output)
	}
}

// writeFakeDaemon writes a shell script that self-reports a version
// when probed and otherwise stays up like a real daemon, logging one
// line at boot.
func writeFakeDaemon(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syftbox-fake")
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "syftbox version 0.9.9 (abc123; go1.25; linux/amd64; 2026-01-01T00:00:00Z)"
  exit 0
fi
echo "daemon booted with args: $*"
exec sleep 30
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func requireSpawnTools(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"sh", "ps", "sleep"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available: %v", tool, err)
		}
	}
}

// TestDaemonLifecycle drives a full init, resolve, start, status,
// logs, and stop round trip against a scripted daemon.
func TestDaemonLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a process and waits out the settle window")
	}
	requireSpawnTools(t)
	setupSettings(t)

	script := writeFakeDaemon(t)
	root := t.TempDir()

	output, err := sbenv(t, "init", "--json", "--email", "alice@example.com", root)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	var initialized struct {
		Port          int    `json:"port"`
		BinaryPath    string `json:"binary_path"`
		BinaryVersion string `json:"binary_version"`
	}
	if err := json.Unmarshal([]byte(output), &initialized); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	if initialized.Port == 0 {
		t.Fatal("init allocated no port")
	}
	if initialized.BinaryPath != "" || initialized.BinaryVersion != "" {
		t.Fatalf("init recorded a binary without being asked: %+v", initialized)
	}

	// The environment has no pin; the global default supplies the
	// scripted daemon.
	if _, err := sbenv(t, "default", "set", script); err != nil {
		t.Fatalf("default set: %v", err)
	}

	output, err = sbenv(t, "binary", "resolve", "--json", "--path", root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var resolved struct {
		Path    string `json:"path"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(output), &resolved); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	if resolved.Path != script {
		t.Errorf("resolved path = %q, want the default script", resolved.Path)
	}
	if resolved.Version != "0.9.9" {
		t.Errorf("resolved version = %q, want the probe's answer", resolved.Version)
	}

	output, err = sbenv(t, "start", "--json", root)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var started struct {
		State string `json:"state"`
		PID   int    `json:"pid"`
	}
	if err := json.Unmarshal([]byte(output), &started); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	if started.State != "running" || started.PID == 0 {
		t.Fatalf("start reported %+v", started)
	}
	pid := started.PID

	// The daemon is this test process's child. Reap it on exit so the
	// supervisor's kill(pid, 0) liveness checks see it die instead of
	// a zombie that never goes away.
	reaped := make(chan struct{})
	go func() {
		var status syscall.WaitStatus
		syscall.Wait4(pid, &status, 0, nil)
		close(reaped)
	}()

	if !process.System().Alive(pid) {
		t.Fatalf("pid %d not alive after start", pid)
	}
	if _, err := os.Stat(supervisor.PIDPath(root)); err != nil {
		t.Fatalf("pid file missing: %v", err)
	}

	output, err = sbenv(t, "status", "--json", root)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status struct {
		State string `json:"state"`
		PID   int    `json:"pid"`
	}
	if err := json.Unmarshal([]byte(output), &status); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	if status.State != "running" || status.PID != pid {
		t.Errorf("status reported %+v, want running pid %d", status, pid)
	}

	output, err = sbenv(t, "logs", root)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(output, "daemon booted with args: daemon --config") {
		t.Errorf("logs = %q, want the boot line with the daemon argv", output)
	}

	output, err = sbenv(t, "stop", root)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !strings.Contains(output, "daemon stopped") {
		t.Errorf("stop output = %q", output)
	}
	<-reaped

	if process.System().Alive(pid) {
		t.Errorf("pid %d still alive after stop", pid)
	}
	if _, err := os.Stat(supervisor.PIDPath(root)); !os.IsNotExist(err) {
		t.Errorf("pid file still present after stop: %v", err)
	}

	// Stopping again is a no-op, not an error.
	output, err = sbenv(t, "stop", root)
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if !strings.Contains(output, "daemon stopped") {
		t.Errorf("second stop output = %q", output)
	}
}
