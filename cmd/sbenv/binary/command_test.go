// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupSettings points SBENV_CONFIG at a scratch settings file and
// empties PATH so nothing resolves against the host system. Returns
// the data directory for seeding the binary cache.
func setupSettings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	settingsPath := filepath.Join(dir, "settings.yaml")
	content := fmt.Sprintf("data_dir: %s\nglobal_config: %s\n",
		dataDir, filepath.Join(dir, "global-config.json"))
	if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SBENV_CONFIG", settingsPath)
	t.Setenv("PATH", filepath.Join(dir, "empty-path"))
	return dataDir
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

func runCommand(t *testing.T, build func() *cli.Command, args ...string) (string, error) {
	t.Helper()
	var err error
	output := captureStdout(t, func() {
		err = build().Execute(context.Background(), args, testLogger())
	})
	return output, err
}

// seedCachedBinary plants a fake installed version in the cache.
func seedCachedBinary(t *testing.T, dataDir, version string) string {
	t.Helper()
	dir := filepath.Join(dataDir, "binaries", version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "syftbox")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
