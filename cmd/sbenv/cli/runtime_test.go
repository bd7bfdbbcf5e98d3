// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeSettingsFile(t *testing.T, dir string) (settingsPath, dataDir string) {
	t.Helper()

	dataDir = filepath.Join(dir, "sbenv-data")
	globalConfig := filepath.Join(dir, "syftbox", "config.json")
	settingsPath = filepath.Join(dir, "settings.yaml")

	content := fmt.Sprintf("data_dir: %s\nglobal_config: %s\n", dataDir, globalConfig)
	if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	return settingsPath, dataDir
}

func TestNewRuntimeLoadsSettings(t *testing.T) {
	settingsPath, dataDir := writeSettingsFile(t, t.TempDir())
	t.Setenv("SBENV_CONFIG", settingsPath)

	rt, err := NewRuntime(testLogger())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	if rt.Settings.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", rt.Settings.DataDir, dataDir)
	}
	if info, err := os.Stat(rt.Settings.BinariesDir()); err != nil || !info.IsDir() {
		t.Errorf("binaries dir not created: %v", err)
	}
}

func TestNewRuntimeRejectsBrokenSettings(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.yaml")
	content := "data_dir: " + filepath.Join(dir, "data") + "\nports:\n  first: 9000\n  last: 8000\n"
	if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SBENV_CONFIG", settingsPath)

	if _, err := NewRuntime(testLogger()); err == nil {
		t.Error("NewRuntime accepted an inverted port range")
	}
}

func TestRuntimeRegistryRoundTrip(t *testing.T) {
	settingsPath, _ := writeSettingsFile(t, t.TempDir())
	t.Setenv("SBENV_CONFIG", settingsPath)

	rt, err := NewRuntime(testLogger())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	reg, err := rt.LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry on fresh data dir: %v", err)
	}
	if len(reg) != 0 {
		t.Errorf("fresh registry has %d entries", len(reg))
	}

	if err := rt.SaveRegistry(reg); err != nil {
		t.Fatalf("SaveRegistry: %v", err)
	}
	if _, err := os.Stat(rt.Settings.RegistryPath()); err != nil {
		t.Errorf("registry file not written: %v", err)
	}
}

func TestRuntimePortAllocator(t *testing.T) {
	settingsPath, _ := writeSettingsFile(t, t.TempDir())
	t.Setenv("SBENV_CONFIG", settingsPath)

	rt, err := NewRuntime(testLogger())
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}

	allocator := rt.PortAllocator()
	port, err := allocator.Allocate(nil)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if port < rt.Settings.Ports.First || port > rt.Settings.Ports.Last {
		t.Errorf("port %d outside configured range [%d, %d]",
			port, rt.Settings.Ports.First, rt.Settings.Ports.Last)
	}
}
