// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openmined/sbenv/lib/envconfig"
)

func initEnvironment(t *testing.T, root string) {
	t.Helper()
	if _, err := runCommand(t, InitCommand, "--email", "alice@example.com", root); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestRemoveUnregistersButKeepsFiles(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)

	output, err := runCommand(t, RemoveCommand, root)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(output, "removed "+root+" from the registry") {
		t.Errorf("output = %q", output)
	}
	if !strings.Contains(output, "left in place") {
		t.Errorf("output = %q, want a note that files were kept", output)
	}

	if reg := loadTestRegistry(t); len(reg) != 0 {
		t.Errorf("registry still has %d records", len(reg))
	}
	if _, err := os.Stat(envconfig.ConfigPath(root)); err != nil {
		t.Errorf("config should survive remove without --yes: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".sbenv")); err != nil {
		t.Errorf("marker directory should survive remove without --yes: %v", err)
	}
}

func TestRemoveYesDeletesStateFiles(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)

	output, err := runCommand(t, RemoveCommand, "--yes", root)
	if err != nil {
		t.Fatalf("remove --yes: %v", err)
	}
	if !strings.Contains(output, "deleted .sbenv/") {
		t.Errorf("output = %q", output)
	}

	if _, err := os.Stat(filepath.Join(root, ".sbenv")); !os.IsNotExist(err) {
		t.Errorf(".sbenv still present: %v", err)
	}
	if _, err := os.Stat(envconfig.ConfigPath(root)); !os.IsNotExist(err) {
		t.Errorf("config still present: %v", err)
	}
	if reg := loadTestRegistry(t); len(reg) != 0 {
		t.Errorf("registry still has %d records", len(reg))
	}
}

func TestRemoveYesKeepsUnrelatedFiles(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)

	// Daemon data next to the config must survive.
	datasite := filepath.Join(root, ".syftbox", "datasites")
	if err := os.MkdirAll(datasite, 0o755); err != nil {
		t.Fatal(err)
	}
	userFile := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(userFile, []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCommand(t, RemoveCommand, "--yes", root); err != nil {
		t.Fatalf("remove --yes: %v", err)
	}

	if _, err := os.Stat(datasite); err != nil {
		t.Errorf("daemon data deleted: %v", err)
	}
	if _, err := os.Stat(userFile); err != nil {
		t.Errorf("user file deleted: %v", err)
	}
}

func TestRemoveFallsBackToRegistryWhenConfigGone(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)

	// Simulate a half-torn-down environment: files gone, entry lingers.
	if err := os.RemoveAll(filepath.Join(root, ".syftbox")); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, ".sbenv")); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, RemoveCommand, root)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(output, "removed") {
		t.Errorf("output = %q", output)
	}
	if reg := loadTestRegistry(t); len(reg) != 0 {
		t.Errorf("registry still has %d records", len(reg))
	}
}

func TestRemoveUnknownPath(t *testing.T) {
	setupSettings(t)

	_, err := runCommand(t, RemoveCommand, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no environment found") {
		t.Errorf("err = %v", err)
	}
}
