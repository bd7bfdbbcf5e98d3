// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListEmptyCache(t *testing.T) {
	setupSettings(t)

	output, err := runCommand(t, listCommand)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(output, "no cached binaries") {
		t.Errorf("output = %q", output)
	}
}

func TestListShowsInstalledVersions(t *testing.T) {
	dataDir := setupSettings(t)
	pathOld := seedCachedBinary(t, dataDir, "0.4.0")
	pathNew := seedCachedBinary(t, dataDir, "0.5.1")

	// Residue of an interrupted install: directory without executable.
	if err := os.MkdirAll(filepath.Join(dataDir, "binaries", "0.6.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, listCommand, "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}

	var entries []listEntry
	if err := json.Unmarshal([]byte(output), &entries); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	want := []listEntry{
		{Version: "0.4.0", Path: pathOld},
		{Version: "0.5.1", Path: pathNew},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %+v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestListTextOutput(t *testing.T) {
	dataDir := setupSettings(t)
	seedCachedBinary(t, dataDir, "0.5.1")

	output, err := runCommand(t, listCommand)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(output, "VERSION") || !strings.Contains(output, "0.5.1") {
		t.Errorf("output = %q", output)
	}
}
