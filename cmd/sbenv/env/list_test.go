// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestListNoEnvironments(t *testing.T) {
	setupSettings(t)

	output, err := runCommand(t, ListCommand)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(output, "no environments registered") {
		t.Errorf("output = %q", output)
	}
}

func TestListShowsEnvironments(t *testing.T) {
	setupSettings(t)
	rootA := t.TempDir()
	rootB := t.TempDir()
	initEnvironment(t, rootA)
	if _, err := runCommand(t, InitCommand, "--email", "bob@example.com", "--dev", rootB); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, ListCommand, "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}

	var entries []listEntry
	if err := json.Unmarshal([]byte(output), &entries); err != nil {
		t.Fatalf("unmarshaling %q: %v", output, err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	byEmail := map[string]listEntry{}
	for _, entry := range entries {
		byEmail[entry.Email] = entry
	}
	entryA, ok := byEmail["alice@example.com"]
	if !ok {
		t.Fatalf("no entry for alice in %+v", entries)
	}
	if entryA.Port == 0 || entryA.Name == "" {
		t.Errorf("entry = %+v", entryA)
	}
	if entryA.State != "absent" {
		t.Errorf("state = %q, want absent with no daemon", entryA.State)
	}
	if entryA.Active {
		t.Error("no environment is activated, Active must be false")
	}
	if entryB := byEmail["bob@example.com"]; !entryB.DevMode {
		t.Errorf("entry = %+v, want dev mode recorded", entryB)
	}
}

func TestListMarksActiveEnvironment(t *testing.T) {
	setupSettings(t)
	rootA := t.TempDir()
	rootB := t.TempDir()
	initEnvironment(t, rootA)
	if _, err := runCommand(t, InitCommand, "--email", "bob@example.com", rootB); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SBENV_ROOT", rootA)

	output, err := runCommand(t, ListCommand)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var activeLine string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "* ") {
			activeLine = line
		}
	}
	if activeLine == "" {
		t.Fatalf("no active marker in output:\n%s", output)
	}
	if !strings.Contains(activeLine, "alice@example.com") {
		t.Errorf("active line = %q, want the activated environment", activeLine)
	}
	if strings.Count(output, "* ") != 1 {
		t.Errorf("more than one active marker:\n%s", output)
	}
}
