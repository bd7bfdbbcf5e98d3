// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openmined/sbenv/lib/envconfig"
)

func TestActivatePrintsExports(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)
	record, ok := loadTestRegistry(t).Lookup("alice@example.com", root)
	if !ok {
		t.Fatal("environment not registered")
	}

	output, err := runCommand(t, ActivateCommand, root)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	wantLines := []string{
		fmt.Sprintf("export SBENV_ROOT='%s'", root),
		"export SBENV_EMAIL='alice@example.com'",
		fmt.Sprintf("export SBENV_PORT='%d'", record.Port),
		fmt.Sprintf("export SYFTBOX_CONFIG_PATH='%s'", envconfig.ConfigPath(root)),
		"# environment " + root,
	}
	for _, line := range wantLines {
		if !strings.Contains(output, line+"\n") {
			t.Errorf("output missing %q:\n%s", line, output)
		}
	}
}

func TestActivateFallsBackToMarkerPort(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()

	// An environment created by hand: config and marker exist but the
	// registry has never heard of it.
	cfg := &envconfig.Config{Email: "bob@example.com", ServerURL: "https://syftbox.net"}
	if err := envconfig.SaveConfig(envconfig.ConfigPath(root), cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := envconfig.WriteMarker(root, envconfig.Marker{Email: "bob@example.com", Port: 8123}); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, ActivateCommand, root)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !strings.Contains(output, "export SBENV_PORT='8123'\n") {
		t.Errorf("output = %q, want the marker port", output)
	}
}

func TestActivateFindsRootFromSubdirectory(t *testing.T) {
	setupSettings(t)
	root := t.TempDir()
	initEnvironment(t, root)
	nested := filepath.Join(root, "work", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, ActivateCommand, nested)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !strings.Contains(output, fmt.Sprintf("export SBENV_ROOT='%s'\n", root)) {
		t.Errorf("output = %q, want the walked-up root", output)
	}
}

func TestActivateNoEnvironment(t *testing.T) {
	setupSettings(t)

	_, err := runCommand(t, ActivateCommand, t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no environment found") {
		t.Errorf("err = %v", err)
	}
}

func TestDeactivatePrintsUnsets(t *testing.T) {
	output, err := runCommand(t, DeactivateCommand)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	want := "unset SBENV_ROOT\nunset SBENV_EMAIL\nunset SBENV_PORT\nunset SYFTBOX_CONFIG_PATH\n"
	if output != want {
		t.Errorf("output = %q, want %q", output, want)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"with space", "'with space'"},
		{"don't", `'don'\''t'`},
		{"", "''"},
	}
	for _, tc := range tests {
		if got := shellQuote(tc.in); got != tc.want {
			t.Errorf("shellQuote(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
