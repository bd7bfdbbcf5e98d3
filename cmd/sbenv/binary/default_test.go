// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binary

import (
	"strings"
	"testing"
)

func TestDefaultRoundTrip(t *testing.T) {
	setupSettings(t)

	output, err := runCommand(t, DefaultCommand, "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(output, "no default binary set") {
		t.Errorf("fresh show = %q", output)
	}

	output, err = runCommand(t, DefaultCommand, "set", "0.5.1")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(output, "default binary set to 0.5.1") {
		t.Errorf("set output = %q", output)
	}

	output, err = runCommand(t, DefaultCommand, "show")
	if err != nil {
		t.Fatalf("show after set: %v", err)
	}
	if output != "0.5.1\n" {
		t.Errorf("show = %q, want the stored spec", output)
	}

	if _, err := runCommand(t, DefaultCommand, "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	output, err = runCommand(t, DefaultCommand, "show")
	if err != nil {
		t.Fatalf("show after clear: %v", err)
	}
	if !strings.Contains(output, "no default binary set") {
		t.Errorf("cleared show = %q", output)
	}
}

func TestDefaultSetRequiresSpec(t *testing.T) {
	setupSettings(t)

	_, err := runCommand(t, DefaultCommand, "set")
	if err == nil || !strings.Contains(err.Error(), "spec required") {
		t.Errorf("err = %v", err)
	}
}

func TestDefaultSetAcceptsPath(t *testing.T) {
	setupSettings(t)

	if _, err := runCommand(t, DefaultCommand, "set", "/opt/syftbox/bin/syftbox"); err != nil {
		t.Fatalf("set: %v", err)
	}
	output, err := runCommand(t, DefaultCommand, "show")
	if err != nil {
		t.Fatal(err)
	}
	if output != "/opt/syftbox/bin/syftbox\n" {
		t.Errorf("show = %q", output)
	}
}
