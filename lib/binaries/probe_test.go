// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"strings"
	"testing"
)

func TestParseVersionOutputFull(t *testing.T) {
	output := "syftbox version 0.5.1 (a1b2c3d; go1.24.1; linux/amd64; 2026-01-12T08:30:00Z)\n"
	details, err := ParseVersionOutput(output)
	if err != nil {
		t.Fatalf("ParseVersionOutput: %v", err)
	}
	if details.Version != "0.5.1" {
		t.Errorf("Version = %q", details.Version)
	}
	if details.Commit != "a1b2c3d" {
		t.Errorf("Commit = %q", details.Commit)
	}
	if details.Toolchain != "go1.24.1" {
		t.Errorf("Toolchain = %q", details.Toolchain)
	}
	if details.OS != "linux" || details.Arch != "amd64" {
		t.Errorf("platform = %s/%s", details.OS, details.Arch)
	}
	if details.Timestamp != "2026-01-12T08:30:00Z" {
		t.Errorf("Timestamp = %q", details.Timestamp)
	}
}

func TestParseVersionOutputStripsVersionPrefix(t *testing.T) {
	details, err := ParseVersionOutput("syftbox version v0.9.0 (deadbee; go1.25.0; darwin/arm64; 2026-02-01T00:00:00Z)")
	if err != nil {
		t.Fatal(err)
	}
	if details.Version != "0.9.0" {
		t.Errorf("Version = %q, want 0.9.0", details.Version)
	}
}

func TestParseVersionOutputBareVersion(t *testing.T) {
	for _, output := range []string{"v0.5.0", "0.5.0\n", "syftbox version 0.5.0"} {
		details, err := ParseVersionOutput(output)
		if err != nil {
			t.Fatalf("ParseVersionOutput(%q): %v", output, err)
		}
		if details.Version != "0.5.0" {
			t.Errorf("ParseVersionOutput(%q).Version = %q", output, details.Version)
		}
		if details.Commit != "" {
			t.Errorf("bare version line produced commit %q", details.Commit)
		}
	}
}

func TestParseVersionOutputSkipsNoise(t *testing.T) {
	output := "warning: config not found\n\nsyftbox version 1.0.0 (cafe123; go1.24.0; linux/arm64; 2026-03-01T12:00:00Z)\n"
	details, err := ParseVersionOutput(output)
	if err != nil {
		t.Fatal(err)
	}
	if details.Version != "1.0.0" || details.Arch != "arm64" {
		t.Errorf("details = %+v", details)
	}
}

func TestParseVersionOutputUnrecognized(t *testing.T) {
	_, err := ParseVersionOutput("usage: syftbox [flags]\n")
	if err == nil {
		t.Fatal("ParseVersionOutput accepted output with no version line")
	}
	if !strings.Contains(err.Error(), "no version line") {
		t.Errorf("error = %q", err)
	}
}
