// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// BuildDetails is what a freshly installed executable reports about
// itself when asked for its version.
type BuildDetails struct {
	Version   string
	Commit    string
	Toolchain string
	OS        string
	Arch      string
	Timestamp string
}

// VersionProber runs an installed executable to learn its actual
// version and build metadata. Tests substitute fakes; the production
// implementation shells out.
type VersionProber interface {
	Probe(ctx context.Context, binaryPath string) (BuildDetails, error)
}

// defaultProbeTimeout bounds how long a version probe may hang. A
// healthy binary answers in milliseconds; an unresponsive one should
// not stall an install.
const defaultProbeTimeout = 10 * time.Second

// NewProber returns the production version prober. A zero timeout
// selects the default.
func NewProber(timeout time.Duration) VersionProber {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return execProber{timeout: timeout}
}

type execProber struct {
	timeout time.Duration
}

func (prober execProber) Probe(ctx context.Context, binaryPath string) (BuildDetails, error) {
	probeCtx, cancel := context.WithTimeout(ctx, prober.timeout)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, binaryPath, "--version").CombinedOutput()
	if err != nil {
		return BuildDetails{}, fmt.Errorf("probing %s --version: %w", binaryPath, err)
	}
	details, err := ParseVersionOutput(string(output))
	if err != nil {
		return BuildDetails{}, fmt.Errorf("probing %s: %w", binaryPath, err)
	}
	return details, nil
}

// fullVersionLine matches the daemon's complete self-report:
//
//	syftbox version 0.5.1 (a1b2c3d; go1.24.1; linux/amd64; 2026-01-12T08:30:00Z)
var fullVersionLine = regexp.MustCompile(`^\S+ version (v?\d\S*) \(([^;)]+); ([^;)]+); ([^/;)]+)/([^;)]+); ([^)]+)\)$`)

// shortVersionLine matches builds that only report a version number.
var shortVersionLine = regexp.MustCompile(`^(?:\S+ version )?(v?\d+\.\d+\.\d+\S*)$`)

// ParseVersionOutput extracts build details from a --version report.
// The full parenthesized form yields commit, toolchain, platform, and
// timestamp; a bare version line yields the version alone. Output
// with no recognizable version line is an error.
func ParseVersionOutput(output string) (BuildDetails, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if match := fullVersionLine.FindStringSubmatch(line); match != nil {
			return BuildDetails{
				Version:   NormalizeVersion(match[1]),
				Commit:    strings.TrimSpace(match[2]),
				Toolchain: strings.TrimSpace(match[3]),
				OS:        strings.TrimSpace(match[4]),
				Arch:      strings.TrimSpace(match[5]),
				Timestamp: strings.TrimSpace(match[6]),
			}, nil
		}
		if match := shortVersionLine.FindStringSubmatch(line); match != nil {
			return BuildDetails{Version: NormalizeVersion(match[1])}, nil
		}
	}
	return BuildDetails{}, fmt.Errorf("no version line in output %q", strings.TrimSpace(output))
}
