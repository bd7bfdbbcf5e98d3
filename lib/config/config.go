// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides sbenv's own tool settings.
//
// Settings are loaded from a single YAML file:
//   - the path in the SBENV_CONFIG environment variable, when set
//     (the file must then exist), or
//   - <data dir>/settings.yaml, when present.
//
// The file is optional: absence yields the defaults. Settings cover
// only tool-level knobs (directories, the daemon port range, the
// release download source, probe timeout). Per-environment state
// lives in the registry and in each environment's own config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the master configuration for sbenv.
type Settings struct {
	// DataDir is the base directory for sbenv state: the registry,
	// global defaults, the binary cache, and the swap journal.
	DataDir string `yaml:"data_dir"`

	// GlobalConfig is the well-known global config location the
	// daemon insists on reading. The supervisor swaps an
	// environment's config into this slot around spawn.
	GlobalConfig string `yaml:"global_config"`

	// Ports is the inclusive port range environments are allocated
	// from.
	Ports PortRange `yaml:"ports"`

	// Release identifies where daemon binaries are downloaded from.
	Release ReleaseSource `yaml:"release"`

	// ProbeTimeout is the HTTP health probe timeout, as a Go
	// duration string. Default: 3s.
	ProbeTimeout string `yaml:"probe_timeout"`
}

// PortRange is a fixed inclusive TCP port range.
type PortRange struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// ReleaseSource identifies the GitHub repository that publishes daemon
// release binaries.
type ReleaseSource struct {
	// APIBase is the REST API base URL. Default: https://api.github.com.
	APIBase string `yaml:"api_base"`

	// Owner and Repo identify the repository.
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// Default returns the default settings. These are complete on their
// own; the settings file only overrides them.
func Default() *Settings {
	homeDir, _ := os.UserHomeDir()

	return &Settings{
		DataDir:      filepath.Join(homeDir, ".sbenv"),
		GlobalConfig: filepath.Join(homeDir, ".syftbox", "config.json"),
		Ports:        PortRange{First: 8700, Last: 8759},
		Release: ReleaseSource{
			APIBase: "https://api.github.com",
			Owner:   "OpenMined",
			Repo:    "syftbox",
		},
		ProbeTimeout: "3s",
	}
}

// Load loads settings from SBENV_CONFIG when set, otherwise from
// settings.yaml under the default data directory when that file
// exists, otherwise returns the defaults.
func Load() (*Settings, error) {
	if path := os.Getenv("SBENV_CONFIG"); path != "" {
		return LoadFile(path)
	}

	settings := Default()
	implicit := filepath.Join(settings.DataDir, "settings.yaml")
	if _, err := os.Stat(implicit); err != nil {
		if os.IsNotExist(err) {
			settings.expandVariables()
			return settings, nil
		}
		return nil, fmt.Errorf("checking settings file %s: %w", implicit, err)
	}
	return LoadFile(implicit)
}

// LoadFile loads settings from a specific file path, layered over the
// defaults. Environment variables do not override individual values;
// the only expansion performed is ${VAR} / ${VAR:-default} inside
// string fields, for portability of shared settings files.
func LoadFile(path string) (*Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	settings.expandVariables()
	return settings, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path-valued fields.
func (s *Settings) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	s.DataDir = expandVars(s.DataDir, vars)
	vars["SBENV_DATA"] = s.DataDir // available to dependent paths

	s.GlobalConfig = expandVars(s.GlobalConfig, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	var errs []error

	if s.DataDir == "" {
		errs = append(errs, fmt.Errorf("data_dir is required"))
	}
	if s.GlobalConfig == "" {
		errs = append(errs, fmt.Errorf("global_config is required"))
	}

	if s.Ports.First < 1 || s.Ports.First > 65535 {
		errs = append(errs, fmt.Errorf("ports.first %d out of range 1-65535", s.Ports.First))
	}
	if s.Ports.Last < 1 || s.Ports.Last > 65535 {
		errs = append(errs, fmt.Errorf("ports.last %d out of range 1-65535", s.Ports.Last))
	}
	if s.Ports.First > s.Ports.Last {
		errs = append(errs, fmt.Errorf("ports.first %d exceeds ports.last %d", s.Ports.First, s.Ports.Last))
	}

	if parsed, err := url.Parse(s.Release.APIBase); err != nil {
		errs = append(errs, fmt.Errorf("release.api_base: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("release.api_base %q must be http or https", s.Release.APIBase))
	}
	if s.Release.Owner == "" {
		errs = append(errs, fmt.Errorf("release.owner is required"))
	}
	if s.Release.Repo == "" {
		errs = append(errs, fmt.Errorf("release.repo is required"))
	}

	if _, err := time.ParseDuration(s.ProbeTimeout); err != nil {
		errs = append(errs, fmt.Errorf("probe_timeout: %w", err))
	}

	return errors.Join(errs...)
}

// ProbeTimeoutDuration returns the parsed probe timeout. Call Validate
// first; an unparsable value falls back to 3 seconds here.
func (s *Settings) ProbeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ProbeTimeout)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// RegistryPath returns the path of the environment registry document.
func (s *Settings) RegistryPath() string {
	return filepath.Join(s.DataDir, "registry.json")
}

// DefaultsPath returns the path of the global defaults document.
func (s *Settings) DefaultsPath() string {
	return filepath.Join(s.DataDir, "defaults.json")
}

// BinariesDir returns the root of the per-version binary cache.
func (s *Settings) BinariesDir() string {
	return filepath.Join(s.DataDir, "binaries")
}

// SwapJournalPath returns the path of the global-config swap journal.
func (s *Settings) SwapJournalPath() string {
	return filepath.Join(s.DataDir, "swap.json")
}

// EnsureDirectories creates the data directory tree if missing.
func (s *Settings) EnsureDirectories() error {
	for _, path := range []string{s.DataDir, s.BinariesDir()} {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
