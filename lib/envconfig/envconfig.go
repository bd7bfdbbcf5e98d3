// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package envconfig handles the JSON documents that live with an
// environment or in the sbenv data directory: the per-environment
// daemon config, the global defaults document, and the discovery
// marker.
//
// The per-environment config is shared with the daemon itself: the
// daemon rewrites it during its login flow. Fields sbenv owns (email,
// server URL, client URL, dev mode) are restored after the daemon has
// run; fields the daemon owns (credentials) and any keys sbenv does
// not know about ride along unmodified. Reads tolerate comments and
// trailing commas, since users hand-edit these files; writes emit
// plain JSON.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/openmined/sbenv/lib/atomicfile"
)

// ConfigRelPath is the per-environment config location relative to
// the environment root. The directory name matches what the daemon
// expects; sbenv does not get to choose it.
const ConfigRelPath = ".syftbox/config.json"

// ConfigPath returns the per-environment config path for a root.
func ConfigPath(root string) string {
	return filepath.Join(root, ".syftbox", "config.json")
}

// Config is the per-environment daemon configuration document.
//
// The struct fields are the keys sbenv owns or reads; unknown keys
// are preserved verbatim across load/save cycles.
type Config struct {
	Email        string `json:"email"`
	ServerURL    string `json:"server_url"`
	ClientURL    string `json:"client_url"`
	ClientToken  string `json:"client_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	DevMode      bool   `json:"dev_mode,omitempty"`

	// extra holds keys written by the daemon that sbenv does not
	// model. Never inspected, only carried.
	extra map[string]json.RawMessage
}

// ownedKeys are the JSON keys corresponding to Config's struct
// fields. Everything else in the document is foreign.
var ownedKeys = []string{
	"email", "server_url", "client_url", "client_token", "refresh_token", "dev_mode",
}

// LoadConfig reads and parses an environment config file. The read is
// tolerant of comments and trailing commas. Missing files are an
// error: an environment without its config is broken, and the error
// names the path that was attempted.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment config %s: %w", path, err)
	}

	plain := jsonc.ToJSON(data)

	var cfg Config
	if err := json.Unmarshal(plain, &cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config %s: %w", path, err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(plain, &raw); err != nil {
		return nil, fmt.Errorf("parsing environment config %s: %w", path, err)
	}
	for _, key := range ownedKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		cfg.extra = raw
	}

	return &cfg, nil
}

// SaveConfig writes the config document atomically, merging the
// struct fields over any preserved foreign keys. Mode 0600: the
// document can carry credentials.
func SaveConfig(path string, cfg *Config) error {
	structJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling environment config: %w", err)
	}

	combined := map[string]json.RawMessage{}
	for key, value := range cfg.extra {
		combined[key] = value
	}
	if err := json.Unmarshal(structJSON, &combined); err != nil {
		return fmt.Errorf("merging environment config fields: %w", err)
	}

	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling environment config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("saving environment config %s: %w", path, err)
	}
	return nil
}

// RestoreOwned reconstructs the config after the daemon has had a
// chance to rewrite it: fields sbenv owns come from owned (the
// pre-spawn backup), credentials and unknown keys come from mutated
// (the file as the daemon left it).
func RestoreOwned(owned, mutated *Config) *Config {
	restored := *mutated
	restored.Email = owned.Email
	restored.ServerURL = owned.ServerURL
	restored.ClientURL = owned.ClientURL
	restored.DevMode = owned.DevMode
	return &restored
}

// FindRoot walks up from startDir looking for a directory containing
// the per-environment config file and returns that directory. Used by
// every command that takes an optional environment path.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", startDir, err)
	}

	for {
		if _, err := os.Stat(ConfigPath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no environment found: no %s in %s or any parent", ConfigRelPath, startDir)
		}
		dir = parent
	}
}
