// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openmined/sbenv/lib/atomicfile"
)

// Marker is the lightweight discovery snapshot left at an environment
// root for unrelated tooling. Binary identity is whichever of path or
// version the environment pinned at creation.
type Marker struct {
	Email     string `json:"email"`
	Port      int    `json:"port"`
	ServerURL string `json:"server_url,omitempty"`
	Binary    string `json:"binary,omitempty"`
}

// MarkerPath returns the marker location for an environment root.
func MarkerPath(root string) string {
	return filepath.Join(root, ".sbenv", "env.json")
}

// WriteMarker writes the discovery marker for an environment root.
// An existing marker is never overwritten: external tools may have
// read it, and the snapshot documents the environment's creation, not
// its current state. Returns false when a marker was already present.
func WriteMarker(root string, marker Marker) (bool, error) {
	path := MarkerPath(root)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking marker %s: %w", path, err)
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshaling marker: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating marker directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing marker %s: %w", path, err)
	}
	return true, nil
}

// ReadMarker reads the discovery marker for an environment root.
func ReadMarker(root string) (*Marker, error) {
	data, err := os.ReadFile(MarkerPath(root))
	if err != nil {
		return nil, err
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("parsing marker %s: %w", MarkerPath(root), err)
	}
	return &marker, nil
}
