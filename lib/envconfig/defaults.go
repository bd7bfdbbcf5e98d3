// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package envconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/openmined/sbenv/lib/atomicfile"
)

// Defaults is the global defaults document: a single optional binary
// spec (path or version) applied when an environment does not pin its
// own.
type Defaults struct {
	Binary string `json:"binary,omitempty"`
}

// LoadDefaults reads the global defaults document. A missing file
// yields zero defaults.
func LoadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Defaults{}, nil
		}
		return nil, fmt.Errorf("reading defaults %s: %w", path, err)
	}

	var defaults Defaults
	if err := json.Unmarshal(jsonc.ToJSON(data), &defaults); err != nil {
		return nil, fmt.Errorf("parsing defaults %s: %w", path, err)
	}
	return &defaults, nil
}

// SaveDefaults writes the global defaults document atomically.
func SaveDefaults(path string, defaults *Defaults) error {
	data, err := json.MarshalIndent(defaults, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	data = append(data, '\n')

	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving defaults %s: %w", path, err)
	}
	return nil
}
