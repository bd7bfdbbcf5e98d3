// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openmined/sbenv/lib/atomicfile"
)

// Load reads the registry document. A missing file is an empty
// registry, not an error, since the first sbenv run has nothing on
// disk yet. A present but unparsable file is an error naming the
// path; it must not be silently treated as empty, or a save would
// destroy it.
func Load(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Registry{}, nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}

	reg := Registry{}
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	return reg, nil
}

// Save writes the whole registry document atomically. Last writer
// wins; concurrent invocations against the same registry are outside
// the tool's guarantees.
func Save(path string, reg Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	data = append(data, '\n')

	if err := atomicfile.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving registry %s: %w", path, err)
	}
	return nil
}
