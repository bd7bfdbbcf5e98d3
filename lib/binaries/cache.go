// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CachedPath returns where a version's executable lives in the cache:
// one directory per normalized version, executable inside.
func CachedPath(binariesDir, version string) string {
	return filepath.Join(binariesDir, NormalizeVersion(version), ExecutableName)
}

// LookupCache reports whether the version is installed. A version
// directory that exists but lacks the executable (the residue of an
// interrupted install) is not a hit; the caller installs over it.
func LookupCache(binariesDir, version string) (string, bool) {
	path := CachedPath(binariesDir, version)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// CachedBinary describes one installed version.
type CachedBinary struct {
	Version string
	Path    string
}

// ListCached enumerates installed versions, sorted by version string.
// A missing cache directory is an empty cache, not an error.
func ListCached(binariesDir string) ([]CachedBinary, error) {
	entries, err := os.ReadDir(binariesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing binary cache %s: %w", binariesDir, err)
	}
	var cached []CachedBinary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if path, ok := LookupCache(binariesDir, entry.Name()); ok {
			cached = append(cached, CachedBinary{Version: entry.Name(), Path: path})
		}
	}
	sort.Slice(cached, func(i, j int) bool {
		return cached[i].Version < cached[j].Version
	})
	return cached, nil
}

// RemoveCached deletes one installed version from the cache.
func RemoveCached(binariesDir, version string) error {
	dir := filepath.Join(binariesDir, NormalizeVersion(version))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("version %s is not installed", NormalizeVersion(version))
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing cached version %s: %w", version, err)
	}
	return nil
}
