// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// ContentHash computes the hex-encoded BLAKE3 digest of the file at
// path. Recorded alongside an installed binary so a later listing can
// tell whether the cached file is still the one that was installed.
func ContentHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
