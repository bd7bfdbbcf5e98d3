// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"fmt"
	"strings"
)

// Release asset scores. Archives beat raw binaries because they
// preserve the executable bit and carry predictable layouts.
const (
	scoreNone    = 0
	scoreRaw     = 1
	scoreZip     = 2
	scoreTarGz   = 3
	scorePerfect = scoreTarGz
)

// osTokens returns the substrings that identify goos in release asset
// names. Publishers are inconsistent about platform naming, so each
// OS carries its common aliases.
func osTokens(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"darwin", "macos", "osx"}
	case "linux":
		return []string{"linux"}
	case "windows":
		return []string{"windows"}
	default:
		return []string{goos}
	}
}

// archTokens returns the substrings that identify goarch in release
// asset names.
func archTokens(goarch string) []string {
	switch goarch {
	case "amd64":
		return []string{"amd64", "x86_64", "x64"}
	case "arm64":
		return []string{"arm64", "aarch64"}
	case "386":
		return []string{"386", "i386", "x86"}
	default:
		return []string{goarch}
	}
}

func containsAny(name string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// scoreAsset rates how well an asset name fits the target platform.
// A name that lacks an OS or architecture token scores zero; matching
// names are ranked by packaging, tar.gz highest.
func scoreAsset(name, goos, goarch string) int {
	lower := strings.ToLower(name)
	if !containsAny(lower, osTokens(goos)) {
		return scoreNone
	}
	if !containsAny(lower, archTokens(goarch)) {
		return scoreNone
	}
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return scoreTarGz
	case strings.HasSuffix(lower, ".zip"):
		return scoreZip
	case strings.HasSuffix(lower, ".sha256") || strings.HasSuffix(lower, ".txt") ||
		strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".sig") ||
		strings.HasSuffix(lower, ".pem"):
		// Checksums and signatures mention the platform but are not
		// binaries.
		return scoreNone
	default:
		return scoreRaw
	}
}

// findAsset picks the best-scoring asset for the platform, scanning
// in release order and stopping early at the first perfect score.
func findAsset(release *Release, goos, goarch string) (*Asset, bool) {
	var best *Asset
	bestScore := scoreNone
	for i := range release.Assets {
		asset := &release.Assets[i]
		score := scoreAsset(asset.Name, goos, goarch)
		if score == scorePerfect {
			return asset, true
		}
		if score > bestScore {
			best = asset
			bestScore = score
		}
	}
	return best, best != nil
}

// candidateFilenames builds the conventional release file names to
// try when asset metadata is unavailable or matches nothing:
// name/version/OS/arch joined by underscores or dashes, with and
// without the "v" version prefix, archives before raw binaries.
func candidateFilenames(version, goos, goarch string) []string {
	bare := NormalizeVersion(version)
	versions := []string{"v" + bare, bare}
	var names []string
	for _, ext := range []string{".tar.gz", ".zip", ""} {
		for _, sep := range []string{"_", "-"} {
			for _, v := range versions {
				parts := []string{ExecutableName, v, goos, goarch}
				names = append(names, fmt.Sprintf("%s%s", strings.Join(parts, sep), ext))
			}
		}
	}
	return names
}
