// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package binaries turns a user-supplied binary spec (an explicit
// path, a bare executable name, or a release version) into a
// concrete runnable executable, downloading and caching per version
// when necessary.
//
// Resolution is best-effort and fails late: a name that cannot be
// found anywhere is passed through unresolved and only fails when the
// daemon is actually spawned. Version installs, by contrast, fail
// eagerly with an error naming every download attempt that was tried.
package binaries

import (
	"regexp"
	"strings"
)

// ExecutableName is the daemon executable's canonical file name, both
// inside release archives and in the version cache.
const ExecutableName = "syftbox"

// versionPattern matches semantic versions with an optional leading
// "v" and optional pre-release/build suffixes.
var versionPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)

// IsVersion reports whether spec parses as a semantic version. Specs
// that do not are treated as filesystem paths or executable names.
func IsVersion(spec string) bool {
	return versionPattern.MatchString(spec)
}

// NormalizeVersion strips a leading "v" so cache directories and
// comparisons use one canonical form.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(version, "v")
}
