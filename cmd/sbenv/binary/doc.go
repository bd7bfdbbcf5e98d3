// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package binary implements the "sbenv binary" subcommands for
// managing daemon executables (resolve, install, list) and the
// "sbenv default" group for the global default binary spec.
//
// Resolution is deliberately lazy everywhere else in the tool; these
// commands are the explicit surface for forcing a download, checking
// what a spec resolves to, and seeing what the version cache holds.
package binary
