// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon implements the daemon lifecycle subcommands: start,
// stop, restart, status, and logs.
//
// Every command resolves its environment by walking up from PATH (or
// the working directory) to the nearest .syftbox/config.json, loads
// the config and the registry record, and hands the assembled
// [supervisor.StartSpec] to lib/supervisor. The commands themselves
// stay thin: argument handling, output formatting, and exit codes.
package daemon
