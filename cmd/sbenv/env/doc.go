// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package env implements the environment lifecycle subcommands:
// init, list, remove, activate, and deactivate.
//
// An environment is a directory bound to an identity, a port, and
// optionally a pinned daemon binary. init writes the three durable
// artifacts (per-environment config, discovery marker, registry
// record); remove takes them away again. activate and deactivate are
// shell-boundary commands: they only print export/unset lines for the
// caller's shell to eval, since a child process cannot mutate its
// parent's environment.
package env
