// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides OS process-table access for the daemon
// supervisor, plus the binary entrypoint error handler.
//
// The [Inspector] interface abstracts liveness checks, process
// listing, and signal delivery so supervisor control logic can be
// tested with fakes instead of real subprocesses. [System] returns
// the real implementation: liveness and signals go through kill(2),
// and the process listing shells out to ps(1) rather than parsing
// /proc directly.
package process
