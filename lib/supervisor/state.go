// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor starts, stops, and health-checks the background
// daemon of one environment. The daemon runs detached from the CLI,
// tracked through a PID file at the environment root; the process
// table, not the PID file, is the authority on whether it is alive.
package supervisor

// State is the supervisor's view of one environment's daemon.
type State string

const (
	// StateAbsent: no PID file, no daemon.
	StateAbsent State = "absent"

	// StateStarting: a spawn is in flight, liveness not yet
	// confirmed.
	StateStarting State = "starting"

	// StateRunning: the tracked PID is alive in the process table.
	StateRunning State = "running"

	// StateStopping: a shutdown signal was sent, exit not yet
	// confirmed.
	StateStopping State = "stopping"

	// StateStale: the PID file referenced a process that no longer
	// exists. The file has already been removed by the time this
	// state is reported.
	StateStale State = "stale"
)

// Health is the outcome of probing the daemon's control API.
type Health string

const (
	// HealthHealthy: the endpoint answered 200, or 401, meaning the
	// API is up and merely wants the token.
	HealthHealthy Health = "healthy"

	// HealthUnhealthy: the endpoint answered, but with an unexpected
	// status.
	HealthUnhealthy Health = "unhealthy"

	// HealthUnreachable: no HTTP response at all.
	HealthUnreachable Health = "unreachable"
)

// Status reports where one environment's daemon stands.
type Status struct {
	State State

	// PID is the live daemon's process ID, 0 when nothing is
	// running.
	PID int

	// Health is set only when a probe was performed.
	Health Health
}
