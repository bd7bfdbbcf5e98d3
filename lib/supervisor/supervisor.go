// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmined/sbenv/lib/clock"
	"github.com/openmined/sbenv/lib/process"
)

const (
	// settleDelay is the window after spawning in which the child
	// either crashes immediately or stabilizes, and during which it
	// reads its config.
	settleDelay = 2 * time.Second

	// Stop first asks politely, then polls; SIGKILL comes halfway
	// through the poll budget.
	stopPollInterval = time.Second
	stopPollBudget   = 10
	forceKillAfter   = 5

	// restartDelay separates the stop from the fresh start.
	restartDelay = time.Second
)

// Config assembles a Supervisor. Every field defaults to the
// production implementation; tests inject fakes.
type Config struct {
	// Inspector answers liveness and process-list questions.
	Inspector process.Inspector

	// Launcher spawns the detached daemon.
	Launcher Launcher

	// Prober checks the daemon's control API.
	Prober Prober

	// Clock provides delays. Inject a fake for instant tests.
	Clock clock.Clock

	// Logger is used for structured logging.
	Logger *slog.Logger

	// GlobalConfigPath is the well-known config location the daemon
	// consults regardless of its --config argument. Empty disables
	// the swap workaround.
	GlobalConfigPath string

	// SwapJournalPath persists in-flight swaps for crash repair.
	// Empty disables journaling.
	SwapJournalPath string
}

// Supervisor drives the daemon lifecycle for environments.
type Supervisor struct {
	inspector        process.Inspector
	launcher         Launcher
	prober           Prober
	clk              clock.Clock
	logger           *slog.Logger
	globalConfigPath string
	swapJournalPath  string
}

// New creates a Supervisor, filling unset collaborators with the
// production implementations.
func New(config Config) *Supervisor {
	inspector := config.Inspector
	if inspector == nil {
		inspector = process.System()
	}
	launcher := config.Launcher
	if launcher == nil {
		launcher = NewLauncher()
	}
	prober := config.Prober
	if prober == nil {
		prober = NewProber(0)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		inspector:        inspector,
		launcher:         launcher,
		prober:           prober,
		clk:              clk,
		logger:           logger,
		globalConfigPath: config.GlobalConfigPath,
		swapJournalPath:  config.SwapJournalPath,
	}
}

// StartSpec is everything Start needs to bring up one environment's
// daemon.
type StartSpec struct {
	// Root is the environment root directory.
	Root string

	// ConfigPath is the environment's config file.
	ConfigPath string

	// Binary is the resolved executable, or a bare name for the OS
	// search path.
	Binary string

	// BindAddress is the host:port the daemon should listen on.
	BindAddress string

	// Token is the control API bearer token, optional.
	Token string

	// ProbeURL is the control API base URL; empty skips the
	// post-start probe.
	ProbeURL string

	// Force spawns a fresh daemon even when a live one is tracked,
	// stopping the old one first.
	Force bool
}

// Start brings up the daemon. When a live daemon is already tracked
// and Force is off, Start is a no-op that reports the existing PID.
// The PID file is written only after the child has survived the
// settle window.
func (s *Supervisor) Start(ctx context.Context, spec StartSpec) (Status, error) {
	pidPath := PIDPath(spec.Root)
	pid, _, err := s.livePID(pidPath)
	if err != nil {
		return Status{}, err
	}
	if pid != 0 {
		if !spec.Force {
			s.logger.Info("daemon already running", "pid", pid, "root", spec.Root)
			return Status{State: StateRunning, PID: pid}, nil
		}
		if _, err := s.Stop(spec.Root); err != nil {
			s.logger.Warn("stopping existing daemon before forced start", "pid", pid, "error", err)
		}
	}

	// Sweep daemons from crashed supervisor runs before they fight
	// the new child for the port and the config.
	if err := s.killOrphans(spec.ConfigPath, 0); err != nil {
		return Status{}, err
	}

	s.logger.Info("starting daemon",
		"state", StateStarting,
		"binary", spec.Binary,
		"bind", spec.BindAddress,
		"root", spec.Root,
	)

	guard, err := s.acquireGlobalSlot(spec.ConfigPath)
	if err != nil {
		return Status{}, err
	}
	// The explicit release below runs at the right moment on the
	// happy path; this one covers every error return in between.
	defer func() {
		if err := guard.release(); err != nil {
			s.logger.Error("restoring global config slot failed", "error", err)
		}
	}()

	logPath := LogPath(spec.Root)
	childPID, err := s.launcher.Launch(SpawnSpec{
		Binary:      spec.Binary,
		ConfigPath:  spec.ConfigPath,
		BindAddress: spec.BindAddress,
		Token:       spec.Token,
		LogPath:     logPath,
		WorkDir:     spec.Root,
	})
	if err != nil {
		return Status{}, fmt.Errorf("starting daemon: %w", err)
	}

	// The child reads its config inside this window.
	s.clk.Sleep(settleDelay)

	if err := guard.release(); err != nil {
		s.logger.Error("restoring global config slot failed", "error", err)
	}

	if !s.inspector.Alive(childPID) {
		if err := removePIDFile(pidPath); err != nil {
			s.logger.Warn("removing PID file after failed start", "error", err)
		}
		return Status{}, fmt.Errorf("daemon failed to start (pid %d exited immediately); see %s", childPID, logPath)
	}

	if err := writePIDFile(pidPath, childPID); err != nil {
		return Status{}, err
	}

	status := Status{State: StateRunning, PID: childPID}
	if spec.ProbeURL != "" {
		status.Health = s.prober.Probe(ctx, spec.ProbeURL)
		if status.Health == HealthHealthy {
			s.logger.Info("daemon control API responding", "pid", childPID, "url", spec.ProbeURL)
		} else {
			s.logger.Warn("daemon started but control API not confirmed",
				"pid", childPID,
				"url", spec.ProbeURL,
				"health", status.Health,
			)
		}
	}
	s.logger.Info("daemon started", "pid", childPID, "log", logPath)
	return status, nil
}

// Stop takes the daemon down: SIGTERM, then up to ten one-second
// polls with a SIGKILL halfway through if it won't leave, and the
// PID file removed once it is gone. A daemon that is not running is
// reported, not an error.
func (s *Supervisor) Stop(root string) (Status, error) {
	pidPath := PIDPath(root)
	pid, wasStale, err := s.livePID(pidPath)
	if err != nil {
		return Status{}, err
	}
	if pid == 0 {
		state := StateAbsent
		if wasStale {
			state = StateStale
		}
		s.logger.Info("daemon not running", "root", root)
		return Status{State: state}, nil
	}

	s.logger.Info("stopping daemon", "state", StateStopping, "pid", pid)
	if err := s.inspector.Terminate(pid); err != nil {
		s.logger.Warn("SIGTERM failed", "pid", pid, "error", err)
	}

	stopped := false
	for attempt := 0; attempt < stopPollBudget; attempt++ {
		if !s.inspector.Alive(pid) {
			stopped = true
			break
		}
		if attempt == forceKillAfter {
			s.logger.Warn("daemon ignoring SIGTERM, escalating to SIGKILL", "pid", pid)
			if err := s.inspector.Kill(pid); err != nil {
				s.logger.Warn("SIGKILL failed", "pid", pid, "error", err)
			}
		}
		s.clk.Sleep(stopPollInterval)
	}
	if !stopped && s.inspector.Alive(pid) {
		return Status{State: StateRunning, PID: pid},
			fmt.Errorf("daemon pid %d still running after SIGKILL", pid)
	}

	if err := removePIDFile(pidPath); err != nil {
		return Status{}, err
	}
	s.logger.Info("daemon stopped", "pid", pid)
	return Status{State: StateAbsent}, nil
}

// Restart stops the daemon (failures logged, not fatal), waits a
// beat, and starts fresh with Force set.
func (s *Supervisor) Restart(ctx context.Context, spec StartSpec) (Status, error) {
	if _, err := s.Stop(spec.Root); err != nil {
		s.logger.Warn("stop before restart failed", "root", spec.Root, "error", err)
	}
	s.clk.Sleep(restartDelay)
	spec.Force = true
	return s.Start(ctx, spec)
}

// Status reports the daemon's state, cleaning up stale PID files as
// a side effect. probeURL, when non-empty, adds a control API health
// check for a running daemon.
func (s *Supervisor) Status(ctx context.Context, root, probeURL string) (Status, error) {
	pid, wasStale, err := s.livePID(PIDPath(root))
	if err != nil {
		return Status{}, err
	}
	if pid == 0 {
		state := StateAbsent
		if wasStale {
			state = StateStale
		}
		return Status{State: state}, nil
	}
	status := Status{State: StateRunning, PID: pid}
	if probeURL != "" {
		status.Health = s.prober.Probe(ctx, probeURL)
	}
	return status, nil
}

// livePID reads the tracked PID and verifies it against the process
// table. Garbage content or a dead PID is stale: the file is removed
// on the spot and 0 comes back with the stale flag set, not an error.
func (s *Supervisor) livePID(pidPath string) (pid int, wasStale bool, err error) {
	pid, err = readPIDFile(pidPath)
	if err != nil {
		s.logger.Warn("PID file unusable, removing", "path", pidPath, "error", err)
		if removeErr := removePIDFile(pidPath); removeErr != nil {
			return 0, false, errors.Join(err, removeErr)
		}
		return 0, true, nil
	}
	if pid == 0 {
		return 0, false, nil
	}
	if !s.inspector.Alive(pid) {
		s.logger.Info("removing stale PID file", "path", pidPath, "pid", pid)
		if err := removePIDFile(pidPath); err != nil {
			return 0, false, err
		}
		return 0, true, nil
	}
	return pid, false, nil
}
