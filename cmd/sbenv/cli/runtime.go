// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"

	"github.com/openmined/sbenv/lib/binaries"
	"github.com/openmined/sbenv/lib/config"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/ports"
	"github.com/openmined/sbenv/lib/registry"
	"github.com/openmined/sbenv/lib/supervisor"
)

// Runtime bundles the settings and collaborator constructors every
// command needs. Commands call [NewRuntime] once in Run and build only
// the collaborators they use; nothing here touches the network or
// spawns processes until asked.
type Runtime struct {
	Settings *config.Settings
	Logger   *slog.Logger
}

// NewRuntime loads and validates the sbenv settings and makes sure the
// data directories exist.
func NewRuntime(logger *slog.Logger) (*Runtime, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := settings.EnsureDirectories(); err != nil {
		return nil, err
	}
	return &Runtime{Settings: settings, Logger: logger}, nil
}

// LoadRegistry reads the environment registry document.
func (rt *Runtime) LoadRegistry() (registry.Registry, error) {
	return registry.Load(rt.Settings.RegistryPath())
}

// SaveRegistry persists the environment registry document.
func (rt *Runtime) SaveRegistry(reg registry.Registry) error {
	return registry.Save(rt.Settings.RegistryPath(), reg)
}

// LoadDefaults reads the global defaults document.
func (rt *Runtime) LoadDefaults() (*envconfig.Defaults, error) {
	return envconfig.LoadDefaults(rt.Settings.DefaultsPath())
}

// SaveDefaults persists the global defaults document.
func (rt *Runtime) SaveDefaults(defaults *envconfig.Defaults) error {
	return envconfig.SaveDefaults(rt.Settings.DefaultsPath(), defaults)
}

// PortAllocator returns an allocator over the configured port range.
func (rt *Runtime) PortAllocator() *ports.Allocator {
	return ports.NewAllocator(rt.Settings.Ports.First, rt.Settings.Ports.Last)
}

// Resolver builds the binary resolver against the configured release
// source.
func (rt *Runtime) Resolver() (*binaries.Resolver, error) {
	client, err := binaries.NewGitHubClient(binaries.GitHubConfig{
		APIBase: rt.Settings.Release.APIBase,
		Owner:   rt.Settings.Release.Owner,
		Repo:    rt.Settings.Release.Repo,
		Logger:  rt.Logger,
	})
	if err != nil {
		return nil, err
	}
	return binaries.NewResolver(binaries.ResolverConfig{
		BinariesDir: rt.Settings.BinariesDir(),
		Client:      client,
		Logger:      rt.Logger,
	})
}

// Supervisor builds the daemon supervisor with the configured global
// config slot and probe timeout.
func (rt *Runtime) Supervisor() *supervisor.Supervisor {
	return supervisor.New(supervisor.Config{
		Prober:           supervisor.NewProber(rt.Settings.ProbeTimeoutDuration()),
		Logger:           rt.Logger,
		GlobalConfigPath: rt.Settings.GlobalConfig,
		SwapJournalPath:  rt.Settings.SwapJournalPath(),
	})
}
