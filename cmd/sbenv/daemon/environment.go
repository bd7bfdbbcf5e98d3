// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/binaries"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/registry"
	"github.com/openmined/sbenv/lib/supervisor"
)

// environment is the resolved context a lifecycle command operates
// on: the root, its config, and the registry record when one exists.
type environment struct {
	Root   string
	Config *envconfig.Config

	// Record is nil for environments that were never registered (or
	// whose registration was removed); lifecycle commands still work
	// as long as the config carries a client URL.
	Record *registry.Record
}

// loadEnvironment resolves the environment for a lifecycle command.
// start is the user-supplied PATH or "." when omitted.
func loadEnvironment(rt *cli.Runtime, start string) (*environment, error) {
	root, err := envconfig.FindRoot(start)
	if err != nil {
		return nil, err
	}
	cfg, err := envconfig.LoadConfig(envconfig.ConfigPath(root))
	if err != nil {
		return nil, err
	}
	reg, err := rt.LoadRegistry()
	if err != nil {
		return nil, err
	}

	env := &environment{Root: root, Config: cfg}
	if record, ok := reg.Lookup(cfg.Email, root); ok {
		env.Record = record
	} else if record, ok := reg.FindByPath(root); ok {
		// The config's principal changed since registration; the
		// path-matched record still carries the port.
		env.Record = record
	}
	return env, nil
}

// port returns the registered port, 0 when unknown.
func (env *environment) port() int {
	if env.Record == nil {
		return 0
	}
	return env.Record.Port
}

// probeURL returns the daemon's control API base URL, empty when
// neither the config nor the registry pins an address.
func (env *environment) probeURL() string {
	return supervisor.ControlURL(env.Config.ClientURL, env.port())
}

// startSpec assembles everything the supervisor needs to bring up
// this environment's daemon. binarySpec, when non-empty, overrides
// the recorded and default binary preferences for this invocation.
func (env *environment) startSpec(ctx context.Context, rt *cli.Runtime, binarySpec string, force bool, logger *slog.Logger) (supervisor.StartSpec, error) {
	resolver, err := rt.Resolver()
	if err != nil {
		return supervisor.StartSpec{}, err
	}

	var resolution binaries.Resolution
	if binarySpec != "" {
		resolution, err = resolver.Resolve(ctx, binarySpec)
	} else {
		var recordedPath, recordedVersion string
		if env.Record != nil {
			recordedPath = env.Record.BinaryPath
			recordedVersion = env.Record.BinaryVersion
		}
		defaults, defaultsErr := rt.LoadDefaults()
		if defaultsErr != nil {
			return supervisor.StartSpec{}, defaultsErr
		}
		resolution, err = resolver.ResolveForEnvironment(ctx, recordedPath, recordedVersion, defaults.Binary)
	}
	if err != nil {
		return supervisor.StartSpec{}, err
	}
	logger.Debug("binary resolved", "path", resolution.Path, "version", resolution.Version)

	bind, err := supervisor.DeriveBindAddress(env.Config.ClientURL, env.port())
	if err != nil {
		return supervisor.StartSpec{}, fmt.Errorf("%w; re-run 'sbenv init' to assign one", err)
	}

	return supervisor.StartSpec{
		Root:        env.Root,
		ConfigPath:  envconfig.ConfigPath(env.Root),
		Binary:      resolution.Path,
		BindAddress: bind,
		Token:       env.Config.ClientToken,
		ProbeURL:    env.probeURL(),
		Force:       force,
	}, nil
}
