// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/openmined/sbenv/cmd/sbenv/cli"
	"github.com/openmined/sbenv/lib/binaries"
	"github.com/openmined/sbenv/lib/envconfig"
	"github.com/openmined/sbenv/lib/identity"
	"github.com/openmined/sbenv/lib/registry"
)

// initParams holds the parameters for the init command.
type initParams struct {
	cli.JSONOutput
	Email  string `flag:"email,e" desc:"identity the environment belongs to (required)"`
	Name   string `flag:"name,n"  desc:"display name (defaults to the directory name)"`
	Server string `flag:"server"  desc:"SyftBox server URL" default:"https://syftbox.net"`
	Dev    bool   `flag:"dev"     desc:"mark the environment as development mode"`
	Binary string `flag:"binary,b" desc:"pin a daemon binary: a version (0.5.1) or an executable path"`
}

// initResult is the JSON output for init.
type initResult struct {
	Path          string `json:"path"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Port          int    `json:"port"`
	ServerURL     string `json:"server_url"`
	DevMode       bool   `json:"dev_mode,omitempty"`
	BinaryPath    string `json:"binary_path,omitempty"`
	BinaryVersion string `json:"binary_version,omitempty"`
	MarkerWritten bool   `json:"marker_written"`
}

// InitCommand returns the "init" command.
func InitCommand() *cli.Command {
	var params initParams

	return &cli.Command{
		Name:    "init",
		Summary: "Create an environment in a directory",
		Description: `Create (or re-create) an environment rooted at PATH, defaulting to
the current directory.

init allocates a port from the configured range, writes the
per-environment daemon config, leaves a discovery marker for other
tooling, and registers the environment under the identity
email@canonical-path. Re-running init against an existing environment
updates the connection settings and keeps everything else: the port,
the pinned binary, and any credentials the daemon has written into
the config.`,
		Usage: "sbenv init --email <email> [flags] [PATH]",
		Examples: []cli.Example{
			{
				Description: "Create an environment in the current directory",
				Command:     "sbenv init --email alice@example.com",
			},
			{
				Description: "Create a dev environment pinned to a released version",
				Command:     "sbenv init --email alice@example.com --dev --binary 0.5.1 ./sandbox",
			},
			{
				Description: "Pin a locally built daemon executable",
				Command:     "sbenv init --email alice@example.com --binary ./bin/syftbox",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("init", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			return runInit(ctx, path, &params, logger)
		},
	}
}

func runInit(ctx context.Context, path string, params *initParams, logger *slog.Logger) error {
	if params.Email == "" {
		return fmt.Errorf("--email is required")
	}
	if err := identity.ValidatePrincipal(params.Email); err != nil {
		return err
	}

	rt, err := cli.NewRuntime(logger)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating environment root %s: %w", root, err)
	}

	name := params.Name
	if name == "" {
		name = filepath.Base(root)
	}

	reg, err := rt.LoadRegistry()
	if err != nil {
		return err
	}

	// Reuse the port of an existing registration so re-init never
	// moves a daemon that external tooling already knows the address
	// of. Fresh environments draw from the configured range.
	port := 0
	if existing, ok := reg.Lookup(params.Email, root); ok {
		port = existing.Port
	}
	if port == 0 {
		port, err = rt.PortAllocator().Allocate(reg.UsedPorts())
		if err != nil {
			return err
		}
	}

	record := registry.Record{
		Path:      root,
		Email:     params.Email,
		Port:      port,
		Name:      name,
		ServerURL: params.Server,
		DevMode:   params.Dev,
	}
	if params.Binary != "" {
		if binaries.IsVersion(params.Binary) {
			record.BinaryVersion = binaries.NormalizeVersion(params.Binary)
		} else {
			record.BinaryPath = absoluteIfOnDisk(params.Binary)
		}
	}

	cfg, err := loadOrNewConfig(envconfig.ConfigPath(root))
	if err != nil {
		return err
	}
	cfg.Email = params.Email
	cfg.ServerURL = params.Server
	cfg.ClientURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	cfg.DevMode = params.Dev
	if cfg.ClientToken == "" {
		cfg.ClientToken, err = newClientToken()
		if err != nil {
			return err
		}
	}
	if err := envconfig.SaveConfig(envconfig.ConfigPath(root), cfg); err != nil {
		return err
	}

	markerWritten, err := envconfig.WriteMarker(root, envconfig.Marker{
		Email:     params.Email,
		Port:      port,
		ServerURL: params.Server,
		Binary:    params.Binary,
	})
	if err != nil {
		return err
	}
	if !markerWritten {
		logger.Debug("marker already present, left untouched", "path", envconfig.MarkerPath(root))
	}

	key := reg.Register(record)
	if err := rt.SaveRegistry(reg); err != nil {
		return err
	}
	logger.Debug("environment registered", "key", key, "port", port)

	// The registry merge may have kept binary fields from a previous
	// registration; report what is actually recorded now.
	final := reg[key]
	result := initResult{
		Path:          final.Path,
		Email:         final.Email,
		Name:          final.Name,
		Port:          final.Port,
		ServerURL:     final.ServerURL,
		DevMode:       final.DevMode,
		BinaryPath:    final.BinaryPath,
		BinaryVersion: final.BinaryVersion,
		MarkerWritten: markerWritten,
	}
	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Printf("initialized environment %s\n", result.Name)
	fmt.Printf("  path:    %s\n", result.Path)
	fmt.Printf("  email:   %s\n", result.Email)
	fmt.Printf("  port:    %d\n", result.Port)
	fmt.Printf("  server:  %s\n", result.ServerURL)
	switch {
	case result.BinaryPath != "":
		fmt.Printf("  binary:  %s\n", result.BinaryPath)
	case result.BinaryVersion != "":
		fmt.Printf("  binary:  %s\n", result.BinaryVersion)
	}
	fmt.Printf("\nRun 'sbenv start' from %s to launch the daemon.\n", result.Path)
	return nil
}

// loadOrNewConfig reads an existing environment config so re-init
// preserves credentials and foreign keys, or starts fresh when the
// file does not exist yet.
func loadOrNewConfig(path string) (*envconfig.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &envconfig.Config{}, nil
	}
	return envconfig.LoadConfig(path)
}

// absoluteIfOnDisk absolutizes a binary path that exists relative to
// the working directory, so the record stays valid after cd. Bare
// names that only resolve via the OS search path pass through.
func absoluteIfOnDisk(spec string) string {
	if filepath.IsAbs(spec) {
		return spec
	}
	if _, err := os.Stat(spec); err != nil {
		return spec
	}
	abs, err := filepath.Abs(spec)
	if err != nil {
		return spec
	}
	return abs
}

// newClientToken generates the bearer token for the daemon's local
// control API.
func newClientToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating client token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
