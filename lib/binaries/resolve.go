// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Resolution is the outcome of resolving a binary spec.
type Resolution struct {
	// Path is the executable to run. For a spec that could not be
	// resolved anywhere this is the bare name, deferred to spawn time.
	Path string

	// Version is the detected or requested version, empty when
	// unknown (explicit paths whose probe failed, unresolved names).
	Version string

	// Build holds the binary's self-reported build details when a
	// version probe succeeded.
	Build *BuildDetails

	// Hash is the BLAKE3 content hash of a freshly installed
	// executable. Empty for cache hits and path specs.
	Hash string
}

// ResolverConfig configures a Resolver. BinariesDir and Client are
// required; the rest defaults to production implementations.
type ResolverConfig struct {
	// BinariesDir is the version cache root, one subdirectory per
	// installed version.
	BinariesDir string

	// Client fetches release metadata and downloads.
	Client ReleaseClient

	// Extractor unpacks downloaded archives. Defaults to the real
	// archive extractor.
	Extractor Extractor

	// Prober asks installed executables for their version. Defaults
	// to the real exec-based prober.
	Prober VersionProber

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// OS and Arch select release assets. Default to the running
	// platform.
	OS   string
	Arch string

	// LookPath resolves bare names against the OS search path.
	// Defaults to exec.LookPath.
	LookPath func(name string) (string, error)
}

// Resolver turns binary specs into runnable executables, installing
// into the version cache when needed.
type Resolver struct {
	binariesDir string
	client      ReleaseClient
	extractor   Extractor
	prober      VersionProber
	logger      *slog.Logger
	os          string
	arch        string
	lookPath    func(name string) (string, error)
}

// NewResolver creates a resolver from the configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	if config.BinariesDir == "" {
		return nil, fmt.Errorf("resolver: binaries directory is required")
	}
	if config.Client == nil {
		return nil, fmt.Errorf("resolver: release client is required")
	}
	extractor := config.Extractor
	if extractor == nil {
		extractor = NewExtractor()
	}
	prober := config.Prober
	if prober == nil {
		prober = NewProber(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	goos := config.OS
	if goos == "" {
		goos = runtime.GOOS
	}
	goarch := config.Arch
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	lookPath := config.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &Resolver{
		binariesDir: config.BinariesDir,
		client:      config.Client,
		extractor:   extractor,
		prober:      prober,
		logger:      logger,
		os:          goos,
		arch:        goarch,
		lookPath:    lookPath,
	}, nil
}

// Resolve turns a binary spec into an executable path and version.
// Version specs hit the cache or install; anything else is treated as
// a path or executable name and never fails eagerly.
func (resolver *Resolver) Resolve(ctx context.Context, spec string) (Resolution, error) {
	if spec == "" {
		return Resolution{}, fmt.Errorf("empty binary spec")
	}
	if IsVersion(spec) {
		if path, ok := LookupCache(resolver.binariesDir, spec); ok {
			resolver.logger.Debug("binary cache hit", "version", NormalizeVersion(spec), "path", path)
			return Resolution{Path: path, Version: NormalizeVersion(spec)}, nil
		}
		return resolver.Install(ctx, spec)
	}
	return resolver.resolvePathOrName(ctx, spec), nil
}

// ResolveForEnvironment picks the executable for an environment that
// was registered without an explicit spec. Precedence: the recorded
// path, the recorded pinned version (re-validated through the cache),
// the global default spec, the OS search path, and finally the bare
// conventional name, which defers failure to spawn time.
func (resolver *Resolver) ResolveForEnvironment(ctx context.Context, recordedPath, recordedVersion, defaultSpec string) (Resolution, error) {
	if recordedPath != "" {
		return resolver.probed(ctx, recordedPath), nil
	}
	if recordedVersion != "" {
		return resolver.Resolve(ctx, recordedVersion)
	}
	if defaultSpec != "" {
		return resolver.Resolve(ctx, defaultSpec)
	}
	if found, err := resolver.lookPath(ExecutableName); err == nil {
		return resolver.probed(ctx, found), nil
	}
	return Resolution{Path: ExecutableName}, nil
}

// Install downloads and caches the given version unconditionally,
// then probes what actually got installed. The cache directory name
// is the requested version; the reported version wins when the two
// disagree, since the directory name is only a hint.
func (resolver *Resolver) Install(ctx context.Context, version string) (Resolution, error) {
	normalized := NormalizeVersion(version)
	if err := os.MkdirAll(resolver.binariesDir, 0755); err != nil {
		return Resolution{}, fmt.Errorf("creating binary cache %s: %w", resolver.binariesDir, err)
	}
	scratchDir, err := os.MkdirTemp(resolver.binariesDir, "install-")
	if err != nil {
		return Resolution{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	downloaded, err := resolver.download(ctx, scratchDir, version)
	if err != nil {
		return Resolution{}, err
	}

	executable := downloaded
	lower := strings.ToLower(downloaded)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") || strings.HasSuffix(lower, ".zip") {
		extractDir := filepath.Join(scratchDir, "extracted")
		if err := os.MkdirAll(extractDir, 0755); err != nil {
			return Resolution{}, fmt.Errorf("creating extraction directory: %w", err)
		}
		if err := resolver.extractor.Extract(downloaded, extractDir); err != nil {
			return Resolution{}, fmt.Errorf("extracting %s: %w", filepath.Base(downloaded), err)
		}
		executable, err = findExecutable(extractDir, ExecutableName)
		if err != nil {
			return Resolution{}, fmt.Errorf("archive %s: %w", filepath.Base(downloaded), err)
		}
	}

	versionDir := filepath.Join(resolver.binariesDir, normalized)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return Resolution{}, fmt.Errorf("creating version directory %s: %w", versionDir, err)
	}
	installed := filepath.Join(versionDir, ExecutableName)
	if err := os.Rename(executable, installed); err != nil {
		return Resolution{}, fmt.Errorf("moving executable into %s: %w", versionDir, err)
	}
	if err := os.Chmod(installed, 0755); err != nil {
		return Resolution{}, fmt.Errorf("marking %s executable: %w", installed, err)
	}

	resolution := Resolution{Path: installed, Version: normalized}
	if details, err := resolver.prober.Probe(ctx, installed); err != nil {
		resolver.logger.Warn("version probe failed, trusting requested version",
			"binary", installed,
			"version", normalized,
			"error", err,
		)
	} else {
		resolution.Build = &details
		if details.Version != "" {
			resolution.Version = details.Version
			if details.Version != normalized {
				resolver.logger.Warn("installed binary reports a different version",
					"requested", normalized,
					"reported", details.Version,
				)
			}
		}
	}
	if hash, err := ContentHash(installed); err != nil {
		resolver.logger.Warn("hashing installed binary failed", "binary", installed, "error", err)
	} else {
		resolution.Hash = hash
	}
	resolver.logger.Info("installed binary",
		"version", resolution.Version,
		"path", installed,
	)
	return resolution, nil
}

// tagCandidates returns the release tags to try for a version, the
// conventional v-prefixed form first.
func tagCandidates(version string) []string {
	bare := NormalizeVersion(version)
	return []string{"v" + bare, bare}
}

// download fetches the best release file for the platform into
// scratchDir, trying the asset metadata first and falling back to
// conventional filenames. Every failed attempt is retained so the
// final error names what was tried.
func (resolver *Resolver) download(ctx context.Context, scratchDir, version string) (string, error) {
	var attempts []error
	for _, tag := range tagCandidates(version) {
		release, err := resolver.client.Release(ctx, tag)
		if err != nil {
			attempts = append(attempts, err)
		} else if asset, ok := findAsset(release, resolver.os, resolver.arch); ok {
			// Base the local name on the asset's, stripped of any
			// path components a hostile release could smuggle in.
			destination := filepath.Join(scratchDir, filepath.Base(asset.Name))
			if err := resolver.client.Download(ctx, asset.DownloadURL, destination); err != nil {
				attempts = append(attempts, err)
			} else {
				return destination, nil
			}
		} else {
			attempts = append(attempts, fmt.Errorf("release %s: no asset matches %s/%s",
				tag, resolver.os, resolver.arch))
		}

		for _, filename := range candidateFilenames(version, resolver.os, resolver.arch) {
			destination := filepath.Join(scratchDir, filename)
			if err := resolver.client.Download(ctx, resolver.client.AssetURL(tag, filename), destination); err != nil {
				attempts = append(attempts, err)
				continue
			}
			return destination, nil
		}
	}
	return "", fmt.Errorf("no release of %s %s for %s/%s could be downloaded: %w",
		ExecutableName, NormalizeVersion(version), resolver.os, resolver.arch,
		errors.Join(attempts...))
}

// resolvePathOrName handles non-version specs. Absolute paths and
// existing files are used directly; bare names go through the OS
// search path; anything still unresolved is passed through so failure
// surfaces at spawn time instead of here.
func (resolver *Resolver) resolvePathOrName(ctx context.Context, spec string) Resolution {
	candidate := spec
	if strings.HasPrefix(candidate, "~"+string(os.PathSeparator)) {
		if home, err := os.UserHomeDir(); err == nil {
			candidate = filepath.Join(home, candidate[2:])
		}
	}
	if filepath.IsAbs(candidate) {
		return resolver.probed(ctx, candidate)
	}
	if _, err := os.Stat(candidate); err == nil {
		if absolute, err := filepath.Abs(candidate); err == nil {
			candidate = absolute
		}
		return resolver.probed(ctx, candidate)
	}
	if found, err := resolver.lookPath(spec); err == nil {
		return resolver.probed(ctx, found)
	}
	resolver.logger.Debug("binary spec unresolved, deferring to spawn time", "spec", spec)
	return Resolution{Path: spec}
}

// probed wraps a concrete executable path in a Resolution, learning
// its version best-effort. A probe failure leaves the version empty
// rather than failing resolution.
func (resolver *Resolver) probed(ctx context.Context, path string) Resolution {
	resolution := Resolution{Path: path}
	if _, err := os.Stat(path); err != nil {
		return resolution
	}
	details, err := resolver.prober.Probe(ctx, path)
	if err != nil {
		resolver.logger.Debug("version probe failed", "binary", path, "error", err)
		return resolution
	}
	resolution.Build = &details
	resolution.Version = details.Version
	return resolution
}
