// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry tracks every environment known to sbenv: a durable
// mapping from identity key (principal + "@" + canonical path) to the
// environment's record. The registry is a single JSON document;
// load/save are whole-document operations with last-writer-wins
// semantics, and saves are atomic so a crash never truncates it.
package registry

import (
	"sort"

	"github.com/openmined/sbenv/lib/identity"
)

// BuildInfo describes the installed daemon binary an environment is
// pinned to. Hash is the BLAKE3 digest of the executable content.
type BuildInfo struct {
	Hash string `json:"hash,omitempty"`
	OS   string `json:"os,omitempty"`
	Arch string `json:"arch,omitempty"`
}

// Record is the durable state of one environment.
type Record struct {
	// Path is the absolute, canonicalized environment root.
	Path string `json:"path"`

	// Email is the principal the environment belongs to.
	Email string `json:"email"`

	// Port is the allocated daemon port. 0 means unassigned.
	Port int `json:"port"`

	// Name is the display name, defaulting to the base of Path.
	Name string `json:"name,omitempty"`

	// ServerURL is the remote SyftBox server.
	ServerURL string `json:"server_url,omitempty"`

	// DevMode marks a development-mode environment.
	DevMode bool `json:"dev_mode,omitempty"`

	// BinaryPath, when set, pins a concrete executable and takes
	// precedence over BinaryVersion.
	BinaryPath string `json:"binary_path,omitempty"`

	// BinaryVersion pins a release version resolved through the
	// binary cache.
	BinaryVersion string `json:"binary_version,omitempty"`

	// BinaryBuild carries metadata detected at install time.
	BinaryBuild *BuildInfo `json:"binary_build,omitempty"`
}

// HasBinary reports whether the record pins any binary at all.
func (r *Record) HasBinary() bool {
	return r.BinaryPath != "" || r.BinaryVersion != ""
}

// Registry is the identity-key → record document.
type Registry map[string]*Record

// Register computes the identity key for incoming, merges
// binary-related fields from any pre-existing record, and upserts.
// Returns the key. The incoming record's Path is canonicalized here;
// callers pass whatever path the user supplied.
//
// Merge rules: the incoming record wins for every field it sets; a
// field the incoming record leaves empty keeps the existing value.
// In particular a recorded binary path is never dropped because the
// environment's connection settings changed, and an allocated port is
// never forgotten by a re-registration that did not assign one.
func (reg Registry) Register(incoming Record) string {
	incoming.Path = identity.Canonicalize(incoming.Path)
	key := identity.Key(incoming.Email, incoming.Path)

	if existing, ok := reg[key]; ok {
		if incoming.Port == 0 {
			incoming.Port = existing.Port
		}
		if incoming.Name == "" {
			incoming.Name = existing.Name
		}
		if incoming.ServerURL == "" {
			incoming.ServerURL = existing.ServerURL
		}
		if incoming.BinaryPath == "" {
			incoming.BinaryPath = existing.BinaryPath
		}
		if incoming.BinaryVersion == "" {
			incoming.BinaryVersion = existing.BinaryVersion
		}
		if incoming.BinaryBuild == nil {
			incoming.BinaryBuild = existing.BinaryBuild
		}
	}

	reg[key] = &incoming
	return key
}

// Unregister removes every record whose path matches the given
// environment root (there may be several when multiple principals
// share a directory). Returns the number of records removed.
func (reg Registry) Unregister(path string) int {
	canonical := identity.Canonicalize(path)
	removed := 0
	for key, record := range reg {
		if record.Path == canonical {
			delete(reg, key)
			removed++
		}
	}
	return removed
}

// Lookup returns the record for a principal and environment root.
func (reg Registry) Lookup(principal, path string) (*Record, bool) {
	record, ok := reg[identity.Key(principal, path)]
	return record, ok
}

// FindByPath returns the record for an environment root regardless of
// principal. When several principals share the root, the one with the
// lexically smallest key wins, keeping the result deterministic.
func (reg Registry) FindByPath(path string) (*Record, bool) {
	canonical := identity.Canonicalize(path)
	for _, key := range reg.SortedKeys() {
		if reg[key].Path == canonical {
			return reg[key], true
		}
	}
	return nil, false
}

// UsedPorts returns the set of ports currently assigned to live
// records, for the allocator. Unassigned records (port 0) are not
// included.
func (reg Registry) UsedPorts() map[int]bool {
	used := make(map[int]bool, len(reg))
	for _, record := range reg {
		if record.Port != 0 {
			used[record.Port] = true
		}
	}
	return used
}

// SortedKeys returns the identity keys in lexical order, for stable
// listings.
func (reg Registry) SortedKeys() []string {
	keys := make([]string, 0, len(reg))
	for key := range reg {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
