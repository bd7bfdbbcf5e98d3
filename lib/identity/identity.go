// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity derives the registry identity key for an
// environment and validates the email-like principal it is built from.
//
// The key is principal + "@" + canonicalized absolute path, so the
// same directory name never collides across unrelated users or
// relocated checkouts:
//
//	Key("alice@example.com", "/home/alice/proj") → "alice@example.com@/home/alice/proj"
package identity

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPrincipalLength bounds principal length. Keys are used as JSON
// object keys and appear in log lines; 254 matches the SMTP limit for
// a full address.
const MaxPrincipalLength = 254

// ValidatePrincipal checks that an email-like principal is usable as
// an identity component. This is deliberately looser than full
// RFC 5322 parsing: the daemon's server performs real address
// verification during login, and over-strict local rules would reject
// addresses the server accepts.
//
// Rules enforced:
//   - Non-empty, at most MaxPrincipalLength characters
//   - Exactly one "@" with non-empty local part and domain
//   - Domain contains at least one "."
//   - No whitespace or control characters
func ValidatePrincipal(principal string) error {
	if principal == "" {
		return fmt.Errorf("principal is empty")
	}
	if len(principal) > MaxPrincipalLength {
		return fmt.Errorf("principal is %d characters, maximum is %d", len(principal), MaxPrincipalLength)
	}
	for i := 0; i < len(principal); i++ {
		c := principal[i]
		if c <= ' ' || c == 0x7f {
			return fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}

	local, domain, found := strings.Cut(principal, "@")
	if !found {
		return fmt.Errorf("principal %q has no @", principal)
	}
	if local == "" {
		return fmt.Errorf("principal %q has an empty local part", principal)
	}
	if domain == "" {
		return fmt.Errorf("principal %q has an empty domain", principal)
	}
	if strings.Contains(domain, "@") {
		return fmt.Errorf("principal %q has more than one @", principal)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("principal domain %q has no dot", domain)
	}
	return nil
}

// Canonicalize resolves path to an absolute path with symlinks and
// relative segments resolved. When the path does not exist (the
// environment directory may not have been created yet), it falls back
// to the lexically-cleaned absolute path so the result is still
// deterministic for the same input.
func Canonicalize(path string) string {
	absolute, err := filepath.Abs(path)
	if err != nil {
		// Abs fails only when the working directory is gone; the
		// literal path is the only deterministic value left.
		return filepath.Clean(path)
	}
	resolved, err := filepath.EvalSymlinks(absolute)
	if err != nil {
		return absolute
	}
	return resolved
}

// Key returns the registry identity key for a principal and an
// environment root path. The principal is not validated here; call
// ValidatePrincipal first if the input is untrusted.
func Key(principal, path string) string {
	return principal + "@" + Canonicalize(path)
}
