// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities shared by the release
// client and the daemon health prober.
//
// Response helpers (ReadResponse, DecodeResponse, ErrorBody) bound all
// body reads at MaxResponseSize to prevent unbounded memory allocation
// from a misbehaving server. These are for JSON API responses (release
// metadata, status endpoints), not for asset downloads, which stream
// to disk with io.Copy.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on API response body reads: 32 MB.
// Release metadata for a tag with many assets runs to a few hundred
// kilobytes; the limit is generous so it never interferes with normal
// operation.
const MaxResponseSize int64 = 32 << 20

// ReadResponse reads an API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads an API response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v. Replaces the common io.ReadAll +
// json.Unmarshal pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}

// Drain consumes and discards a response body so the underlying
// connection can be reused. Reads are bounded; errors are ignored.
// Callers still close the body themselves.
func Drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
}
