// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	read, write, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = write
	defer func() { os.Stdout = original }()

	fn()

	write.Close()
	data, err := io.ReadAll(read)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	return string(data)
}

func TestEmitJSONDisabled(t *testing.T) {
	output := JSONOutput{}

	done, err := output.EmitJSON(map[string]string{"name": "alpha"})
	if err != nil {
		t.Fatalf("EmitJSON: %v", err)
	}
	if done {
		t.Error("EmitJSON reported done without --json set")
	}
}

func TestEmitJSONWritesIndented(t *testing.T) {
	output := JSONOutput{OutputJSON: true}

	captured := captureStdout(t, func() {
		done, err := output.EmitJSON(map[string]string{"name": "alpha"})
		if err != nil {
			t.Errorf("EmitJSON: %v", err)
		}
		if !done {
			t.Error("EmitJSON should report done with --json set")
		}
	})

	if !strings.Contains(captured, "\"name\": \"alpha\"") {
		t.Errorf("output = %q, want indented JSON", captured)
	}
}

func TestEmitJSONNormalizesNilSlice(t *testing.T) {
	output := JSONOutput{OutputJSON: true}

	var entries []string
	captured := captureStdout(t, func() {
		if _, err := output.EmitJSON(entries); err != nil {
			t.Errorf("EmitJSON: %v", err)
		}
	})

	if strings.TrimSpace(captured) != "[]" {
		t.Errorf("output = %q, want [] for nil slice", captured)
	}
}

func TestNormalizeNilSlice(t *testing.T) {
	var nilSlice []int
	normalized := normalizeNilSlice(nilSlice)
	asSlice, ok := normalized.([]int)
	if !ok {
		t.Fatalf("normalized type = %T", normalized)
	}
	if asSlice == nil {
		t.Error("nil slice not replaced")
	}
	if len(asSlice) != 0 {
		t.Errorf("len = %d", len(asSlice))
	}

	populated := []int{1, 2}
	if got := normalizeNilSlice(populated); len(got.([]int)) != 2 {
		t.Errorf("populated slice altered: %v", got)
	}

	notSlice := "plain string"
	if got := normalizeNilSlice(notSlice); got != notSlice {
		t.Errorf("non-slice altered: %v", got)
	}
}
