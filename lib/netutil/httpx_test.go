// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		TagName string `json:"tag_name"`
	}
	body := strings.NewReader(`{"tag_name": "v0.5.1"}`)

	if err := DecodeResponse(body, &decoded); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if decoded.TagName != "v0.5.1" {
		t.Errorf("TagName = %q, want %q", decoded.TagName, "v0.5.1")
	}
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	var decoded map[string]any
	if err := DecodeResponse(strings.NewReader("{nope"), &decoded); err == nil {
		t.Fatal("DecodeResponse should fail on invalid JSON")
	}
}

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("ReadResponse = %q, want %q", data, "hello")
	}
}

func TestErrorBodyNeverFails(t *testing.T) {
	if got := ErrorBody(strings.NewReader("404 not found")); got != "404 not found" {
		t.Errorf("ErrorBody = %q, want %q", got, "404 not found")
	}
	if got := ErrorBody(strings.NewReader("")); got != "" {
		t.Errorf("ErrorBody on empty reader = %q, want empty", got)
	}
}
