// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsBasicTypes(t *testing.T) {
	type params struct {
		Email   string        `flag:"email" desc:"identity for the environment"`
		Force   bool          `flag:"force" desc:"replace a running daemon"`
		Port    int           `flag:"port" desc:"local daemon port"`
		Timeout time.Duration `flag:"timeout" desc:"probe timeout"`
		Tags    []string      `flag:"tag" desc:"labels"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--email", "alice@example.com",
		"--force",
		"--port", "8742",
		"--timeout", "5s",
		"--tag", "dev", "--tag", "staging",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Email != "alice@example.com" {
		t.Errorf("Email = %q", p.Email)
	}
	if !p.Force {
		t.Error("Force not set")
	}
	if p.Port != 8742 {
		t.Errorf("Port = %d", p.Port)
	}
	if p.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", p.Timeout)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "dev" || p.Tags[1] != "staging" {
		t.Errorf("Tags = %v", p.Tags)
	}
}

func TestBindFlagsDefaults(t *testing.T) {
	type params struct {
		Server  string        `flag:"server" default:"https://syftbox.net"`
		Lines   int           `flag:"lines" default:"50"`
		Timeout time.Duration `flag:"timeout" default:"3s"`
		Yes     bool          `flag:"yes" default:"false"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Server != "https://syftbox.net" {
		t.Errorf("Server = %q", p.Server)
	}
	if p.Lines != 50 {
		t.Errorf("Lines = %d", p.Lines)
	}
	if p.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", p.Timeout)
	}
	if p.Yes {
		t.Error("Yes should default to false")
	}
}

func TestBindFlagsDefaultsOverriddenByArgs(t *testing.T) {
	type params struct {
		Server string `flag:"server" default:"https://syftbox.net"`
		Lines  int    `flag:"lines" default:"50"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--server", "https://dev.syftbox.net", "--lines", "200"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Server != "https://dev.syftbox.net" {
		t.Errorf("Server = %q", p.Server)
	}
	if p.Lines != 200 {
		t.Errorf("Lines = %d", p.Lines)
	}
}

func TestBindFlagsShorthand(t *testing.T) {
	type params struct {
		Email string `flag:"email,e" desc:"identity"`
		Name  string `flag:"name,n" desc:"display name"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"-e", "bob@example.com", "-n", "staging"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Email != "bob@example.com" {
		t.Errorf("Email = %q", p.Email)
	}
	if p.Name != "staging" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestBindFlagsSkipsUntaggedFields(t *testing.T) {
	type params struct {
		Email    string `flag:"email"`
		internal string
		Derived  string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	count := 0
	flagSet.VisitAll(func(f *pflag.Flag) { count++ })
	if count != 1 {
		t.Errorf("bound %d flags, want 1", count)
	}
	_ = p.internal
	_ = p.Derived
}

func TestBindFlagsEmbeddedStruct(t *testing.T) {
	type commonParams struct {
		Verbose bool `flag:"verbose" desc:"verbose output"`
	}
	type params struct {
		commonParams
		Email string `flag:"email"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--verbose", "--email", "a@b.c"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !p.Verbose {
		t.Error("embedded Verbose not bound")
	}
	if p.Email != "a@b.c" {
		t.Errorf("Email = %q", p.Email)
	}
}

func TestBindFlagsJSONOutputEmbedding(t *testing.T) {
	type params struct {
		JSONOutput
		Path string `flag:"path"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--json"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !p.OutputJSON {
		t.Error("--json flag not bound through embedded JSONOutput")
	}
}

type binderParams struct {
	bound bool
}

func (b *binderParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&b.bound, "custom", false, "bound by AddFlags")
}

func TestBindFlagsFlagBinder(t *testing.T) {
	type params struct {
		Custom binderParams
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--custom"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !p.Custom.bound {
		t.Error("FlagBinder.AddFlags not invoked for struct field")
	}
}

func TestBindFlagsRejectsNonPointer(t *testing.T) {
	type params struct {
		Email string `flag:"email"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(params{}, flagSet); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}
	if err := BindFlags(nil, flagSet); err == nil {
		t.Error("BindFlags accepted nil")
	}
}

func TestBindFlagsUnsupportedType(t *testing.T) {
	type params struct {
		Ratio complex128 `flag:"ratio"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := BindFlags(&p, flagSet)
	if err == nil {
		t.Fatal("BindFlags accepted a complex128 field")
	}
	if !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("error = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "ratio") {
		t.Errorf("error = %q, should name the flag", err.Error())
	}
}

func TestBindFlagsBadDefault(t *testing.T) {
	type params struct {
		Port int `flag:"port" default:"not-a-number"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err == nil {
		t.Error("BindFlags accepted a malformed int default")
	}
}

func TestFlagsFromParamsPanicsOnBadParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic on non-pointer params")
		}
	}()
	FlagsFromParams("test", struct{}{})
}
