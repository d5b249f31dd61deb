package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseGlobalFlags_ConfigPair(t *testing.T) {
	args := []string{"aether", "--config", "/tmp/config.json", "agent", "--debug"}

	filtered, override, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags() error: %v", err)
	}
	if override != "/tmp/config.json" {
		t.Errorf("override = %q, want %q", override, "/tmp/config.json")
	}

	want := []string{"aether", "agent", "--debug"}
	if !reflect.DeepEqual(filtered, want) {
		t.Errorf("filtered args = %#v, want %#v", filtered, want)
	}
}

func TestParseGlobalFlags_ConfigEqualsSyntax(t *testing.T) {
	args := []string{"aether", "--config=/tmp/config.json", "tools"}

	filtered, override, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags() error: %v", err)
	}
	if override != "/tmp/config.json" {
		t.Errorf("override = %q, want %q", override, "/tmp/config.json")
	}

	want := []string{"aether", "tools"}
	if !reflect.DeepEqual(filtered, want) {
		t.Errorf("filtered args = %#v, want %#v", filtered, want)
	}
}

func TestParseGlobalFlags_MissingValue(t *testing.T) {
	tests := [][]string{
		{"aether", "--config"},
		{"aether", "--config", ""},
		{"aether", "--config= "},
	}

	for _, tt := range tests {
		_, _, err := parseGlobalFlags(tt)
		if err == nil {
			t.Errorf("parseGlobalFlags(%#v) expected error, got nil", tt)
		}
	}
}

func TestParseGlobalFlags_LeavesSubcommandFlagsAlone(t *testing.T) {
	args := []string{"aether", "agent", "-m", "hello", "-s", "cli:alt"}

	filtered, override, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags() error: %v", err)
	}
	if override != "" {
		t.Errorf("override = %q, want empty", override)
	}
	if !reflect.DeepEqual(filtered, args) {
		t.Errorf("filtered args = %#v, want %#v", filtered, args)
	}
}

func TestFormatVersion(t *testing.T) {
	origVersion, origCommit := version, gitCommit
	defer func() { version, gitCommit = origVersion, origCommit }()

	version = "1.2.3"
	gitCommit = ""
	if got := formatVersion(); got != "1.2.3" {
		t.Errorf("formatVersion() = %q, want %q", got, "1.2.3")
	}

	gitCommit = "abc1234"
	if got := formatVersion(); got != "1.2.3 (git: abc1234)" {
		t.Errorf("formatVersion() = %q", got)
	}
}

func TestNewToolsCmd_Subcommands(t *testing.T) {
	cmd := newToolsCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"list", "describe"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("tools command is missing subcommand %q (have %v)", want, names)
		}
	}

	describe, _, err := cmd.Find([]string{"describe"})
	if err != nil {
		t.Fatalf("Find(describe) error: %v", err)
	}
	if err := describe.Args(describe, []string{}); err == nil {
		t.Error("describe should require a tool name")
	}
	if !strings.Contains(describe.Use, "<tool>") {
		t.Errorf("describe usage should name the argument, got %q", describe.Use)
	}
}
