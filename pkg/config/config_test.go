package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_SystemPrompt(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Agent.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("unexpected default system prompt: %q", cfg.Agent.SystemPrompt)
	}
}

func TestDefaultConfig_Provider(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "groq" {
		t.Errorf("default provider should be groq, got %q", cfg.LLM.Provider)
	}
}

func TestDefaultConfig_ToolCommand(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tool.Command == "" {
		t.Error("Tool.Command should not be empty")
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig on missing file: %v", err)
	}
	if cfg.Workspace != "~/.aether" {
		t.Errorf("expected default workspace, got %q", cfg.Workspace)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"llm": {"provider": "claude", "model": "claude-sonnet-4.6"},
		"tool": {"command": "mytool", "args": ["--port", 8080]}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LLM.Provider != "claude" {
		t.Errorf("provider not overridden: %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "claude-sonnet-4.6" {
		t.Errorf("model not overridden: %q", cfg.LLM.Model)
	}
	if len(cfg.Tool.Args) != 2 || cfg.Tool.Args[0] != "--port" || cfg.Tool.Args[1] != "8080" {
		t.Errorf("mixed-type args not normalized: %v", cfg.Tool.Args)
	}
	// Untouched sections keep their defaults.
	if cfg.Agent.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("system prompt default lost: %q", cfg.Agent.SystemPrompt)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("AETHER_LLM_MODEL", "llama-3.1-8b-instant")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("env override not applied: %q", cfg.LLM.Model)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error on malformed config")
	}
}

func TestPermissionsPath_DefaultInsideWorkspace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspace = "/tmp/aether-test"

	got := cfg.PermissionsPath()
	want := filepath.Join("/tmp/aether-test", "permissions.json")
	if got != want {
		t.Errorf("PermissionsPath = %q, want %q", got, want)
	}
}

func TestPermissionsPath_ExplicitOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Security.PermissionsPath = "/etc/aether/permissions.json"

	if got := cfg.PermissionsPath(); got != "/etc/aether/permissions.json" {
		t.Errorf("PermissionsPath = %q", got)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.LLM.Model = "llama-3.3-70b-versatile"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("round trip lost model: %q", loaded.LLM.Model)
	}
}
