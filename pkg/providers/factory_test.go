package providers

import (
	"strings"
	"testing"

	"github.com/aetherlabs/aether/pkg/config"
)

func TestCreateProvider_UnknownName(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "palmtree"

	_, err := CreateProvider(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("err = %v, want unknown provider", err)
	}
}

func TestCreateProvider_GroqMissingKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = ""

	_, err := CreateProvider(cfg)
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("err = %v, want missing key error", err)
	}
}

func TestCreateProvider_GroqEnvFallback(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = ""

	p, err := CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	if p.GetDefaultModel() != "llama-3.3-70b-versatile" {
		t.Errorf("default model = %q", p.GetDefaultModel())
	}
}

func TestCreateProvider_ClaudeFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "claude"
	cfg.LLM.APIKey = "sk-ant-test"

	p, err := CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	if !strings.HasPrefix(p.GetDefaultModel(), "claude-") {
		t.Errorf("default model = %q", p.GetDefaultModel())
	}
}

func TestCreateProvider_EmptyNameDefaultsToGroq(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = ""
	cfg.LLM.APIKey = "gsk_test"

	p, err := CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	if p.GetDefaultModel() != "llama-3.3-70b-versatile" {
		t.Errorf("default model = %q", p.GetDefaultModel())
	}
}

func TestResolveModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = "gsk_test"

	p, err := CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}

	cfg.LLM.Model = ""
	if got := ResolveModel(cfg, p); got != p.GetDefaultModel() {
		t.Errorf("ResolveModel with blank config = %q", got)
	}

	cfg.LLM.Model = "llama-3.1-8b-instant"
	if got := ResolveModel(cfg, p); got != "llama-3.1-8b-instant" {
		t.Errorf("ResolveModel with explicit model = %q", got)
	}
}
