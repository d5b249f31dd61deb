package providers

import (
	"fmt"
	"os"
	"strings"

	"github.com/aetherlabs/aether/pkg/config"
	"github.com/aetherlabs/aether/pkg/providers/claude"
	"github.com/aetherlabs/aether/pkg/providers/groq"
)

// CreateProvider builds the completion backend named by cfg.LLM.Provider.
// API keys fall back to the conventional environment variables so a bare
// config file still works.
func CreateProvider(cfg *config.Config) (LLMProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if name == "" {
		name = "groq"
	}

	switch name {
	case "groq":
		apiKey := firstNonEmpty(cfg.LLM.APIKey, os.Getenv("GROQ_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("no API key for provider groq: set llm.api_key or GROQ_API_KEY")
		}
		return groq.NewProvider(apiKey, cfg.LLM.BaseURL), nil
	case "claude", "anthropic":
		apiKey := firstNonEmpty(cfg.LLM.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("no API key for provider claude: set llm.api_key or ANTHROPIC_API_KEY")
		}
		return claude.NewProviderWithBaseURL(apiKey, cfg.LLM.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// ResolveModel returns the configured model, or the provider default when
// the config leaves it blank.
func ResolveModel(cfg *config.Config, p LLMProvider) string {
	if m := strings.TrimSpace(cfg.LLM.Model); m != "" {
		return m
	}
	return p.GetDefaultModel()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
