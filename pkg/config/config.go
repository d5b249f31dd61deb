package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so tool args can contain both "8080" and 8080.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type LLMConfig struct {
	Provider string `json:"provider" env:"AETHER_LLM_PROVIDER"` // groq | claude
	Model    string `json:"model" env:"AETHER_LLM_MODEL"`
	APIKey   string `json:"api_key" env:"AETHER_LLM_API_KEY"`
	BaseURL  string `json:"base_url" env:"AETHER_LLM_BASE_URL"`
}

type AgentConfig struct {
	SystemPrompt string  `json:"system_prompt" env:"AETHER_AGENT_SYSTEM_PROMPT"`
	MaxTokens    int     `json:"max_tokens" env:"AETHER_AGENT_MAX_TOKENS"`
	Temperature  float64 `json:"temperature" env:"AETHER_AGENT_TEMPERATURE"`
}

// ToolProcessConfig describes the one worker process the agent spawns.
type ToolProcessConfig struct {
	Command string              `json:"command" env:"AETHER_TOOL_COMMAND"`
	Args    FlexibleStringSlice `json:"args,omitempty"`
	Env     map[string]string   `json:"env,omitempty"`
}

type SecurityConfig struct {
	PermissionsPath string `json:"permissions_path" env:"AETHER_SECURITY_PERMISSIONS_PATH"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"AETHER_LOG_LEVEL"`
	File  string `json:"file" env:"AETHER_LOG_FILE"`
}

type RateLimitsConfig struct {
	MaxRequestsPerMinute int `json:"max_requests_per_minute" env:"AETHER_RATE_LIMITS_MAX_REQUESTS_PER_MINUTE"` // 0 = unlimited
}

type Config struct {
	Workspace  string           `json:"workspace" env:"AETHER_WORKSPACE"`
	LLM        LLMConfig        `json:"llm"`
	Agent      AgentConfig      `json:"agent"`
	Tool       ToolProcessConfig `json:"tool"`
	Security   SecurityConfig   `json:"security"`
	Logging    LoggingConfig    `json:"logging"`
	RateLimits RateLimitsConfig `json:"rate_limits"`
}

const DefaultSystemPrompt = "You are AETHER. Be concise. Use tools wisely."

func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.aether",
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "",
			BaseURL:  "",
		},
		Agent: AgentConfig{
			SystemPrompt: DefaultSystemPrompt,
			MaxTokens:    4096,
			Temperature:  0,
		},
		Tool: ToolProcessConfig{
			Command: "aether-mocktool",
			Args:    FlexibleStringSlice{},
		},
		Security: SecurityConfig{
			PermissionsPath: "",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		RateLimits: RateLimitsConfig{
			MaxRequestsPerMinute: 0,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) WorkspacePath() string {
	return expandHome(c.Workspace)
}

// PermissionsPath resolves the security policy location: the configured path
// if set, else permissions.json inside the workspace.
func (c *Config) PermissionsPath() string {
	if c.Security.PermissionsPath != "" {
		return expandHome(c.Security.PermissionsPath)
	}
	return filepath.Join(c.WorkspacePath(), "permissions.json")
}

// SessionsPath is where conversation transcripts are persisted.
func (c *Config) SessionsPath() string {
	return filepath.Join(c.WorkspacePath(), "sessions")
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
