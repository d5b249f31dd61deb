package infra

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveHomeDir returns the effective home directory for AETHER.
// It checks the AETHER_HOME environment variable first,
// falls back to ~/.aether if not set or empty.
func ResolveHomeDir() string {
	if envHome := strings.TrimSpace(os.Getenv("AETHER_HOME")); envHome != "" {
		return envHome
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		// Extreme fallback
		return filepath.Join(os.TempDir(), ".aether")
	}
	return filepath.Join(home, ".aether")
}

// ConfigPath returns the config file location inside the home directory,
// honoring an explicit AETHER_CONFIG override.
func ConfigPath() string {
	if envPath := strings.TrimSpace(os.Getenv("AETHER_CONFIG")); envPath != "" {
		return envPath
	}
	return filepath.Join(ResolveHomeDir(), "config.json")
}
