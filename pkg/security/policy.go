package security

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	PolicyAllow = "allow"
	PolicyDeny  = "deny"
)

// Policy is the tool permission table consulted before every tool call.
// Loaded once at startup and immutable afterwards, so it is shared across
// goroutines without locking.
type Policy struct {
	Version      string            `json:"version"`
	GlobalPolicy string            `json:"global_policy"`
	Rules        map[string]string `json:"rules"`
}

// Allows reports whether the policy permits calling the named tool.
// A per-tool rule wins; otherwise the global default applies. Deny-by-default
// is expressed as global_policy "deny" with the tool absent from rules.
func (p *Policy) Allows(name string) bool {
	if rule, ok := p.Rules[name]; ok {
		return rule == PolicyAllow
	}
	return p.GlobalPolicy == PolicyAllow
}

// Load reads and validates the policy document at path. Callers treat any
// error as fatal at startup: a policy that cannot be understood must not be
// half-applied.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permissions file: %w", err)
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse permissions file %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid permissions file %s: %w", path, err)
	}
	if p.Rules == nil {
		p.Rules = map[string]string{}
	}
	return &p, nil
}

func (p *Policy) validate() error {
	switch p.GlobalPolicy {
	case PolicyAllow, PolicyDeny:
	default:
		return fmt.Errorf("global_policy must be %q or %q, got %q", PolicyAllow, PolicyDeny, p.GlobalPolicy)
	}
	for name, rule := range p.Rules {
		switch rule {
		case PolicyAllow, PolicyDeny:
		default:
			return fmt.Errorf("rule for tool %q must be %q or %q, got %q", name, PolicyAllow, PolicyDeny, rule)
		}
	}
	return nil
}

// Default returns the allow-everything policy written on first run.
func Default() *Policy {
	return &Policy{
		Version:      "1.0",
		GlobalPolicy: PolicyAllow,
		Rules:        map[string]string{},
	}
}

// Save writes the policy document, creating parent directories as needed.
func Save(path string, p *Policy) error {
	if err := p.validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
