package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aetherlabs/aether/pkg/providers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"cli:direct", "cli_direct"},
		{"cli:3f2a", "cli_3f2a"},
		{"no-colons-here", "no-colons-here"},
		{"multiple:colons:here", "multiple_colons_here"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSave_WithColonInKey(t *testing.T) {
	tmpDir := t.TempDir()
	m := NewManager(tmpDir)

	key := "cli:direct"
	m.GetOrCreate(key)
	m.AddMessage(key, "user", "hello")

	if err := m.Save(key); err != nil {
		t.Fatalf("Save(%q) failed: %v", key, err)
	}

	expectedFile := filepath.Join(tmpDir, "cli_direct.json")
	if _, err := os.Stat(expectedFile); os.IsNotExist(err) {
		t.Fatalf("expected session file %s to exist", expectedFile)
	}
}

func TestSave_RejectsTraversalKeys(t *testing.T) {
	tmpDir := t.TempDir()
	m := NewManager(tmpDir)

	for _, key := range []string{"../evil", "a/b", `a\b`, ".."} {
		m.GetOrCreate(key)
		m.AddMessage(key, "user", "x")
		if err := m.Save(key); err == nil {
			t.Errorf("Save(%q) should refuse to write outside storage", key)
		}
	}
}

func TestHistoryRoundTripAcrossManagers(t *testing.T) {
	tmpDir := t.TempDir()
	key := "cli:roundtrip"

	m := NewManager(tmpDir)
	m.AddMessage(key, "user", "what is 2+2")
	m.AddFullMessage(key, providers.Message{
		Role: "assistant",
		ToolCalls: []providers.ToolCall{
			{ID: "call_1", Type: "function", Name: "calculate_sum",
				Function: &providers.FunctionCall{Name: "calculate_sum", Arguments: `{"a":2,"b":2}`}},
		},
	})
	m.AddFullMessage(key, providers.Message{Role: "tool", Content: "The sum is 4", ToolCallID: "call_1"})
	m.AddMessage(key, "assistant", "The answer is 4.")
	if err := m.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh manager over the same directory sees the full flow.
	m2 := NewManager(tmpDir)
	history := m2.GetHistory(key)
	if len(history) != 4 {
		t.Fatalf("history length = %d, want 4", len(history))
	}
	if history[1].Role != "assistant" || len(history[1].ToolCalls) != 1 {
		t.Errorf("tool call message not restored: %+v", history[1])
	}
	if history[2].Role != "tool" || history[2].ToolCallID != "call_1" {
		t.Errorf("tool result message not restored: %+v", history[2])
	}
}

func TestGetHistoryReturnsCopy(t *testing.T) {
	m := NewManager("")
	key := "cli:copy"
	m.AddMessage(key, "user", "original")

	history := m.GetHistory(key)
	history[0].Content = "mutated"

	if got := m.GetHistory(key)[0].Content; got != "original" {
		t.Errorf("stored message mutated via returned slice: %q", got)
	}
}

func TestGetHistoryUnknownKey(t *testing.T) {
	m := NewManager("")
	if got := m.GetHistory("cli:nope"); len(got) != 0 {
		t.Errorf("unknown key history = %v", got)
	}
}

func TestNoStorageIsInMemoryOnly(t *testing.T) {
	m := NewManager("")
	key := "cli:mem"
	m.AddMessage(key, "user", "hi")
	if err := m.Save(key); err != nil {
		t.Fatalf("Save without storage should be a no-op, got %v", err)
	}
}

func TestLoadSkipsCorruptFiles(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "nokey.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(tmpDir)
	if len(m.sessions) != 0 {
		t.Errorf("corrupt files loaded: %v", m.sessions)
	}
}
