package agent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aetherlabs/aether/pkg/mcp"
	"github.com/aetherlabs/aether/pkg/providers"
)

type chatCall struct {
	messages []providers.Message
	tools    []providers.ToolDefinition
}

// mockProvider replays scripted responses in order. A nil entry in errs
// means the call at that index succeeds; past the end of responses the last
// one repeats.
type mockProvider struct {
	mu        sync.Mutex
	calls     []chatCall
	responses []providers.LLMResponse
	errs      []error
	index     int
}

func (m *mockProvider) Chat(
	ctx context.Context,
	messages []providers.Message,
	tools []providers.ToolDefinition,
	model string,
	opts map[string]any,
) (*providers.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, chatCall{
		messages: append([]providers.Message(nil), messages...),
		tools:    append([]providers.ToolDefinition(nil), tools...),
	})

	i := m.index
	m.index++

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if len(m.responses) == 0 {
		return &providers.LLMResponse{Content: "Mock response"}, nil
	}
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	resp := m.responses[i]
	return &resp, nil
}

func (m *mockProvider) GetDefaultModel() string {
	return "mock-model"
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) call(i int) chatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

type invokerCall struct {
	name string
	args map[string]any
}

// mockInvoker records tool calls and answers them from a canned result map.
type mockInvoker struct {
	mu      sync.Mutex
	tools   []mcp.Tool
	listErr error
	results map[string]string
	callErr error
	calls   []invokerCall
}

func (m *mockInvoker) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tools, nil
}

func (m *mockInvoker) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, invokerCall{name: name, args: args})
	if m.callErr != nil {
		return nil, m.callErr
	}
	if raw, ok := m.results[name]; ok {
		return json.RawMessage(raw), nil
	}
	return json.RawMessage(`{"content":[{"type":"text","text":"ok"}]}`), nil
}

func (m *mockInvoker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockInvoker) recordedCall(i int) invokerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}
