// AETHER - Minimal tool-using AI agent
// License: MIT
//
// Copyright (c) 2026 AETHER contributors

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/aetherlabs/aether/pkg/bus"
	"github.com/aetherlabs/aether/pkg/config"
	"github.com/aetherlabs/aether/pkg/logger"
	"github.com/aetherlabs/aether/pkg/mcp"
	"github.com/aetherlabs/aether/pkg/providers"
	"github.com/aetherlabs/aether/pkg/ratelimit"
	"github.com/aetherlabs/aether/pkg/session"
)

// ToolInvoker is the slice of the tool client the loop needs: catalogue
// discovery at startup and call execution during turns.
type ToolInvoker interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error)
}

// Loop owns the conversation. It consumes user turns from the bus, runs
// completion cycles against the configured provider, dispatches requested
// tool calls to the worker process, and publishes display events for the
// active surface. One Loop drives one session.
type Loop struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	provider providers.LLMProvider
	invoker  ToolInvoker
	sessions *session.Manager
	limiter  *ratelimit.Limiter

	model        string
	providerName string
	sessionKey   string

	tools      []providers.ToolDefinition
	transcript []providers.Message

	running atomic.Bool
}

// NewLoop builds a loop seeded with the system prompt and any persisted
// history for sessionKey. The system prompt is never persisted, so prompt
// changes in config take effect on the next run.
func NewLoop(
	cfg *config.Config,
	msgBus *bus.MessageBus,
	provider providers.LLMProvider,
	invoker ToolInvoker,
	sessions *session.Manager,
	sessionKey string,
) *Loop {
	prompt := strings.TrimSpace(cfg.Agent.SystemPrompt)
	if prompt == "" {
		prompt = config.DefaultSystemPrompt
	}

	transcript := make([]providers.Message, 0, 16)
	transcript = append(transcript, providers.Message{Role: "system", Content: prompt})
	if sessions != nil {
		transcript = append(transcript, sessions.GetHistory(sessionKey)...)
	}

	name := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if name == "" {
		name = "groq"
	}

	return &Loop{
		cfg:          cfg,
		bus:          msgBus,
		provider:     provider,
		invoker:      invoker,
		sessions:     sessions,
		sessionKey:   sessionKey,
		model:        providers.ResolveModel(cfg, provider),
		providerName: name,
		transcript:   transcript,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Enabled:           cfg.RateLimits.MaxRequestsPerMinute > 0,
			RequestsPerMinute: cfg.RateLimits.MaxRequestsPerMinute,
		}),
	}
}

// Start discovers the tool catalogue. A discovery failure is fatal to the
// agent: without the catalogue the model cannot be offered any tools.
func (al *Loop) Start(ctx context.Context) error {
	al.bus.PublishEvent(bus.EventLog, "Agent System Online.")

	tools, err := al.invoker.ListTools(ctx)
	if err != nil {
		al.bus.PublishEvent(bus.EventError, fmt.Sprintf("Critical Tool Failure: %v", err))
		return fmt.Errorf("tool discovery: %w", err)
	}
	al.tools = translateCatalogue(tools)
	al.bus.PublishEvent(bus.EventLog, fmt.Sprintf("Tools Discovered: %d", len(tools)))
	logger.InfoCF("agent", "Tool catalogue loaded", map[string]any{"count": len(tools)})
	return nil
}

// Run consumes user turns until ctx is cancelled or the bus closes, then
// returns nil. Errors inside a turn are reported as events and never stop
// the loop.
func (al *Loop) Run(ctx context.Context) error {
	al.running.Store(true)
	defer al.running.Store(false)

	for {
		turn, ok := al.bus.ConsumeTurn(ctx)
		if !ok {
			return nil
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		al.processTurn(ctx, turn.Content)
	}
}

// IsRunning reports whether Run is currently consuming turns.
func (al *Loop) IsRunning() bool {
	return al.running.Load()
}

// ProcessDirect runs one turn synchronously, outside the bus loop, and
// returns the assistant reply. Used by the one-shot and REPL surfaces.
func (al *Loop) ProcessDirect(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty input")
	}
	turnID := uuid.New().String()[:8]
	logger.DebugCF("agent", "Turn started", map[string]any{"turn": turnID, "session": al.sessionKey})

	al.append(providers.Message{Role: "user", Content: content})
	reply, err := al.cycle(ctx)
	if err != nil {
		logger.ErrorCF("agent", "Turn failed", map[string]any{"turn": turnID, "error": err.Error()})
	}
	al.saveSession()
	return reply, err
}

func (al *Loop) processTurn(ctx context.Context, content string) {
	turnID := uuid.New().String()[:8]
	logger.DebugCF("agent", "Turn started", map[string]any{"turn": turnID, "session": al.sessionKey})

	al.bus.PublishEvent(bus.EventLog, "Thinking...")
	al.append(providers.Message{Role: "user", Content: content})

	if _, err := al.cycle(ctx); err != nil {
		al.bus.PublishEvent(bus.EventError, fmt.Sprintf("Cycle Error: %v", err))
		logger.ErrorCF("agent", "Turn failed", map[string]any{"turn": turnID, "error": err.Error()})
	}

	al.saveSession()
}

// cycle is one full completion round: ask the model with the tool catalogue,
// execute whatever it requested, then ask once more with no tools so it must
// produce text. The second ask is skipped when the first reply is already a
// direct answer.
func (al *Loop) cycle(ctx context.Context) (string, error) {
	resp, err := al.complete(ctx, al.tools)
	if err != nil {
		return "", err
	}
	al.append(assistantMessage(resp))

	if len(resp.ToolCalls) == 0 {
		text := strings.TrimSpace(resp.Content)
		if text == "" {
			text = defaultResponse
		}
		al.bus.PublishEvent(bus.EventAi, text)
		return text, nil
	}

	al.bus.PublishEvent(bus.EventLog, fmt.Sprintf("Tools Requested: %d", len(resp.ToolCalls)))
	for _, call := range resp.ToolCalls {
		al.runToolCall(ctx, call)
	}

	final, err := al.complete(ctx, nil)
	if err != nil {
		return "", err
	}
	if len(final.ToolCalls) > 0 {
		// The no-tools ask must end the turn. Requests it makes anyway
		// cannot be honored without corrupting the transcript.
		logger.WarnCF("agent", "Dropping tool calls from final completion", map[string]any{
			"count": len(final.ToolCalls),
		})
	}
	text := strings.TrimSpace(final.Content)
	if text == "" {
		text = defaultResponse
	}
	al.append(providers.Message{Role: "assistant", Content: text})
	al.bus.PublishEvent(bus.EventAi, text)
	return text, nil
}

func (al *Loop) runToolCall(ctx context.Context, call providers.ToolCall) {
	name := toolCallName(call)
	args, display, ok := toolCallArguments(call)
	al.bus.PublishEvent(bus.EventLog, fmt.Sprintf("EXEC: %s(%s)", name, display))
	if !ok {
		al.bus.PublishEvent(bus.EventLog, fmt.Sprintf("Arguments for %s were not valid JSON, calling with none", name))
		logger.WarnCF("agent", "Malformed tool arguments", map[string]any{"tool": name, "raw": display})
	}

	resultText := al.executeTool(ctx, name, args)

	al.bus.PublishEvent(bus.EventLog, fmt.Sprintf("RESULT: %s", resultText))
	al.append(providers.Message{
		Role:       "tool",
		Content:    resultText,
		ToolCallID: call.ID,
	})
}

func (al *Loop) executeTool(ctx context.Context, name string, args map[string]any) string {
	raw, err := al.invoker.CallTool(ctx, name, args)
	if err != nil {
		logger.WarnCF("agent", "Tool call failed", map[string]any{"tool": name, "error": err.Error()})
		return fmt.Sprintf("Error: %v", err)
	}
	result := mcp.FormatCallResult(raw, toolResultLimit)
	if result.IsError {
		return "Error: " + result.Content
	}
	return result.Content
}

func (al *Loop) complete(ctx context.Context, tools []providers.ToolDefinition) (*providers.LLMResponse, error) {
	if err := al.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := map[string]any{}
	if al.cfg.Agent.MaxTokens > 0 {
		opts["max_tokens"] = al.cfg.Agent.MaxTokens
	}
	if al.cfg.Agent.Temperature > 0 {
		opts["temperature"] = al.cfg.Agent.Temperature
	}

	resp, err := al.provider.Chat(ctx, al.transcript, tools, al.model, opts)
	if err != nil {
		return nil, &providers.CompletionError{Provider: al.providerName, Err: err}
	}
	if resp == nil {
		return nil, &providers.CompletionError{Provider: al.providerName, Err: fmt.Errorf("empty response")}
	}
	return resp, nil
}

func (al *Loop) append(msg providers.Message) {
	al.transcript = append(al.transcript, msg)
	if al.sessions != nil {
		al.sessions.AddFullMessage(al.sessionKey, msg)
	}
}

func (al *Loop) saveSession() {
	if al.sessions == nil {
		return
	}
	if err := al.sessions.Save(al.sessionKey); err != nil {
		logger.WarnCF("agent", "Session save failed", map[string]any{"error": err.Error()})
	}
}

// translateCatalogue converts discovered tools into the definition shape the
// chat providers send upstream.
func translateCatalogue(tools []mcp.Tool) []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		params := tool.InputSchema
		if params == nil {
			params = map[string]any{"type": "object"}
		}
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return defs
}

// assistantMessage normalizes a completion into a transcript entry,
// preserving tool calls in both the decoded and wire-string forms so every
// provider can replay them.
func assistantMessage(resp *providers.LLMResponse) providers.Message {
	msg := providers.Message{Role: "assistant", Content: resp.Content}
	for _, call := range resp.ToolCalls {
		name := toolCallName(call)
		raw := ""
		if call.Function != nil {
			raw = call.Function.Arguments
		}
		if raw == "" && len(call.Arguments) > 0 {
			if data, err := json.Marshal(call.Arguments); err == nil {
				raw = string(data)
			}
		}
		if raw == "" {
			raw = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
			ID:        call.ID,
			Type:      "function",
			Name:      name,
			Arguments: call.Arguments,
			Function:  &providers.FunctionCall{Name: name, Arguments: raw},
		})
	}
	return msg
}

func toolCallName(call providers.ToolCall) string {
	if call.Name != "" {
		return call.Name
	}
	if call.Function != nil {
		return call.Function.Name
	}
	return ""
}

// toolCallArguments resolves the argument map for a call and the raw string
// to show in the EXEC log line. Arguments that do not decode as a JSON
// object degrade to an empty map; the call still runs.
func toolCallArguments(call providers.ToolCall) (map[string]any, string, bool) {
	raw := ""
	if call.Function != nil {
		raw = strings.TrimSpace(call.Function.Arguments)
	}

	if len(call.Arguments) > 0 {
		display := raw
		if display == "" {
			if data, err := json.Marshal(call.Arguments); err == nil {
				display = string(data)
			} else {
				display = "{}"
			}
		}
		return call.Arguments, display, true
	}

	if raw == "" || raw == "null" || raw == "{}" {
		return map[string]any{}, "{}", true
	}

	parsed := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]any{}, raw, false
	}
	return parsed, raw, true
}
