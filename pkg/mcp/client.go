package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/aetherlabs/aether/pkg/security"
)

const (
	protocolVersion = "2024-11-05"

	clientName    = "aether"
	clientVersion = "0.1.0"
)

// link is the slice of Transport the client drives. Tests substitute a
// scripted implementation.
type link interface {
	Send(v any) error
	ReceiveLine() (string, error)
	Close() error
}

// Client implements the protocol operations over one Transport: handshake,
// tool discovery and tool invocation. Exactly one request is in flight at a
// time, so the reply line read after a request write answers that write.
// Request ids increase monotonically from 1 without ever being reused.
// The security policy is consulted before every tool call; a denied call
// never reaches the transport.
type Client struct {
	transport link
	policy    *security.Policy
	nextID    atomic.Uint64

	info ServerInfo
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func NewClient(transport *Transport, policy *security.Policy) *Client {
	return &Client{transport: transport, policy: policy}
}

// Handshake performs the initialize exchange and records the server identity,
// then sends the initialized notification the protocol expects before any
// other request.
func (c *Client) Handshake(ctx context.Context) (ServerInfo, error) {
	raw, err := c.request(ctx, "initialize", initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ClientInfo: clientInfo{Name: clientName, Version: clientVersion},
	})
	if err != nil {
		return ServerInfo{}, fmt.Errorf("initialize: %w", err)
	}

	var result initializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ServerInfo{}, &DecodeError{Method: "initialize", Err: err}
	}
	c.info = result.ServerInfo

	if err := c.notify("notifications/initialized", map[string]any{}); err != nil {
		return ServerInfo{}, fmt.Errorf("initialized notification: %w", err)
	}
	return result.ServerInfo, nil
}

// ListTools asks the tool process for its tool catalogue. A reply without a
// tools key decodes as an empty catalogue.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	raw, err := c.request(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodeError{Method: "tools/list", Err: err}
	}
	if result.Tools == nil {
		result.Tools = []Tool{}
	}
	return result.Tools, nil
}

// CallTool invokes one tool. The permission policy is checked first: a denial
// returns a PermissionError without writing anything to the transport. On
// success the raw result document is returned for the caller to interpret;
// an error object from the tool process comes back as a ToolError.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (json.RawMessage, error) {
	if !c.policy.Allows(name) {
		return nil, &PermissionError{Tool: name}
	}

	raw, err := c.request(ctx, "tools/call", callToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, &ToolError{Tool: name, Err: rpcErr}
		}
		return nil, err
	}
	return raw, nil
}

// ServerInfo returns the identity the tool process declared during the
// handshake.
func (c *Client) ServerInfo() ServerInfo {
	return c.info
}

func (c *Client) Close() error {
	return c.transport.Close()
}

// request performs one write-then-read cycle. Blank lines and id-less server
// notifications on the stream are skipped until a response arrives; with a
// single request outstanding, that response is ours.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	if err := c.transport.Send(req); err != nil {
		return nil, err
	}

	for {
		line, err := c.transport.ReceiveLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			return nil, &DecodeError{Method: method, Err: err}
		}
		if len(resp.ID) == 0 {
			continue
		}

		if resp.Error != nil {
			return nil, resp.Error
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			return nil, ErrEmptyResult
		}
		return resp.Result, nil
	}
}

// notify writes a fire-and-forget notification: no id, no reply line.
func (c *Client) notify(method string, params any) error {
	return c.transport.Send(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}
