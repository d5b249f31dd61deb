package mcp

// Tool is one entry of the catalogue a tool process declares. Produced once
// by discovery and immutable for the lifetime of the session.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ServerInfo identifies the tool process, as declared in its handshake reply.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// CallResult is a tool invocation result flattened to text.
type CallResult struct {
	Content string
	IsError bool
}
