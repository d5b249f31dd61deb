// AETHER - Minimal tool-using AI agent
// License: MIT
//
// Copyright (c) 2026 AETHER contributors

// aether-mocktool is the stock tool process: a stdio MCP server declaring a
// single calculate_sum tool. The agent spawns it by default, and the
// end-to-end tests drive it over the same pipes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type sumInput struct {
	A int64 `json:"a" jsonschema:"first addend"`
	B int64 `json:"b" jsonschema:"second addend"`
}

type sumOutput struct {
	Sum int64 `json:"sum"`
}

func main() {
	server := mcp.NewServer(&mcp.Implementation{Name: "MockTool", Version: "1.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_sum",
		Description: "Add two numbers and return the result",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in sumInput) (*mcp.CallToolResult, sumOutput, error) {
		sum := in.A + in.B
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("The sum is %d", sum)},
			},
		}, sumOutput{Sum: sum}, nil
	})

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintf(os.Stderr, "aether-mocktool: %v\n", err)
		os.Exit(1)
	}
}
