// AETHER - Minimal tool-using AI agent
// License: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aetherlabs/aether/pkg/mcp"
	"github.com/aetherlabs/aether/pkg/security"
)

func toolsCmd(args []string) {
	cmd := newToolsCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tools",
		Short:        "Inspect the tool catalogue",
		SilenceUsage: true,
		RunE:         runToolsList,
	}
	cmd.AddCommand(
		newToolsListCmd(),
		newToolsDescribeCmd(),
	)
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tools declared by the tool process",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

func newToolsDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <tool>",
		Short: "Show one tool's input schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsDescribe,
	}
}

// discoverCatalogue spawns the tool process and fetches its declarations.
// The LLM provider is never touched, so no API key is needed here.
func discoverCatalogue(ctx context.Context) ([]mcp.Tool, *security.Policy, mcp.ServerInfo, *mcp.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, mcp.ServerInfo{}, nil, fmt.Errorf("load config: %w", err)
	}

	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil, nil, mcp.ServerInfo{}, nil, fmt.Errorf("load permissions: %w", err)
	}

	transport, err := mcp.StartTransport(cfg.Tool.Command, cfg.Tool.Args, cfg.Tool.Env)
	if err != nil {
		return nil, nil, mcp.ServerInfo{}, nil, fmt.Errorf("start tool process: %w", err)
	}

	client := mcp.NewClient(transport, policy)
	info, err := client.Handshake(ctx)
	if err != nil {
		client.Close()
		return nil, nil, mcp.ServerInfo{}, nil, fmt.Errorf("tool handshake: %w", err)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		client.Close()
		return nil, nil, mcp.ServerInfo{}, nil, fmt.Errorf("list tools: %w", err)
	}

	return tools, policy, info, client, nil
}

func runToolsList(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools, policy, info, client, err := discoverCatalogue(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("%s %s: %d tool(s)\n\n", info.Name, info.Version, len(tools))
	for _, tool := range tools {
		verdict := "deny"
		if policy.Allows(tool.Name) {
			verdict = "allow"
		}
		fmt.Printf("  %-24s %-6s %s\n", tool.Name, verdict, tool.Description)
	}
	return nil
}

func runToolsDescribe(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools, policy, _, client, err := discoverCatalogue(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	name := args[0]
	for _, tool := range tools {
		if tool.Name != name {
			continue
		}

		verdict := "deny"
		if policy.Allows(tool.Name) {
			verdict = "allow"
		}
		fmt.Printf("Name:        %s\n", tool.Name)
		fmt.Printf("Policy:      %s\n", verdict)
		if tool.Description != "" {
			fmt.Printf("Description: %s\n", tool.Description)
		}

		schema, err := json.MarshalIndent(tool.InputSchema, "", "  ")
		if err != nil {
			return fmt.Errorf("render schema: %w", err)
		}
		fmt.Printf("Schema:\n%s\n", schema)
		return nil
	}

	return fmt.Errorf("tool %q is not declared by the tool process", name)
}
