// AETHER - Minimal tool-using AI agent
// License: MIT
//
// Copyright (c) 2026 AETHER contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/aetherlabs/aether/internal/infra"
	"github.com/aetherlabs/aether/pkg/agent"
	"github.com/aetherlabs/aether/pkg/bus"
	"github.com/aetherlabs/aether/pkg/config"
	"github.com/aetherlabs/aether/pkg/logger"
	"github.com/aetherlabs/aether/pkg/mcp"
	"github.com/aetherlabs/aether/pkg/providers"
	"github.com/aetherlabs/aether/pkg/security"
	"github.com/aetherlabs/aether/pkg/session"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const logo = "✦"

// configOverride holds the --config flag value, taking precedence over the
// default location.
var configOverride string

func main() {
	args, override, err := parseGlobalFlags(os.Args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	configOverride = override

	command := "chat"
	if len(args) >= 2 {
		command = args[1]
	}

	switch command {
	case "chat":
		chatCmd(args[2:])
	case "agent":
		agentCmd(args[2:])
	case "tools":
		toolsCmd(args[2:])
	case "version", "-v", "--version":
		printVersion()
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("AETHER - tool-using AI agent")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  aether [chat]            Start the chat TUI (default)")
	fmt.Println("  aether agent [-m MSG]    One-shot message or line-mode REPL")
	fmt.Println("  aether tools list        List tools declared by the tool process")
	fmt.Println("  aether tools describe T  Show one tool's input schema")
	fmt.Println("  aether version           Print version information")
	fmt.Println()
	fmt.Println("Global flags:")
	fmt.Println("  --config PATH            Use an alternate config file")
}

// parseGlobalFlags extracts --config from anywhere on the command line so it
// works before or after the subcommand. Only the literal --config forms are
// consumed; subcommand flags pass through untouched.
func parseGlobalFlags(args []string) ([]string, string, error) {
	filtered := make([]string, 0, len(args))
	override := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) || strings.TrimSpace(args[i+1]) == "" {
				return nil, "", errors.New("--config requires a file path")
			}
			override = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			value := strings.TrimSpace(strings.TrimPrefix(arg, "--config="))
			if value == "" {
				return nil, "", errors.New("--config requires a file path")
			}
			override = value
		default:
			filtered = append(filtered, arg)
		}
	}

	return filtered, override, nil
}

func getConfigPath() string {
	if configOverride != "" {
		return configOverride
	}
	return infra.ConfigPath()
}

// loadConfig reads the config, writing the defaults to disk on first run so
// the user has a file to edit.
func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if saveErr := config.SaveConfig(path, cfg); saveErr != nil {
			logger.WarnCF("main", "Could not write initial config", map[string]any{"error": saveErr.Error()})
		}
	}
	return cfg, nil
}

// loadPolicy reads the permission policy, writing the default allow-all
// policy on first run. Any other failure is fatal to the caller: a policy
// that cannot be understood must not be half-applied.
func loadPolicy(cfg *config.Config) (*security.Policy, error) {
	path := cfg.PermissionsPath()
	policy, err := security.Load(path)
	if err == nil {
		return policy, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		policy = security.Default()
		if saveErr := security.Save(path, policy); saveErr != nil {
			return nil, fmt.Errorf("write default permissions: %w", saveErr)
		}
		return policy, nil
	}
	return nil, err
}

// agentRuntime bundles everything a chat surface needs.
type agentRuntime struct {
	cfg    *config.Config
	bus    *bus.MessageBus
	client *mcp.Client
	loop   *agent.Loop
	model  string
}

// startRuntime performs the startup sequence: config, policy, tool process,
// handshake, provider, sessions, tool discovery. Every failure here is fatal;
// nothing useful can run without these pieces.
func startRuntime(ctx context.Context, sessionKey string) (*agentRuntime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if level := strings.ToLower(cfg.Logging.Level); level == "debug" {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]any{"error": err.Error()})
		}
	}

	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}

	transport, err := mcp.StartTransport(cfg.Tool.Command, cfg.Tool.Args, cfg.Tool.Env)
	if err != nil {
		return nil, fmt.Errorf("start tool process: %w", err)
	}

	client := mcp.NewClient(transport, policy)
	info, err := client.Handshake(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("tool handshake: %w", err)
	}
	logger.InfoCF("main", "Tool process ready", map[string]any{
		"server":  info.Name,
		"version": info.Version,
	})

	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	sessions := session.NewManager(cfg.SessionsPath())
	msgBus := bus.NewMessageBus()
	loop := agent.NewLoop(cfg, msgBus, provider, client, sessions, sessionKey)

	if err := loop.Start(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return &agentRuntime{
		cfg:    cfg,
		bus:    msgBus,
		client: client,
		loop:   loop,
		model:  providers.ResolveModel(cfg, provider),
	}, nil
}

func (rt *agentRuntime) close() {
	rt.bus.Close()
	if err := rt.client.Close(); err != nil {
		logger.WarnCF("main", "Tool process shutdown", map[string]any{"error": err.Error()})
	}
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s aether %s\n", logo, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}
