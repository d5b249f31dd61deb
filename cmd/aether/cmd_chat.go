// AETHER - Minimal tool-using AI agent
// License: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aetherlabs/aether/pkg/logger"
	"github.com/aetherlabs/aether/pkg/tui"
)

// chatCmd runs the full-screen chat surface. The agent loop consumes turns
// in the background; the TUI owns the terminal until the user quits.
func chatCmd(args []string) {
	sessionKey := "cli:default"

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
		case "-s", "--session":
			if i+1 < len(args) {
				sessionKey = args[i+1]
				i++
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := startRuntime(ctx, sessionKey)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.close()

	go rt.loop.Run(ctx)

	// Log lines would tear the alternate screen; they still reach the file
	// sink and the LOG event stream.
	logger.SetConsoleOutput(false)
	defer logger.SetConsoleOutput(true)

	model := tui.NewModel(ctx, rt.bus, sessionKey, rt.model)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.SetConsoleOutput(true)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
