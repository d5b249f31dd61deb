// AETHER - Minimal tool-using AI agent
// License: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/aetherlabs/aether/pkg/agent"
	"github.com/aetherlabs/aether/pkg/logger"
)

// agentCmd runs the agent without the TUI: one-shot with -m, otherwise a
// plain line-mode REPL.
func agentCmd(args []string) {
	message := ""
	sessionKey := "cli:default"

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.DEBUG)
			fmt.Println("Debug mode enabled")
		case "-m", "--message":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
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

	if message != "" {
		response, err := rt.loop.ProcessDirect(ctx, message)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s %s\n", logo, response)
		return
	}

	fmt.Printf("%s Interactive mode (Ctrl+C or 'exit' to quit)\n\n", logo)
	interactiveMode(ctx, rt.loop)
}

func interactiveMode(ctx context.Context, loop *agent.Loop) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", logo),
		HistoryFile:     filepath.Join(os.TempDir(), ".aether_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(ctx, loop)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		response, err := loop.ProcessDirect(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s %s\n\n", logo, response)
	}
}

// simpleInteractiveMode is the fallback when readline cannot take over the
// terminal, e.g. when stdin is a pipe.
func simpleInteractiveMode(ctx context.Context, loop *agent.Loop) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("%s You: ", logo)
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return
		}

		response, err := loop.ProcessDirect(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s %s\n\n", logo, response)
	}
}
