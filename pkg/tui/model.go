// AETHER - Minimal tool-using AI agent
// License: MIT

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aetherlabs/aether/pkg/bus"
)

const (
	tickInterval       = 200 * time.Millisecond
	thinkingFrameCount = 4
	headerHeight       = 1
	statusBarHeight    = 1
	textareaHeight     = 3
	// chromeHeight accounts for header, status bar, textarea, and separators
	chromeHeight     = headerHeight + statusBarHeight + textareaHeight + 2
	maxSessionKeyLen = 15
)

// thinkingFrames are the animation frames for the thinking indicator
var thinkingFrames = [thinkingFrameCount]string{"⠋", "⠙", "⠹", "⠸"}

// tickMsg drives the thinking animation and event polling
type tickMsg time.Time

// Model is the main bubbletea model for the AETHER chat surface. User input
// goes out as turns on the bus; everything shown in the viewport arrives
// back as display events, except the local echo of the user's own line.
type Model struct {
	viewport    viewport.Model
	textarea    textarea.Model
	lines       []bus.Event
	bus         *bus.MessageBus
	sessionKey  string
	modelName   string
	thinking    bool
	thinkFrame  int
	width       int
	height      int
	ready       bool
	eventBridge *eventBridge
	quitting    bool
}

// NewModel creates a TUI model wired to the message bus. The bridge pump
// stops when ctx is cancelled or the bus closes.
func NewModel(ctx context.Context, msgBus *bus.MessageBus, sessionKey, modelName string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, Alt+Enter for newline)"
	ta.Prompt = "│ "
	ta.CharLimit = 0
	ta.SetHeight(textareaHeight)
	ta.ShowLineNumbers = false
	ta.Focus()

	// Enter sends, Alt+Enter inserts newline
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	eb := newEventBridge()
	go eb.run(ctx, msgBus)

	return Model{
		textarea:    ta,
		bus:         msgBus,
		sessionKey:  sessionKey,
		modelName:   modelName,
		eventBridge: eb,
	}
}

// Init returns the initial command for the TUI
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tickCmd())
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tickMsg:
		return m.handleTick()

	case AgentEventMsg:
		m.lines = append(m.lines, msg.Event)
		if msg.Event.Kind == bus.EventAi || msg.Event.Kind == bus.EventError {
			m.thinking = false
		}
		m.updateViewport()
		return m, nil
	}

	// Pass remaining messages to textarea
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Initializing...\n"
	}

	header := m.renderHeader()
	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		sep,
		m.textarea.View(),
		m.renderStatusBar(),
	)
}

// handleKeyMsg processes keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil

	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			return m, nil
		}
		m.textarea.Reset()

		// Local echo; the agent never publishes user events.
		m.lines = append(m.lines, bus.Event{Kind: bus.EventUser, Text: input})
		m.thinking = true
		m.updateViewport()

		m.bus.PublishTurn(bus.UserTurn{Content: input, SessionKey: m.sessionKey})
		return m, nil
	}

	// Pass to textarea for regular typing
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleWindowSize initializes or resizes the viewport and textarea
func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	m.textarea.SetWidth(msg.Width)
	m.updateViewport()

	return m, nil
}

// handleTick advances the thinking animation and polls bus events
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}

	if m.thinking {
		m.thinkFrame = (m.thinkFrame + 1) % thinkingFrameCount
		m.updateViewport()
	}

	cmds = append(cmds, m.pollEvents()...)

	return m, tea.Batch(cmds...)
}

// pollEvents drains the event bridge channel, returning tea commands
func (m Model) pollEvents() []tea.Cmd {
	var cmds []tea.Cmd

	for {
		select {
		case event := <-m.eventBridge.events:
			cmds = append(cmds, func() tea.Msg { return AgentEventMsg{Event: event} })
		default:
			return cmds
		}
	}
}

// updateViewport renders all lines and sets the viewport content
func (m *Model) updateViewport() {
	var sb strings.Builder

	for _, line := range m.lines {
		switch line.Kind {
		case bus.EventUser:
			sb.WriteString(userLabelStyle.Render("YOU:") + " " + line.Text + "\n\n")

		case bus.EventAi:
			sb.WriteString(aiLabelStyle.Render("AETHER:") + " " + line.Text + "\n\n")

		case bus.EventLog:
			sb.WriteString(logLineStyle.Render("LOG: "+line.Text) + "\n")

		case bus.EventError:
			sb.WriteString(errorLineStyle.Render("ERROR: "+line.Text) + "\n")
		}
	}

	if m.thinking {
		frame := thinkingFrames[m.thinkFrame]
		sb.WriteString(thinkingStyle.Render(frame+" Thinking...") + "\n")
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// renderHeader returns the header line
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("AETHER")

	session := truncateSessionKey(m.sessionKey)

	right := lipgloss.NewStyle().
		Foreground(secondaryColor).
		Render(fmt.Sprintf("[%s] %s", session, m.modelName))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + right
}

// renderStatusBar returns the status bar at the bottom
func (m Model) renderStatusBar() string {
	left := m.modelName

	msgCount := 0
	for _, line := range m.lines {
		if line.Kind == bus.EventUser || line.Kind == bus.EventAi {
			msgCount++
		}
	}
	right := fmt.Sprintf("messages: %d | session: %s", msgCount, truncateSessionKey(m.sessionKey))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2 // padding
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + right
	return statusBarStyle.Render(bar)
}

// truncateSessionKey shortens the session key for display
func truncateSessionKey(key string) string {
	if len(key) <= maxSessionKeyLen {
		return key
	}
	return key[:maxSessionKeyLen] + "…"
}

// tickCmd returns a command that sends a tickMsg after the tick interval
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
