// AETHER - Minimal tool-using AI agent
// License: MIT

package tui

import (
	"context"

	"github.com/aetherlabs/aether/pkg/bus"
)

// AgentEventMsg wraps one display event from the agent for the update loop.
type AgentEventMsg struct {
	Event bus.Event
}

// eventBridge forwards bus events into a channel the tick handler can drain
// without blocking the render loop.
type eventBridge struct {
	events chan bus.Event
}

func newEventBridge() *eventBridge {
	return &eventBridge{
		events: make(chan bus.Event, 50),
	}
}

// run pumps events from the bus until the context is cancelled or the bus
// closes. A full buffer drops the event, same as the bus itself.
func (eb *eventBridge) run(ctx context.Context, msgBus *bus.MessageBus) {
	for {
		ev, ok := msgBus.NextEvent(ctx)
		if !ok {
			return
		}
		select {
		case eb.events <- ev:
		default:
		}
	}
}
