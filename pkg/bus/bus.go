package bus

import (
	"context"
	"sync"
)

// MessageBus carries user turns toward the agent and display events back.
// Both directions are ordered. Event publication never blocks: when the
// display side stops draining, events are dropped rather than stalling a
// conversation turn.
type MessageBus struct {
	turns  chan UserTurn
	events chan Event
	closed bool
	mu     sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		turns:  make(chan UserTurn, 100),
		events: make(chan Event, 100),
	}
}

func (mb *MessageBus) PublishTurn(turn UserTurn) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	mb.turns <- turn
}

// ConsumeTurn returns the next user turn and whether the read succeeded.
// The bool is false when the context is cancelled or the bus is closed.
func (mb *MessageBus) ConsumeTurn(ctx context.Context) (UserTurn, bool) {
	select {
	case turn, ok := <-mb.turns:
		return turn, ok
	case <-ctx.Done():
		return UserTurn{}, false
	}
}

// PublishEvent places a tagged event on the display stream. Fire-and-forget:
// a full buffer drops the event instead of blocking the caller.
func (mb *MessageBus) PublishEvent(kind EventKind, text string) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	select {
	case mb.events <- Event{Kind: kind, Text: text}:
	default:
	}
}

// NextEvent returns the next display event and whether the read succeeded.
// The bool is false when the context is cancelled or the bus is closed.
func (mb *MessageBus) NextEvent(ctx context.Context) (Event, bool) {
	select {
	case ev, ok := <-mb.events:
		return ev, ok
	case <-ctx.Done():
		return Event{}, false
	}
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.turns)
	close(mb.events)
}
