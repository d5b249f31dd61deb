package bus

// EventKind tags an entry on the display stream.
type EventKind int

const (
	EventUser EventKind = iota
	EventAi
	EventLog
	EventError
)

var eventKindNames = map[EventKind]string{
	EventUser:  "user",
	EventAi:    "ai",
	EventLog:   "log",
	EventError: "error",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one tagged message for the display surface.
type Event struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text"`
}

// UserTurn is one free-text user input handed to the agent.
type UserTurn struct {
	Content    string `json:"content"`
	SessionKey string `json:"session_key"`
}
