package events

import "github.com/crystal-mush/softeval/pkg/gamedb"

// EventType classifies events for the subscriber.
type EventType int

const (
	EvText   EventType = iota // Plain notification from softcode or a limit notice
	EvTrace                   // A TRACE line: "Name(#n)} 'expr' -> 'result'"
	EvResult                  // The final result of a top-level evaluation
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EvText:
		return "text"
	case EvTrace:
		return "trace"
	case EvResult:
		return "result"
	default:
		return "unknown"
	}
}

// Event is one message flowing through the bus.
type Event struct {
	Type   EventType
	Player gamedb.DBRef // Recipient
	Source gamedb.DBRef // Object whose evaluation produced it
	Text   string
}
