package core

// EventKind tells a stream consumer which phase an event belongs to.
type EventKind int

const (
	// EventRoomMessage is a live message fanned out after the subscriber joined.
	EventRoomMessage EventKind = iota
	// EventHistory is a stored message replayed on join.
	EventHistory
	// EventReplayDone separates replayed history from live messages.
	EventReplayDone
)

func (k EventKind) String() string {
	switch k {
	case EventRoomMessage:
		return "message"
	case EventHistory:
		return "history"
	case EventReplayDone:
		return "replay_done"
	default:
		return "unknown"
	}
}

// Event is what a join stream yields.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message // zero for EventReplayDone
}
