package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeMsg = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage    = "message"
	EventNameHistory    = "history"
	EventNameReplayDone = "replay_done"
	EventNameAck        = "ack"

	ErrCodeInvalidMessage = "invalid_message"
)

// MsgData is a chat message sent on the send stream.
type MsgData struct {
	Room    string `json:"room"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a persisted message as seen by clients.
type EventMessage struct {
	ID      string `json:"id"`
	Room    string `json:"room"`
	Author  string `json:"author"`
	Content string `json:"content"`
	TS      int64  `json:"ts"`
}

// EventReplayDone marks the end of replayed history on a join stream.
type EventReplayDone struct {
	Room string `json:"room"`
}

// Room describes a chat room.
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateRoomRequest is the body of a room creation call.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// History is a point-in-time snapshot of a room's messages.
type History struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorResponse is the body of a failed REST call.
type ErrorResponse struct {
	Error Error `json:"error"`
}
