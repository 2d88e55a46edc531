package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// ErrStreamEnded is returned once the server ends a join stream normally.
var ErrStreamEnded = errors.New("stream ended")

// frame is proto.Outbound with its payload left undecoded.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// Event is one frame of a join stream. Message is nil for replay_done.
type Event struct {
	Name    string
	Room    string
	Message *proto.EventMessage
}

// Subscription reads a room's replayed history followed by live messages.
type Subscription struct {
	conn *websocket.Conn
	room string
}

// Join opens a join stream for roomID. Unknown rooms and invalid authors are
// reported as *APIError before any frame is read.
func (c *Client) Join(ctx context.Context, roomID, author string) (*Subscription, error) {
	target := c.wsURL("/ws/rooms/" + url.PathEscape(roomID) + "/join?author=" + url.QueryEscape(author))

	conn, resp, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, rejected(resp)
		}
		return nil, fmt.Errorf("dial join stream: %w", err)
	}
	// Stored messages may exceed the default 32KiB read limit.
	conn.SetReadLimit(-1)
	return &Subscription{conn: conn, room: roomID}, nil
}

// Next blocks for the next event. A clean server-side close yields
// ErrStreamEnded wrapped with the close reason.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	var out frame
	if err := wsjson.Read(ctx, s.conn, &out); err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			return Event{}, fmt.Errorf("%w: %s (%d)", ErrStreamEnded, closeErr.Reason, closeErr.Code)
		}
		return Event{}, err
	}
	if out.Type == proto.OutboundTypeError && out.Error != nil {
		return Event{}, &APIError{Code: out.Error.Code, Msg: out.Error.Msg}
	}

	ev := Event{Name: out.Event, Room: s.room}
	switch out.Event {
	case proto.EventNameReplayDone:
		return ev, nil
	case proto.EventNameHistory, proto.EventNameMessage:
		var msg proto.EventMessage
		if err := json.Unmarshal(out.Data, &msg); err != nil {
			return Event{}, fmt.Errorf("decode %s event: %w", out.Event, err)
		}
		ev.Message = &msg
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unexpected event %q", out.Event)
	}
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Sender is a send stream. Each Send waits for the server's ack or error,
// so messages from one Sender are stored in call order.
type Sender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Sender opens a send stream.
func (c *Client) Sender(ctx context.Context) (*Sender, error) {
	conn, resp, err := websocket.Dial(ctx, c.wsURL("/ws/send"), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, rejected(resp)
		}
		return nil, fmt.Errorf("dial send stream: %w", err)
	}
	return &Sender{conn: conn}, nil
}

// Send stores a message and returns it as persisted by the server.
// A per-message failure is returned as *APIError and leaves the stream usable.
func (s *Sender) Send(ctx context.Context, roomID, author, content string) (proto.EventMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(proto.MsgData{Room: roomID, Author: author, Content: content})
	if err != nil {
		return proto.EventMessage{}, fmt.Errorf("marshal msg: %w", err)
	}
	if err := wsjson.Write(ctx, s.conn, proto.Inbound{Type: proto.InboundTypeMsg, Data: payload}); err != nil {
		return proto.EventMessage{}, fmt.Errorf("write msg: %w", err)
	}

	var out frame
	if err := wsjson.Read(ctx, s.conn, &out); err != nil {
		return proto.EventMessage{}, fmt.Errorf("read ack: %w", err)
	}
	if out.Type == proto.OutboundTypeError && out.Error != nil {
		return proto.EventMessage{}, &APIError{Code: out.Error.Code, Msg: out.Error.Msg}
	}
	if out.Event != proto.EventNameAck {
		return proto.EventMessage{}, fmt.Errorf("unexpected event %q", out.Event)
	}

	var msg proto.EventMessage
	if err := json.Unmarshal(out.Data, &msg); err != nil {
		return proto.EventMessage{}, fmt.Errorf("decode ack: %w", err)
	}
	return msg, nil
}

// Close ends the send stream.
func (s *Sender) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

func rejected(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return decodeAPIError(resp.StatusCode, body)
}
