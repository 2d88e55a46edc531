package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/proto"
)

// WSHandler serves the streaming endpoints.
type WSHandler struct {
	hub      core.Hub
	maxBytes int64
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub core.Hub, maxBytes int64, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, maxBytes: maxBytes, log: logger}
}

func (h *WSHandler) accept(w stdhttp.ResponseWriter, r *stdhttp.Request) (*websocket.Conn, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return nil, err
	}
	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}
	return conn, nil
}

// SendMessages accepts a stream of messages and answers each with an ack or an error frame.
// Inputs are handled in arrival order, so one connection's messages keep their send order.
// GET /ws/send
func (h *WSHandler) SendMessages(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := h.accept(w, r)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	started := time.Now()
	defer func() {
		h.log.Info().Str("path", r.URL.Path).Dur("duration", time.Since(started)).Msg("ws send stream closed")
	}()

	ctx := r.Context()
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.closeAfterRead(conn, err)
			return
		}

		if err := wsjson.Write(ctx, conn, h.handleInbound(ctx, inbound)); err != nil {
			h.log.Warn().Err(err).Msg("write ws send response")
			return
		}
	}
}

func (h *WSHandler) handleInbound(ctx context.Context, inbound proto.Inbound) proto.Outbound {
	if inbound.Type != proto.InboundTypeMsg {
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{
			Code: proto.ErrCodeInvalidMessage,
			Msg:  "unknown message type",
		}}
	}

	var msg proto.MsgData
	if err := json.Unmarshal(inbound.Data, &msg); err != nil {
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{
			Code: proto.ErrCodeInvalidMessage,
			Msg:  "malformed msg payload",
		}}
	}

	sent, err := h.hub.Send(ctx, msg.Room, msg.Author, msg.Content)
	if err != nil {
		if core.Code(err) == core.ErrCodeStorage {
			h.log.Error().Err(err).Str("room_id", msg.Room).Msg("send failed")
		}
		return outboundFromError(err)
	}
	return ackFromMessage(sent)
}

func (h *WSHandler) closeAfterRead(conn *websocket.Conn, err error) {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
		errors.Is(err, context.Canceled) {
		conn.Close(websocket.StatusNormalClosure, "closing")
		return
	}
	h.log.Warn().Err(err).Msg("ws connection closed with error")
	if status == -1 {
		conn.Close(websocket.StatusUnsupportedData, proto.ErrCodeInvalidMessage)
	}
}

// JoinRoom streams the room's history followed by live messages.
// The room is validated before the upgrade so errors surface as plain HTTP responses.
// GET /ws/rooms/{id}/join?author=
func (h *WSHandler) JoinRoom(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomID := r.PathValue("id")
	author := r.URL.Query().Get("author")

	stream, err := h.hub.Join(r.Context(), roomID, author)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	defer stream.Close()

	conn, err := h.accept(w, r)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	// The client never sends on this endpoint; CloseRead cancels ctx when it disconnects.
	ctx := conn.CloseRead(r.Context())

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			status, reason := closeStatus(err)
			h.log.Info().Err(err).Str("room_id", roomID).Str("author_id", author).Msg("join stream ended")
			conn.Close(status, reason)
			return
		}

		if err := wsjson.Write(ctx, conn, outboundFromEvent(ev)); err != nil {
			h.log.Debug().Err(err).Str("subscription_id", stream.ID()).Msg("write ws event")
			return
		}
	}
}
