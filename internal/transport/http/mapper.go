package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/proto"
)

func roomToProto(r core.Room) proto.Room {
	out := proto.Room{ID: r.ID, Name: r.Name}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func messageToProto(m core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:      m.ID,
		Room:    m.RoomID,
		Author:  m.AuthorID,
		Content: m.Content,
		TS:      m.Timestamp,
	}
}

func outboundFromEvent(event core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data:  messageToProto(event.Message),
		}
	case core.EventReplayDone:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameReplayDone,
			Data:  proto.EventReplayDone{Room: event.Room},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data:  messageToProto(event.Message),
		}
	}
}

func ackFromMessage(m core.Message) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventNameAck,
		Data:  messageToProto(m),
	}
}

func outboundFromError(err error) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoError(err),
	}
}

func protoError(err error) *proto.Error {
	code := core.Code(err)
	msg := err.Error()
	// Storage and internal failures are logged server side; clients get the code only.
	if code == core.ErrCodeStorage || code == core.ErrCodeInternal {
		msg = "internal server error"
	}
	return &proto.Error{Code: code, Msg: msg}
}

func httpStatus(code string) int {
	switch code {
	case core.ErrCodeRoomNotFound:
		return http.StatusNotFound
	case core.ErrCodeBadRequest, proto.ErrCodeInvalidMessage:
		return http.StatusBadRequest
	case core.ErrCodeStreamClosed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	pe := protoError(err)
	c.JSON(httpStatus(pe.Code), proto.ErrorResponse{Error: *pe})
}

// writeHTTPError answers a stream request that was rejected before the upgrade.
func writeHTTPError(w http.ResponseWriter, err error) {
	pe := protoError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatus(pe.Code))
	_ = json.NewEncoder(w).Encode(proto.ErrorResponse{Error: *pe})
}

// closeStatus picks the WebSocket close code that ends a join stream.
func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case errors.Is(err, core.ErrSubscriberUnavailable):
		return websocket.StatusTryAgainLater, core.ErrCodeSubscriberUnavailable
	case errors.Is(err, core.ErrStreamClosed):
		return websocket.StatusGoingAway, core.ErrCodeStreamClosed
	default:
		return websocket.StatusInternalError, core.ErrCodeInternal
	}
}
