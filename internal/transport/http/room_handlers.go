package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/proto"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	hub core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

type createRoomBody struct {
	Name string `json:"name" binding:"max=128"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req createRoomBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: proto.Error{
			Code: proto.ErrCodeInvalidMessage,
			Msg:  "invalid request body",
		}})
		return
	}

	room, err := h.hub.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		if core.Code(err) != core.ErrCodeBadRequest {
			h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, roomToProto(room))
}

// ListRooms handles listing rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		writeError(c, err)
		return
	}

	response := make([]proto.Room, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomToProto(room))
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed successfully")
	c.JSON(http.StatusOK, response)
}

// GetHistory returns a snapshot of a room's messages in timestamp order.
// GET /api/rooms/:id/messages
func (h *RoomHandlers) GetHistory(c *gin.Context) {
	roomID := c.Param("id")

	messages, err := h.hub.History(c.Request.Context(), roomID)
	if err != nil {
		if core.Code(err) != core.ErrCodeRoomNotFound {
			h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to read history")
		}
		writeError(c, err)
		return
	}

	response := proto.History{
		Room:     roomID,
		Messages: make([]proto.EventMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		response.Messages = append(response.Messages, messageToProto(msg))
	}

	c.JSON(http.StatusOK, response)
}
