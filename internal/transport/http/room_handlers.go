package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/store"
	"github.com/roomchat/roomchat-server/internal/utils"
)

// RoomHandlers provides HTTP handlers for room-code endpoints.
type RoomHandlers struct {
	rooms store.RoomStore
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(rooms store.RoomStore, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: rooms,
		log:   logger,
	}
}

// RoomResponse represents a room on the wire.
type RoomResponse struct {
	Room      string `json:"room"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CreateRoom mints a fresh room code for the authenticated user.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	username := c.GetString(ContextKeyUsername)

	code := utils.NewRoomCode()
	room, err := h.rooms.CreateRoom(c.Request.Context(), code, username)
	if err != nil {
		h.log.Error().Err(err).Str("code", code).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room", room.Code).Str("username", username).Msg("room created")
	c.JSON(http.StatusCreated, RoomResponse{Room: room.Code, CreatedBy: room.CreatedBy})
}

// GetRoom checks that a room code exists.
// GET /api/rooms/:code
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	code := core.NormalizeRoomCode(c.Param("code"))

	room, err := h.rooms.GetRoomByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("code", code).Msg("failed to look up room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{Room: room.Code, CreatedBy: room.CreatedBy})
}
