package core

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/roomchat/roomchat-server/internal/store"
)

// HubConfig carries the tunables of the chat engine.
type HubConfig struct {
	// PresenceGrace is how long a disconnected user stays on the roster
	// before eviction.
	PresenceGrace time.Duration
	// HistoryLimit caps how many messages are replayed on join.
	HistoryLimit int
}

// Hub owns the shared state of the chat engine: the presence table, the
// broadcast router, and the handles to durable storage. Sessions are created
// per connection and funnel every room operation through it.
type Hub struct {
	presence *Presence
	router   *Router
	rooms    store.RoomStore
	messages store.MessageStore
	cfg      HubConfig
	log      *zerolog.Logger
}

// NewHub constructs the hub and wires the presence eviction callback to the
// router, so an expired grace window broadcasts the departure exactly once.
func NewHub(rooms store.RoomStore, messages store.MessageStore, cfg HubConfig, logger *zerolog.Logger) *Hub {
	h := &Hub{
		router:   NewRouter(),
		rooms:    rooms,
		messages: messages,
		cfg:      cfg,
		log:      logger,
	}
	h.presence = NewPresence(cfg.PresenceGrace, h.onEvict)
	return h
}

// NewSession creates a session for an authenticated connection.
func (h *Hub) NewSession(client *Client) *Session {
	return &Session{hub: h, client: client, state: StateAuthenticated}
}

// Snapshot returns the current roster of a room.
func (h *Hub) Snapshot(room string) []string {
	return h.presence.Snapshot(room)
}

func (h *Hub) onEvict(room, user string, roster []string) {
	if h.log != nil {
		h.log.Debug().Str("room", room).Str("user", user).Msg("grace period expired")
	}
	h.router.Broadcast(room, &Event{Kind: EventUserLeft, Room: room, User: user})
	h.router.Broadcast(room, &Event{Kind: EventParticipants, Room: room, Users: roster})
}
