package core

import (
	"context"
	"errors"
	"strings"

	"github.com/roomchat/roomchat-server/internal/store"
)

// SessionState tracks where a connection is in its lifecycle.
type SessionState int

const (
	// StateUnauthenticated is a connection before the handshake. Connections
	// that fail authentication are refused at the transport and never get a
	// session, so a constructed session starts at StateAuthenticated.
	StateUnauthenticated SessionState = iota
	// StateAuthenticated is a verified connection not yet in a room.
	StateAuthenticated
	// StateInRoom is a connection bound to its room.
	StateInRoom
	// StateClosed is a terminated room association.
	StateClosed
)

// Session is the per-connection state machine. The username is fixed by the
// handshake and the room is bound once, at join time. All methods are driven
// from the connection's read goroutine, so state needs no locking; the shared
// presence table and router synchronize internally.
type Session struct {
	hub    *Hub
	client *Client
	state  SessionState
	room   string
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Room returns the bound room code, or "" before a join.
func (s *Session) Room() string {
	return s.room
}

// NormalizeRoomCode canonicalizes a user-supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Join binds the session to a room: registers presence, replays recent
// history to this connection only, then announces the join and the fresh
// roster to the whole room. Storage is consulted before any state changes,
// so a failed join leaves the client outside the room.
func (s *Session) Join(ctx context.Context, roomCode string) {
	if s.state == StateInRoom {
		s.sendError(ErrCodeAlreadyJoined, "already in a room")
		return
	}
	if s.state != StateAuthenticated {
		s.sendError(ErrCodeBadRequest, "session is closed")
		return
	}

	roomCode = NormalizeRoomCode(roomCode)
	if roomCode == "" {
		s.sendError(ErrCodeBadRequest, "room is required")
		return
	}

	if _, err := s.hub.rooms.GetRoomByCode(ctx, roomCode); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendError(ErrCodeRoomNotFound, "room not found")
		} else {
			s.sendError(ErrCodeStorageFailed, "room lookup failed")
		}
		return
	}

	s.hub.presence.Join(roomCode, s.client.Name)
	s.hub.router.Join(roomCode, s.client)
	s.state = StateInRoom
	s.room = roomCode

	// History replay may block on storage; presence is already consistent and
	// the table lock is not held here.
	history, err := s.hub.messages.RecentMessages(ctx, roomCode, s.hub.cfg.HistoryLimit)
	if err != nil {
		s.sendError(ErrCodeStorageFailed, "history unavailable")
		history = nil
	}
	s.hub.router.SendToOne(s.client, &Event{
		Kind:     EventHistory,
		Room:     roomCode,
		Messages: messagesFromStore(history),
	})

	s.hub.router.Broadcast(roomCode, &Event{Kind: EventUserJoined, Room: roomCode, User: s.client.Name})
	s.hub.router.Broadcast(roomCode, &Event{
		Kind:  EventParticipants,
		Room:  roomCode,
		Users: s.hub.presence.Snapshot(roomCode),
	})
}

// SendMessage persists the message and, only then, broadcasts it to the room.
// A storage failure is reported to the sender alone; nothing is broadcast.
func (s *Session) SendMessage(ctx context.Context, text string) {
	if s.state != StateInRoom {
		s.sendError(ErrCodeNotInRoom, "join a room first")
		return
	}
	if strings.TrimSpace(text) == "" {
		s.sendError(ErrCodeBadRequest, "message text is required")
		return
	}

	stored, err := s.hub.messages.AppendMessage(ctx, s.room, s.client.Name, text)
	if err != nil {
		if s.hub.log != nil {
			s.hub.log.Error().Err(err).Str("room", s.room).Msg("append message")
		}
		s.sendError(ErrCodeStorageFailed, "message not delivered")
		return
	}

	s.hub.router.Broadcast(s.room, &Event{
		Kind:    EventRoomMessage,
		Room:    s.room,
		Message: messageFromStore(stored),
	})
}

// Leave is the explicit, user-initiated departure: the roster entry is
// removed immediately, the leaver gets an acknowledgement, and the remaining
// members see the departure and the updated roster.
func (s *Session) Leave() {
	if s.state != StateInRoom {
		s.sendError(ErrCodeNotInRoom, "not in a room")
		return
	}

	roomCode := s.room
	s.hub.presence.LeaveNow(roomCode, s.client.Name)
	s.hub.router.Leave(roomCode, s.client)
	s.state = StateClosed
	s.room = ""

	s.hub.router.SendToOne(s.client, &Event{Kind: EventRoomLeft, Room: roomCode})
	s.hub.router.Broadcast(roomCode, &Event{Kind: EventUserLeft, Room: roomCode, User: s.client.Name})
	s.hub.router.Broadcast(roomCode, &Event{
		Kind:  EventParticipants,
		Room:  roomCode,
		Users: s.hub.presence.Snapshot(roomCode),
	})
}

// Disconnect handles an abrupt connection loss. The user stays on the roster
// for the grace period; the departure broadcast is deferred to the presence
// table's eviction callback and suppressed entirely on a timely rejoin.
func (s *Session) Disconnect() {
	if s.state != StateInRoom {
		s.state = StateClosed
		return
	}

	roomCode := s.room
	s.hub.router.Leave(roomCode, s.client)
	s.hub.presence.ScheduleRemoval(roomCode, s.client.Name)
	s.state = StateClosed
	s.room = ""
}

// Participants sends the current roster of a room to this connection only.
// Unknown rooms yield an empty roster; asking before anyone joined is valid.
func (s *Session) Participants(roomCode string) {
	roomCode = NormalizeRoomCode(roomCode)
	if roomCode == "" {
		roomCode = s.room
	}
	if roomCode == "" {
		s.sendError(ErrCodeBadRequest, "room is required")
		return
	}

	s.hub.router.SendToOne(s.client, &Event{
		Kind:  EventParticipants,
		Room:  roomCode,
		Users: s.hub.presence.Snapshot(roomCode),
	})
}

func (s *Session) sendError(code, msg string) {
	s.hub.router.SendToOne(s.client, &Event{Kind: EventError, Error: coreError(code, msg)})
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Room:      m.RoomCode,
		From:      m.Sender,
		Text:      m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func messagesFromStore(stored []*store.Message) []Message {
	messages := make([]Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, messageFromStore(m))
	}
	return messages
}
