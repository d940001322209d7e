package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin         = "join"
	InboundTypeLeave        = "leave"
	InboundTypeMsg          = "msg"
	InboundTypeParticipants = "participants"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// JoinData requests to join a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client. The room is implicit: a session
// is bound to exactly one room after joining.
type MsgData struct {
	Text string `json:"text"`
}

// ParticipantsData asks for a room's roster; empty means the bound room.
type ParticipantsData struct {
	Room string `json:"room,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a single chat message as seen on the wire.
type EventMessage struct {
	ID   int64  `json:"id,omitempty"`
	Room string `json:"room,omitempty"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventHistory replays a room's recent messages to a newly joined client.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventParticipants carries a room's full roster.
type EventParticipants struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventRoomLeft acknowledges an explicit leave to the departing client.
type EventRoomLeft struct {
	Room string `json:"room"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
