package http

import (
	"context"
	"encoding/json"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
)

// dispatchInbound decodes a client request and drives the session. Malformed
// JSON is a hard error (the connection is torn down); domain failures come
// back through the session's event channel.
func dispatchInbound(ctx context.Context, session *core.Session, inbound proto.Inbound) (*proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, err
		}
		if join.Room == "" {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		session.Join(ctx, join.Room)
		return nil, nil
	case proto.InboundTypeLeave:
		session.Leave()
		return nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, err
		}
		session.SendMessage(ctx, msg.Text)
		return nil, nil
	case proto.InboundTypeParticipants:
		var q proto.ParticipantsData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &q); err != nil {
				return nil, err
			}
		}
		session.Participants(q.Room)
		return nil, nil
	default:
		return &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message",
			Data:  wireMessage(event.Message),
		}
	case core.EventHistory:
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, wireMessage(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "history",
			Data: proto.EventHistory{
				Room:     event.Room,
				Messages: messages,
			},
		}
	case core.EventParticipants:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "participants",
			Data: proto.EventParticipants{
				Room:  event.Room,
				Users: event.Users,
			},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_joined",
			Data: proto.EventUserJoined{
				Room: event.Room,
				User: event.User,
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_left",
			Data: proto.EventUserLeft{
				Room: event.Room,
				User: event.User,
			},
		}
	case core.EventRoomLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "room_left",
			Data:  proto.EventRoomLeft{Room: event.Room},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func wireMessage(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:   msg.ID,
		Room: msg.Room,
		User: msg.From,
		Text: msg.Text,
		TS:   msg.CreatedAt.Unix(),
	}
}
