// Command ws_chat is a small interactive client for manual testing: it joins
// a room and relays stdin lines as chat messages.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/roomchat/roomchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT token (from /api/login or /api/guest)")
	room := flag.String("room", "", "room code to join")
	flag.Parse()

	if *token == "" || *room == "" {
		return errors.New("both -token and -room are required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+*token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{Room: *room})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	fmt.Printf("Connected to %s, room %s\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		payload, err := json.Marshal(proto.MsgData{Text: text})
		if err != nil {
			log.Printf("marshal msg: %v", err)
			continue
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMsg, Data: payload}); err != nil {
			log.Printf("send: %v", err)
			break
		}
	}

	cancel()
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if ctx.Err() == nil {
				log.Printf("read: %v", err)
			}
			return
		}

		switch {
		case outbound.Type == proto.OutboundTypeError && outbound.Error != nil:
			fmt.Printf("! error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
		case outbound.Event == "message":
			var msg proto.EventMessage
			if json.Unmarshal(outbound.Data, &msg) == nil {
				fmt.Printf("[%s] %s\n", msg.User, msg.Text)
			}
		case outbound.Event == "history":
			var hist proto.EventHistory
			if json.Unmarshal(outbound.Data, &hist) == nil {
				for _, msg := range hist.Messages {
					fmt.Printf("[%s] %s\n", msg.User, msg.Text)
				}
			}
		case outbound.Event == "participants":
			var part proto.EventParticipants
			if json.Unmarshal(outbound.Data, &part) == nil {
				fmt.Printf("* online: %s\n", strings.Join(part.Users, ", "))
			}
		case outbound.Event == "user_joined":
			var ev proto.EventUserJoined
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("* %s joined\n", ev.User)
			}
		case outbound.Event == "user_left":
			var ev proto.EventUserLeft
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("* %s left\n", ev.User)
			}
		}
	}
}
