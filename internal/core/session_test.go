package core

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestSessionJoinDeliversHistoryThenRoster(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")
	aliceSess.SendMessage(ctx, "hi")

	// Drain alice's own join announcements so the next ones are bob's.
	mustEvent(t, alice.Events, EventUserJoined)
	mustEvent(t, alice.Events, EventParticipants)

	bob := NewClient("conn-b", "bob")
	bobSess := hub.NewSession(bob)
	bobSess.Join(ctx, "abc123") // case-insensitive code

	// Bob gets history first, addressed to him alone.
	histEv := mustEvent(t, bob.Events, EventHistory)
	if len(histEv.Messages) != 1 || histEv.Messages[0].Text != "hi" || histEv.Messages[0].From != "alice" {
		t.Fatalf("unexpected history: %+v", histEv.Messages)
	}

	// Then his own join announcement and the fresh roster.
	joinEv := mustEvent(t, bob.Events, EventUserJoined)
	if joinEv.User != "bob" || joinEv.Room != "ABC123" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}
	partEv := mustEvent(t, bob.Events, EventParticipants)
	if !reflect.DeepEqual(partEv.Users, []string{"alice", "bob"}) {
		t.Fatalf("unexpected roster: %v", partEv.Users)
	}

	// Alice sees the same join and roster.
	if ev := mustEvent(t, alice.Events, EventUserJoined); ev.User != "bob" {
		t.Fatalf("unexpected join event for alice: %+v", ev)
	}
	if ev := mustEvent(t, alice.Events, EventParticipants); !reflect.DeepEqual(ev.Users, []string{"alice", "bob"}) {
		t.Fatalf("unexpected roster for alice: %v", ev.Users)
	}
}

func TestSessionJoinUnknownRoom(t *testing.T) {
	st := newFakeStore()
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	sess := hub.NewSession(alice)
	sess.Join(context.Background(), "NOPE42")

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found, got %+v", ev)
	}
	if sess.State() != StateAuthenticated {
		t.Fatalf("failed join must leave the session outside the room")
	}
}

func TestSessionDoubleJoinRejected(t *testing.T) {
	st := newFakeStore("ABC123", "XYZ789")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	sess := hub.NewSession(alice)
	sess.Join(context.Background(), "ABC123")
	sess.Join(context.Background(), "XYZ789")

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined, got %+v", ev)
	}
	if sess.Room() != "ABC123" {
		t.Fatalf("session rebound to %q", sess.Room())
	}
}

func TestSessionSendBeforeJoinFails(t *testing.T) {
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	sess := hub.NewSession(alice)
	sess.SendMessage(context.Background(), "hi")

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room, got %+v", ev)
	}
	if st.messageCount("ABC123") != 0 {
		t.Fatal("message must not be persisted")
	}
}

func TestSessionSendPersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	bob := NewClient("conn-b", "bob")
	hub.NewSession(bob).Join(ctx, "ABC123")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")

	aliceSess.SendMessage(ctx, "hello there")

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventRoomMessage)
		if ev.Message.From != "alice" || ev.Message.Text != "hello there" || ev.Message.Room != "ABC123" {
			t.Fatalf("unexpected message for %s: %+v", c.Name, ev.Message)
		}
		if ev.Message.ID == 0 || ev.Message.CreatedAt.IsZero() {
			t.Fatalf("message missing store-assigned fields: %+v", ev.Message)
		}
	}
	if st.messageCount("ABC123") != 1 {
		t.Fatalf("expected 1 persisted message, got %d", st.messageCount("ABC123"))
	}
}

func TestSessionStorageFailureNoBroadcast(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	bob := NewClient("conn-b", "bob")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")
	hub.NewSession(bob).Join(ctx, "ABC123")

	st.setFailAppend(true)
	aliceSess.SendMessage(ctx, "lost")

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeStorageFailed {
		t.Fatalf("expected storage_failed, got %+v", ev)
	}
	mustNoEvent(t, bob.Events, EventRoomMessage, 50*time.Millisecond)
	if st.messageCount("ABC123") != 0 {
		t.Fatal("failed append must not persist")
	}
}

func TestSessionExplicitLeave(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Hour) // grace must not matter here

	alice := NewClient("conn-a", "alice")
	bob := NewClient("conn-b", "bob")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")
	hub.NewSession(bob).Join(ctx, "ABC123")

	aliceSess.Leave()

	if ev := mustEvent(t, alice.Events, EventRoomLeft); ev.Room != "ABC123" {
		t.Fatalf("unexpected ack: %+v", ev)
	}
	if ev := mustEvent(t, bob.Events, EventUserLeft); ev.User != "alice" {
		t.Fatalf("unexpected user_left: %+v", ev)
	}

	// No grace period: the roster reflects the removal immediately.
	if roster := hub.Snapshot("ABC123"); !reflect.DeepEqual(roster, []string{"bob"}) {
		t.Fatalf("unexpected roster: %v", roster)
	}
	if aliceSess.State() != StateClosed {
		t.Fatal("leave must close the session")
	}

	// The session is bound to one room for its lifetime; no second join.
	aliceSess.Join(ctx, "ABC123")
	if ev := mustEvent(t, alice.Events, EventError); ev.Error.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request after leave, got %+v", ev)
	}
}

func TestSessionDisconnectDefersUserLeft(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, 100*time.Millisecond)

	alice := NewClient("conn-a", "alice")
	bob := NewClient("conn-b", "bob")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")
	hub.NewSession(bob).Join(ctx, "ABC123")

	aliceSess.Disconnect()

	// Within the grace window the roster still lists alice and nothing is
	// broadcast.
	mustNoEvent(t, bob.Events, EventUserLeft, 40*time.Millisecond)
	if roster := hub.Snapshot("ABC123"); !reflect.DeepEqual(roster, []string{"alice", "bob"}) {
		t.Fatalf("roster flickered during grace: %v", roster)
	}

	// After it expires, exactly one user_left and one roster update.
	if ev := mustEvent(t, bob.Events, EventUserLeft); ev.User != "alice" {
		t.Fatalf("unexpected user_left: %+v", ev)
	}
	if ev := mustEvent(t, bob.Events, EventParticipants); !reflect.DeepEqual(ev.Users, []string{"bob"}) {
		t.Fatalf("unexpected roster: %v", ev.Users)
	}
	mustNoEvent(t, bob.Events, EventUserLeft, 150*time.Millisecond)
}

func TestSessionReconnectWithinGraceSuppressesUserLeft(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, 150*time.Millisecond)

	alice := NewClient("conn-a1", "alice")
	bob := NewClient("conn-b", "bob")
	aliceSess := hub.NewSession(alice)
	aliceSess.Join(ctx, "ABC123")
	hub.NewSession(bob).Join(ctx, "ABC123")

	aliceSess.Disconnect()

	// Reconnect on a fresh connection, same username, inside the window.
	alice2 := NewClient("conn-a2", "alice")
	hub.NewSession(alice2).Join(ctx, "ABC123")

	// Well past the original grace deadline: no user_left, roster intact.
	mustNoEvent(t, bob.Events, EventUserLeft, 300*time.Millisecond)
	if roster := hub.Snapshot("ABC123"); !reflect.DeepEqual(roster, []string{"alice", "bob"}) {
		t.Fatalf("unexpected roster: %v", roster)
	}
}

func TestSessionParticipantsQuery(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore("ABC123")
	hub := newTestHub(st, time.Second)

	alice := NewClient("conn-a", "alice")
	sess := hub.NewSession(alice)

	// Querying a room nobody joined is valid and yields an empty roster.
	sess.Participants("EMPTY9")
	if ev := mustEvent(t, alice.Events, EventParticipants); len(ev.Users) != 0 {
		t.Fatalf("expected empty roster, got %v", ev.Users)
	}

	sess.Join(ctx, "ABC123")
	sess.Participants("") // defaults to the bound room
	found := false
	for !found {
		ev := mustEvent(t, alice.Events, EventParticipants)
		if ev.Room == "ABC123" && reflect.DeepEqual(ev.Users, []string{"alice"}) {
			found = true
		}
	}
}
