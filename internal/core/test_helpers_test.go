package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/roomchat/roomchat-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts that no event of the given kind arrives within window.
// Other kinds are drained and ignored.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, window time.Duration) {
	t.Helper()

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// fakeStore is an in-memory store.RoomStore + store.MessageStore with a
// switchable append failure.
type fakeStore struct {
	mu         sync.Mutex
	rooms      map[string]struct{}
	messages   map[string][]*store.Message
	nextID     int64
	failAppend bool
}

func newFakeStore(roomCodes ...string) *fakeStore {
	f := &fakeStore{
		rooms:    make(map[string]struct{}),
		messages: make(map[string][]*store.Message),
	}
	for _, code := range roomCodes {
		f.rooms[code] = struct{}{}
	}
	return f
}

func (f *fakeStore) CreateRoom(_ context.Context, code, _ string) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[code] = struct{}{}
	return &store.Room{Code: code}, nil
}

func (f *fakeStore) GetRoomByCode(_ context.Context, code string) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[code]; !ok {
		return nil, store.ErrNotFound
	}
	return &store.Room{Code: code}, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, roomCode, sender, content string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return nil, errors.New("store unavailable")
	}
	f.nextID++
	msg := &store.Message{
		ID:        f.nextID,
		RoomCode:  roomCode,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[roomCode] = append(f.messages[roomCode], msg)
	return msg, nil
}

func (f *fakeStore) RecentMessages(_ context.Context, roomCode string, limit int) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.messages[roomCode]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]*store.Message, len(all))
	copy(out, all)
	return out, nil
}

func (f *fakeStore) messageCount(roomCode string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[roomCode])
}

func (f *fakeStore) setFailAppend(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAppend = fail
}

func newTestHub(st *fakeStore, grace time.Duration) *Hub {
	return NewHub(st, st, HubConfig{PresenceGrace: grace, HistoryLimit: 50}, nil)
}
