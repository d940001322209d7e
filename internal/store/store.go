package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered or guest account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	CreatedAt    time.Time
}

// Room is a durable room-code record. Presence is in-memory only; this row
// exists so codes can be minted once and looked up on join.
type Room struct {
	ID        int64
	Code      string
	CreatedBy string
	CreatedAt time.Time
}

// Message represents a persisted chat message. Immutable once created;
// CreatedAt is assigned by the store at append time.
type Message struct {
	ID        int64
	RoomCode  string
	Sender    string
	Content   string
	CreatedAt time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest account.
	CreateGuestUser(ctx context.Context, username string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// RoomStore handles room-code persistence.
type RoomStore interface {
	// CreateRoom records a freshly minted room code.
	CreateRoom(ctx context.Context, code, createdBy string) (*Room, error)

	// GetRoomByCode retrieves a room by its code. Returns ErrNotFound if the
	// code was never minted.
	GetRoomByCode(ctx context.Context, code string) (*Room, error)
}

// MessageStore is the append-only message log.
type MessageStore interface {
	// AppendMessage persists a message and returns it with its assigned
	// ID and timestamp.
	AppendMessage(ctx context.Context, roomCode, sender, content string) (*Message, error)

	// RecentMessages returns up to limit messages for a room in ascending
	// timestamp order. A room with no history yields an empty slice.
	RecentMessages(ctx context.Context, roomCode string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
