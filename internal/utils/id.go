package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewConnID returns a unique identifier for a websocket connection.
func NewConnID() string {
	return uuid.NewString()
}

// NewRoomCode mints a short, shareable room code. Codes are upper-cased so
// lookups stay case-insensitive for users typing them by hand.
func NewRoomCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}
