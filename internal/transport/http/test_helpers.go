package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/auth"
	"github.com/roomchat/roomchat-server/internal/config"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/store"
	"github.com/roomchat/roomchat-server/internal/store/sqlite"
)

var testJWTConfig = &auth.JWTConfig{
	Secret:   []byte("test-secret-change-me"),
	Issuer:   "test",
	Audience: "test",
	TTL:      24 * time.Hour,
}

// createTestStore creates an in-memory SQLite store.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// startTestServer spins up the full HTTP surface over an in-memory store and
// returns the test server plus the backing store.
func startTestServer(t *testing.T, grace time.Duration) (*httptest.Server, store.Store) {
	t.Helper()

	st := createTestStore(t)
	authService := auth.NewService(st, testJWTConfig)
	hub := core.NewHub(st, st, core.HubConfig{PresenceGrace: grace, HistoryLimit: 50}, nil)

	server := NewServer(hub, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, testLogger())

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// mintToken issues a token directly, bypassing the register endpoint.
func mintToken(t *testing.T, username string) string {
	t.Helper()

	token, err := auth.GenerateToken(testJWTConfig, username, false)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}
