package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roomchat/roomchat-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL UNIQUE,
	created_by TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_code  TEXT NOT NULL,
	sender     TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_code, created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and ensures the schema exists.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByUsername(ctx, username)
}

// CreateGuestUser creates a temporary guest account with no password.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, username string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, '', 1)
	`
	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	return s.GetUserByUsername(ctx, username)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, created_at
		FROM users
		WHERE username = ?
	`
	var u store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.IsGuest, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// ==== RoomStore implementation ====

// CreateRoom records a freshly minted room code.
func (s *SQLiteStore) CreateRoom(ctx context.Context, code, createdBy string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (code, created_by)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, code, createdBy); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	return s.GetRoomByCode(ctx, code)
}

// GetRoomByCode retrieves a room by its code.
func (s *SQLiteStore) GetRoomByCode(ctx context.Context, code string) (*store.Room, error) {
	query := `
		SELECT id, code, created_by, created_at
		FROM rooms
		WHERE code = ?
	`
	var r store.Room
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&r.ID, &r.Code, &r.CreatedBy, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	return &r, nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message with a store-assigned timestamp.
func (s *SQLiteStore) AppendMessage(ctx context.Context, roomCode, sender, content string) (*store.Message, error) {
	createdAt := time.Now().UTC()

	query := `
		INSERT INTO messages (room_code, sender, content, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomCode, sender, content, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Message{
		ID:        id,
		RoomCode:  roomCode,
		Sender:    sender,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// RecentMessages returns up to limit messages for a room, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, roomCode string, limit int) ([]*store.Message, error) {
	// Take the newest rows, then flip them so the caller replays history in
	// chronological order.
	query := `
		SELECT id, room_code, sender, content, created_at
		FROM (
			SELECT id, room_code, sender, content, created_at
			FROM messages
			WHERE room_code = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomCode, limit)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
