package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRoomNotFound is returned when a room id has no matching row.
	ErrRoomNotFound = errors.New("room not found")
	// ErrStorage marks a failure of the underlying database.
	ErrStorage = errors.New("storage error")
)

// Room represents a chat room.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID        string
	Seq       int64 // insertion order, breaks timestamp ties
	RoomID    string
	AuthorID  string
	Content   string
	Timestamp int64 // unix seconds
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room with a fresh id.
	CreateRoom(ctx context.Context, name string) (*Room, error)

	// GetRoom retrieves a room by ID.
	GetRoom(ctx context.Context, id string) (*Room, error)

	// ListRooms lists all rooms in creation order.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage durably stores a message. The room must exist.
	AppendMessage(ctx context.Context, roomID, authorID, content string, timestamp int64) (*Message, error)

	// ReadHistory returns every message of a room ordered by timestamp, then insertion order.
	ReadHistory(ctx context.Context, roomID string) ([]*Message, error)

	// LastTimestamp returns the newest stored timestamp for a room, or 0.
	LastTimestamp(ctx context.Context, roomID string) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Checkpoint flushes the write-ahead log into the main database file.
	Checkpoint(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
