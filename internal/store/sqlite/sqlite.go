package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/roomchat/internal/store"
	"github.com/vovakirdan/roomchat/internal/utils"
)

//go:embed schema.sql
var schema string

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers, which makes every append its own
	// atomic unit and keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrStorage, err)
}

// ==== RoomStore implementation ====

// CreateRoom creates a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string) (*store.Room, error) {
	room := &store.Room{
		ID:        utils.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO rooms (id, name, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, room.ID, room.Name, room.CreatedAt); err != nil {
		return nil, storageErr("insert room", err)
	}

	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*store.Room, error) {
	query := `
		SELECT id, name, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(&room.ID, &room.Name, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", id, store.ErrRoomNotFound)
		}
		return nil, storageErr("query room", err)
	}

	return &room, nil
}

// ListRooms lists all rooms in creation order.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, name, created_at
		FROM rooms
		ORDER BY created_at, rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("query rooms", err)
	}
	defer rows.Close()

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, storageErr("scan room", err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate rooms", err)
	}

	return rooms, nil
}

// ==== MessageStore implementation ====

// AppendMessage checks the room and inserts the message in one transaction.
// The message is durable once this returns without error.
func (s *SQLiteStore) AppendMessage(ctx context.Context, roomID, authorID, content string, timestamp int64) (*store.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, roomID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", roomID, store.ErrRoomNotFound)
		}
		return nil, storageErr("check room", err)
	}

	msg := &store.Message{
		ID:        utils.NewID(),
		RoomID:    roomID,
		AuthorID:  authorID,
		Content:   content,
		Timestamp: timestamp,
	}

	query := `
		INSERT INTO messages (id, room_id, author_id, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, msg.ID, msg.RoomID, msg.AuthorID, msg.Content, msg.Timestamp)
	if err != nil {
		return nil, storageErr("insert message", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("get last insert id", err)
	}
	msg.Seq = seq

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit message", err)
	}

	return msg, nil
}

// ReadHistory returns all messages of a room in timestamp, then insertion order.
func (s *SQLiteStore) ReadHistory(ctx context.Context, roomID string) ([]*store.Message, error) {
	query := `
		SELECT seq, id, room_id, author_id, content, timestamp
		FROM messages
		WHERE room_id = ?
		ORDER BY timestamp, seq
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storageErr("query messages", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.RoomID, &msg.AuthorID, &msg.Content, &msg.Timestamp); err != nil {
			return nil, storageErr("scan message", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate messages", err)
	}

	return messages, nil
}

// LastTimestamp returns the newest stored timestamp for a room, or 0 when it has no messages.
func (s *SQLiteStore) LastTimestamp(ctx context.Context, roomID string) (int64, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM messages WHERE room_id = ?`, roomID).Scan(&ts)
	if err != nil {
		return 0, storageErr("query last timestamp", err)
	}
	return ts.Int64, nil
}

// Checkpoint truncates the write-ahead log.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return storageErr("wal checkpoint", err)
	}
	return nil
}
