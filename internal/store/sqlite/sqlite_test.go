package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/roomchat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndListRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rooms, err := s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected no rooms, got %d", len(rooms))
	}

	names := []string{"general", "random", "ops"}
	for _, name := range names {
		if _, err := s.CreateRoom(ctx, name); err != nil {
			t.Fatalf("failed to create room %s: %v", name, err)
		}
	}

	rooms, err = s.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != len(names) {
		t.Fatalf("expected %d rooms, got %d", len(names), len(rooms))
	}
	for i, room := range rooms {
		if room.Name != names[i] {
			t.Errorf("expected %s at index %d, got %s", names[i], i, room.Name)
		}
		if room.ID == "" {
			t.Errorf("room %s has empty id", room.Name)
		}
	}

	got, err := s.GetRoom(ctx, rooms[0].ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if got.Name != "general" {
		t.Errorf("expected general, got %s", got.Name)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRoom(context.Background(), "ghost")
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestAppendMessageUnknownRoomWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendMessage(ctx, "ghost", "bob", "hi", 100)
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no message rows, got %d", count)
	}
}

func TestReadHistoryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	other, err := s.CreateRoom(ctx, "other")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	// Equal timestamps must come back in insertion order.
	inserts := []struct {
		content string
		ts      int64
	}{
		{"first", 10},
		{"second", 10},
		{"third", 11},
		{"fourth", 11},
	}
	for _, in := range inserts {
		if _, err := s.AppendMessage(ctx, room.ID, "alice", in.content, in.ts); err != nil {
			t.Fatalf("append %s: %v", in.content, err)
		}
	}
	if _, err := s.AppendMessage(ctx, other.ID, "bob", "elsewhere", 10); err != nil {
		t.Fatalf("append other: %v", err)
	}

	history, err := s.ReadHistory(ctx, room.ID)
	if err != nil {
		t.Fatalf("ReadHistory failed: %v", err)
	}
	if len(history) != len(inserts) {
		t.Fatalf("expected %d messages, got %d", len(inserts), len(history))
	}
	for i, msg := range history {
		if msg.Content != inserts[i].content || msg.Timestamp != inserts[i].ts {
			t.Errorf("index %d: expected %s@%d, got %s@%d", i, inserts[i].content, inserts[i].ts, msg.Content, msg.Timestamp)
		}
		if msg.RoomID != room.ID || msg.AuthorID != "alice" {
			t.Errorf("index %d: unexpected message %+v", i, msg)
		}
		if i > 0 && msg.Seq <= history[i-1].Seq {
			t.Errorf("index %d: seq not increasing", i)
		}
	}

	last, err := s.LastTimestamp(ctx, room.ID)
	if err != nil {
		t.Fatalf("LastTimestamp failed: %v", err)
	}
	if last != 11 {
		t.Errorf("expected last timestamp 11, got %d", last)
	}

	empty, err := s.CreateRoom(ctx, "empty")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	last, err = s.LastTimestamp(ctx, empty.ID)
	if err != nil {
		t.Fatalf("LastTimestamp failed: %v", err)
	}
	if last != 0 {
		t.Errorf("expected 0 for empty room, got %d", last)
	}
}

func TestStorageErrorsAreClassified(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error { return nil })
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	// No schema: every statement fails at the database layer.
	_, err = s.CreateRoom(context.Background(), "general")
	if !errors.Is(err, store.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	room, err := s.CreateRoom(ctx, "general")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.AppendMessage(ctx, room.ID, "bob", "hi", 42); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	history, err := s.ReadHistory(ctx, room.ID)
	if err != nil {
		t.Fatalf("ReadHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hi" || history[0].Timestamp != 42 {
		t.Fatalf("unexpected history after reopen: %+v", history)
	}
}
