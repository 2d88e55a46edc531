package core

import (
	"time"

	"github.com/vovakirdan/roomchat/internal/store"
)

// Room is a named, independently ordered message stream.
type Room struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Message is the domain model for a chat message.
type Message struct {
	ID        string
	Seq       int64
	RoomID    string
	AuthorID  string
	Content   string
	Timestamp int64
}

func roomFromStore(r *store.Room) Room {
	return Room{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Seq:       m.Seq,
		RoomID:    m.RoomID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}
