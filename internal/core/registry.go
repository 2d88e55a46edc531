package core

import (
	"context"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/vovakirdan/roomchat/internal/store"
)

// Rooms answers room existence questions from the store.
// Known rooms are cached; a miss always goes back to the store, so a room
// created a moment ago is never reported as missing.
type Rooms struct {
	store store.RoomStore
	known *xsync.MapOf[string, Room]
}

// NewRooms creates a registry backed by st.
func NewRooms(st store.RoomStore) *Rooms {
	return &Rooms{
		store: st,
		known: xsync.NewMapOf[string, Room](),
	}
}

// Create validates name and persists a new room.
func (r *Rooms) Create(ctx context.Context, name string) (Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Room{}, invalidArgument("room name is required")
	}

	created, err := r.store.CreateRoom(ctx, name)
	if err != nil {
		return Room{}, fromStore("", err)
	}

	room := roomFromStore(created)
	r.known.Store(room.ID, room)
	return room, nil
}

// Get returns the room with the given id.
func (r *Rooms) Get(ctx context.Context, roomID string) (Room, error) {
	if roomID == "" {
		return Room{}, invalidArgument("room id is required")
	}
	if room, ok := r.known.Load(roomID); ok {
		return room, nil
	}

	found, err := r.store.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, fromStore(roomID, err)
	}

	room := roomFromStore(found)
	r.known.Store(room.ID, room)
	return room, nil
}

// Exists reports whether roomID names a committed room.
func (r *Rooms) Exists(ctx context.Context, roomID string) (bool, error) {
	_, err := r.Get(ctx, roomID)
	switch {
	case err == nil:
		return true, nil
	case Code(err) == ErrCodeRoomNotFound:
		return false, nil
	default:
		return false, err
	}
}

// List returns every room in creation order.
func (r *Rooms) List(ctx context.Context) ([]Room, error) {
	stored, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, fromStore("", err)
	}

	rooms := make([]Room, 0, len(stored))
	for _, s := range stored {
		room := roomFromStore(s)
		r.known.Store(room.ID, room)
		rooms = append(rooms, room)
	}
	return rooms, nil
}
