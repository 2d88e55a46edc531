package core

import "github.com/puzpuzpuz/xsync/v3"

// DefaultSubscriberBuffer is the per-subscription channel capacity.
const DefaultSubscriberBuffer = 64

// Subscribers maps room ids to their live subscription sets.
// Each room carries its own lock, so unrelated rooms never contend.
type Subscribers struct {
	rooms  *xsync.MapOf[string, *room]
	buffer int
}

// NewSubscribers creates an empty registry whose subscriptions buffer up to buffer messages.
func NewSubscribers(buffer int) *Subscribers {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Subscribers{
		rooms:  xsync.NewMapOf[string, *room](),
		buffer: buffer,
	}
}

// room returns the entry for roomID, creating it on first use. Entries are
// never removed, so every caller for a room shares one sequencing lock.
func (s *Subscribers) room(roomID string) *room {
	r, _ := s.rooms.LoadOrCompute(roomID, func() *room {
		return newRoom(roomID)
	})
	return r
}

// Register adds a new subscription for roomID.
func (s *Subscribers) Register(roomID, authorID string) *Subscription {
	return s.register(s.room(roomID), authorID)
}

func (s *Subscribers) register(r *room, authorID string) *Subscription {
	sub := newSubscription(r.id, authorID, s.buffer)
	r.add(sub)
	return sub
}

// Unregister removes sub. Calling it for an already removed subscription is a no-op.
// It reports whether this call did the removal.
func (s *Subscribers) Unregister(sub *Subscription) bool {
	return s.drop(sub, ErrStreamClosed)
}

// drop removes sub from its room and ends it with reason, exactly once.
func (s *Subscribers) drop(sub *Subscription, reason error) bool {
	if sub == nil {
		return false
	}
	removed := false
	if r, ok := s.rooms.Load(sub.RoomID); ok {
		removed = r.remove(sub)
	}
	sub.end(reason)
	return removed
}

// Snapshot returns a copy of the subscriptions registered for roomID.
func (s *Subscribers) Snapshot(roomID string) []*Subscription {
	r, ok := s.rooms.Load(roomID)
	if !ok {
		return nil
	}
	return r.snapshot()
}

// Count returns the number of live subscriptions for roomID.
func (s *Subscribers) Count(roomID string) int {
	r, ok := s.rooms.Load(roomID)
	if !ok {
		return 0
	}
	return r.size()
}

// CloseAll ends every live subscription and returns how many were closed.
func (s *Subscribers) CloseAll() int {
	closed := 0
	s.rooms.Range(func(_ string, r *room) bool {
		for _, sub := range r.drain() {
			sub.end(ErrStreamClosed)
			closed++
		}
		return true
	})
	return closed
}
