package core

import "sync"

// room holds the live state of one room: its subscribers and its write order.
type room struct {
	id string

	// seq orders writes within the room. Send holds it across commit and
	// fan-out; Join holds it across register and history read.
	seq     sync.Mutex
	lastTS  int64
	clockOK bool

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// newRoom constructs a room with no subscribers.
func newRoom(id string) *room {
	return &room{
		id:   id,
		subs: make(map[*Subscription]struct{}),
	}
}

// add inserts a subscription into the room. Returns true if newly added.
func (r *room) add(sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub]; exists {
		return false
	}
	r.subs[sub] = struct{}{}
	return true
}

// remove deletes a subscription from the room. Returns true if removed.
func (r *room) remove(sub *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub]; !exists {
		return false
	}
	delete(r.subs, sub)
	return true
}

// snapshot copies the current subscriber set.
func (r *room) snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		out = append(out, sub)
	}
	return out
}

// drain removes every subscriber and returns them.
func (r *room) drain() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Subscription, 0, len(r.subs))
	for sub := range r.subs {
		out = append(out, sub)
		delete(r.subs, sub)
	}
	return out
}

// size returns the number of live subscribers.
func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// nextTimestamp returns now, raised to the last issued timestamp if the wall
// clock went backwards. Caller must hold seq.
func (r *room) nextTimestamp(now int64) int64 {
	if now < r.lastTS {
		return r.lastTS
	}
	return now
}
