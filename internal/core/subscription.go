package core

import (
	"sync"

	"github.com/vovakirdan/roomchat/internal/utils"
)

// Subscription is a live delivery channel registered for one room.
type Subscription struct {
	ID       string
	RoomID   string
	AuthorID string

	// events is never closed; done signals the end of the subscription so a
	// broadcaster holding a stale snapshot can never send on a closed channel.
	events chan Message
	done   chan struct{}
	once   sync.Once
	err    error
}

// newSubscription constructs a subscription with a buffered delivery channel.
func newSubscription(roomID, authorID string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 1
	}
	return &Subscription{
		ID:       utils.NewID(),
		RoomID:   roomID,
		AuthorID: authorID,
		events:   make(chan Message, buffer),
		done:     make(chan struct{}),
	}
}

// offer hands msg to the subscriber without blocking. It reports false when
// the buffer is full or the subscription has ended.
func (s *Subscription) offer(msg Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- msg:
		return true
	default:
		return false
	}
}

// end marks the subscription finished with reason. Only the first call has an effect.
func (s *Subscription) end(reason error) bool {
	ended := false
	s.once.Do(func() {
		s.err = reason
		close(s.done)
		ended = true
	})
	return ended
}

// Done is closed once the subscription has been removed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended. It is nil while the subscription is live.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
