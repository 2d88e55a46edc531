package core

import (
	"context"
	"iter"
	"sync"
)

// Stream is the consumer side of a join: replayed history, one
// EventReplayDone marker, then live messages until the stream ends.
// Next must not be called concurrently; Close may be called from any goroutine.
type Stream struct {
	sub     *Subscription
	history []Message
	pos     int
	marked  bool

	leave     func(*Subscription)
	closeOnce sync.Once
}

func newStream(sub *Subscription, history []Message, leave func(*Subscription)) *Stream {
	return &Stream{
		sub:     sub,
		history: history,
		leave:   leave,
	}
}

// ID returns the subscription id backing the stream.
func (s *Stream) ID() string { return s.sub.ID }

// Room returns the room id the stream is attached to.
func (s *Stream) Room() string { return s.sub.RoomID }

// Next blocks until the next event is available. It returns ctx.Err() on
// cancellation, ErrStreamClosed after Close or shutdown, and
// ErrSubscriberUnavailable if the stream fell too far behind and was dropped.
// Any non-nil error is final and the subscription is already released.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		s.Close()
		return Event{}, err
	}

	if s.pos < len(s.history) {
		msg := s.history[s.pos]
		s.pos++
		if s.pos == len(s.history) {
			s.history = nil
			s.pos = 0
		}
		return Event{Kind: EventHistory, Room: s.sub.RoomID, Message: msg}, nil
	}
	if !s.marked {
		s.marked = true
		return Event{Kind: EventReplayDone, Room: s.sub.RoomID}, nil
	}

	select {
	case msg := <-s.sub.events:
		return s.live(msg), nil
	case <-s.sub.done:
		// Hand out whatever was buffered before the subscription ended.
		select {
		case msg := <-s.sub.events:
			return s.live(msg), nil
		default:
		}
		s.Close()
		return Event{}, s.sub.Err()
	case <-ctx.Done():
		s.Close()
		return Event{}, ctx.Err()
	}
}

func (s *Stream) live(msg Message) Event {
	return Event{Kind: EventRoomMessage, Room: s.sub.RoomID, Message: msg}
}

// All ranges over the stream until it ends or the loop breaks. The final
// error, if any, is yielded once with a zero Event. The stream is closed on return.
func (s *Stream) All(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next(ctx)
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Close releases the subscription. It is idempotent.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		if s.leave != nil {
			s.leave(s.sub)
		}
		s.sub.end(ErrStreamClosed)
	})
	return nil
}
