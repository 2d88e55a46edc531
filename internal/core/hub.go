package core

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/store"
)

// Hub is the chat core as seen by transports.
type Hub interface {
	// Run blocks until ctx is done, then ends every live stream.
	Run(ctx context.Context)

	CreateRoom(ctx context.Context, name string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)

	// History returns a point-in-time snapshot of a room's messages.
	History(ctx context.Context, roomID string) ([]Message, error)

	// Send persists a message and fans it out to the room's subscribers.
	Send(ctx context.Context, roomID, authorID, content string) (Message, error)

	// Join subscribes to a room: stored history first, then live messages.
	Join(ctx context.Context, roomID, authorID string) (*Stream, error)

	// Subscribers returns the number of live subscriptions in a room.
	Subscribers(roomID string) int
}

// Option configures an Engine.
type Option func(*Engine)

// WithBufferSize sets the per-subscription channel capacity.
func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.subs = NewSubscribers(n)
		}
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine implements Hub on top of a durable store.
type Engine struct {
	store  store.MessageStore
	rooms  *Rooms
	subs   *Subscribers
	now    func() time.Time
	log    *zerolog.Logger
	closed atomic.Bool
}

var _ Hub = (*Engine)(nil)

// NewHub creates a new chat hub instance.
func NewHub(st store.Store, logger *zerolog.Logger, opts ...Option) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	e := &Engine{
		store: st,
		rooms: NewRooms(st),
		subs:  NewSubscribers(DefaultSubscriberBuffer),
		now:   time.Now,
		log:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run blocks until ctx is cancelled and then shuts every stream down.
func (e *Engine) Run(ctx context.Context) {
	<-ctx.Done()
	n := e.Shutdown()
	e.log.Info().Int("subscriptions", n).Msg("hub stopped")
}

// Shutdown ends all live streams and rejects new joins.
func (e *Engine) Shutdown() int {
	e.closed.Store(true)
	return e.subs.CloseAll()
}

// CreateRoom validates and persists a new room.
func (e *Engine) CreateRoom(ctx context.Context, name string) (Room, error) {
	room, err := e.rooms.Create(ctx, name)
	if err != nil {
		return Room{}, err
	}
	e.log.Info().Str("room_id", room.ID).Str("room_name", room.Name).Msg("room created")
	return room, nil
}

// ListRooms returns every room.
func (e *Engine) ListRooms(ctx context.Context) ([]Room, error) {
	return e.rooms.List(ctx)
}

// History returns the stored messages of a room ordered by timestamp.
func (e *Engine) History(ctx context.Context, roomID string) ([]Message, error) {
	if _, err := e.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}

	stored, err := e.store.ReadHistory(ctx, roomID)
	if err != nil {
		return nil, fromStore(roomID, err)
	}
	return toMessages(stored), nil
}

// Send appends a message and delivers it to every subscriber of the room.
// Commit and fan-out happen under the room's sequencing lock, so all
// subscribers observe the room's commit order. A subscriber whose buffer is
// full is dropped; it never delays the sender or the other subscribers.
func (e *Engine) Send(ctx context.Context, roomID, authorID, content string) (Message, error) {
	if strings.TrimSpace(authorID) == "" {
		return Message{}, invalidArgument("author id is required")
	}
	if _, err := e.rooms.Get(ctx, roomID); err != nil {
		return Message{}, err
	}

	r := e.subs.room(roomID)
	r.seq.Lock()
	defer r.seq.Unlock()

	if !r.clockOK {
		last, err := e.store.LastTimestamp(ctx, roomID)
		if err != nil {
			return Message{}, fromStore(roomID, err)
		}
		r.lastTS = last
		r.clockOK = true
	}

	ts := r.nextTimestamp(e.now().Unix())
	stored, err := e.store.AppendMessage(ctx, roomID, authorID, content, ts)
	if err != nil {
		e.log.Error().Err(err).Str("room_id", roomID).Str("author_id", authorID).Msg("append message failed")
		return Message{}, fromStore(roomID, err)
	}
	r.lastTS = ts

	msg := messageFromStore(stored)
	e.broadcast(r, msg)
	return msg, nil
}

// broadcast delivers msg to a snapshot of the room's subscribers. Caller must hold r.seq.
func (e *Engine) broadcast(r *room, msg Message) {
	subs := r.snapshot()
	delivered := 0
	for _, sub := range subs {
		if sub.offer(msg) {
			delivered++
			continue
		}
		if e.subs.drop(sub, ErrSubscriberUnavailable) {
			e.log.Warn().
				Str("room_id", r.id).
				Str("subscription_id", sub.ID).
				Str("author_id", sub.AuthorID).
				Msg("subscriber dropped: delivery buffer full")
		}
	}
	e.log.Debug().
		Str("room_id", r.id).
		Str("message_id", msg.ID).
		Int("subscribers", len(subs)).
		Int("delivered", delivered).
		Msg("message broadcast")
}

// Join registers a subscription and snapshots history under the room's
// sequencing lock. Every message committed before registration is in the
// snapshot and every later one lands in the subscription channel, so the
// replay-to-live seam has no gap and no duplicate.
func (e *Engine) Join(ctx context.Context, roomID, authorID string) (*Stream, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, invalidArgument("author id is required")
	}
	if e.closed.Load() {
		return nil, coreError(ErrCodeStreamClosed, ErrStreamClosed, "server is shutting down")
	}
	if _, err := e.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}

	r := e.subs.room(roomID)
	r.seq.Lock()
	sub := e.subs.register(r, authorID)
	stored, err := e.store.ReadHistory(ctx, roomID)
	r.seq.Unlock()

	if err != nil {
		e.subs.Unregister(sub)
		return nil, fromStore(roomID, err)
	}
	// Shutdown may have drained the room before sub was added.
	if e.closed.Load() {
		e.subs.Unregister(sub)
		return nil, coreError(ErrCodeStreamClosed, ErrStreamClosed, "server is shutting down")
	}

	e.log.Info().
		Str("room_id", roomID).
		Str("author_id", authorID).
		Str("subscription_id", sub.ID).
		Int("history", len(stored)).
		Msg("subscriber joined")

	return newStream(sub, toMessages(stored), e.leave), nil
}

// leave unregisters a subscription when its stream closes.
func (e *Engine) leave(sub *Subscription) {
	if e.subs.Unregister(sub) {
		e.log.Info().
			Str("room_id", sub.RoomID).
			Str("author_id", sub.AuthorID).
			Str("subscription_id", sub.ID).
			Msg("subscriber left")
	}
}

// Subscribers returns the number of live subscriptions in a room.
func (e *Engine) Subscribers(roomID string) int {
	return e.subs.Count(roomID)
}

func toMessages(stored []*store.Message) []Message {
	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, messageFromStore(m))
	}
	return out
}
