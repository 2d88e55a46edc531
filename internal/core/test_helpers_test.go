package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/roomchat/internal/store/sqlite"
)

func newTestHub(tb testing.TB, opts ...Option) (*Engine, *sqlite.SQLiteStore) {
	tb.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(tb, err, "create store")
	tb.Cleanup(func() { _ = st.Close() })

	return NewHub(st, nil, opts...), st
}

func mustRoom(t *testing.T, hub Hub, name string) Room {
	t.Helper()

	room, err := hub.CreateRoom(context.Background(), name)
	require.NoError(t, err, "create room %s", name)
	return room
}

func mustJoin(t *testing.T, hub Hub, roomID, author string) *Stream {
	t.Helper()

	s, err := hub.Join(context.Background(), roomID, author)
	require.NoError(t, err, "join %s as %s", roomID, author)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustEvent(t *testing.T, s *Stream, kind EventKind) Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ev, err := s.Next(ctx)
	require.NoError(t, err, "expected event kind %v", kind)
	require.Equal(t, kind, ev.Kind, "unexpected event %+v", ev)
	return ev
}

// pending reports how many live messages are buffered for the stream.
func pending(s *Stream) int {
	return len(s.sub.events)
}

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(ts, 0) }
}
