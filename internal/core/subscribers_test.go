package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribersRegisterAndUnregister(t *testing.T) {
	reg := NewSubscribers(4)

	a := reg.Register("r1", "alice")
	b := reg.Register("r1", "bob")
	c := reg.Register("r2", "carol")

	require.Equal(t, 2, reg.Count("r1"))
	require.Equal(t, 1, reg.Count("r2"))

	require.True(t, reg.Unregister(a), "first unregister should remove")
	require.False(t, reg.Unregister(a), "second unregister should be a no-op")
	require.ErrorIs(t, a.Err(), ErrStreamClosed)

	require.Equal(t, []*Subscription{b}, reg.Snapshot("r1"))
	require.NoError(t, c.Err())
}

func TestSubscribersSnapshotIsACopy(t *testing.T) {
	reg := NewSubscribers(4)
	a := reg.Register("r1", "alice")

	snap := reg.Snapshot("r1")
	reg.Unregister(a)
	reg.Register("r1", "bob")

	require.Equal(t, []*Subscription{a}, snap)
}

func TestSubscriptionOfferNeverBlocks(t *testing.T) {
	sub := newSubscription("r1", "alice", 1)

	require.True(t, sub.offer(Message{Content: "one"}), "first offer should fit the buffer")
	require.False(t, sub.offer(Message{Content: "two"}), "offer into a full buffer should fail")

	<-sub.events
	sub.end(ErrStreamClosed)
	require.False(t, sub.offer(Message{Content: "three"}), "offer after end should fail")
}

func TestSubscribersDropEndsOnce(t *testing.T) {
	reg := NewSubscribers(1)
	sub := reg.Register("r1", "alice")

	var wg sync.WaitGroup
	removed := make(chan bool, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed <- reg.drop(sub, ErrSubscriberUnavailable)
		}()
	}
	wg.Wait()
	close(removed)

	count := 0
	for r := range removed {
		if r {
			count++
		}
	}
	require.Equal(t, 1, count, "expected exactly one removal")
	require.ErrorIs(t, sub.Err(), ErrSubscriberUnavailable)
	require.False(t, reg.Unregister(sub), "unregister after drop should be a no-op")
}

func TestSubscribersCloseAll(t *testing.T) {
	reg := NewSubscribers(1)
	subs := []*Subscription{
		reg.Register("r1", "a"),
		reg.Register("r1", "b"),
		reg.Register("r2", "c"),
	}

	require.Equal(t, len(subs), reg.CloseAll())
	for _, sub := range subs {
		select {
		case <-sub.Done():
		default:
			t.Fatalf("subscription %s still live", sub.ID)
		}
	}
	require.Zero(t, reg.Count("r1"))
	require.Zero(t, reg.Count("r2"))
}

func TestCodeClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"room not found", roomNotFound("x"), ErrCodeRoomNotFound},
		{"invalid", invalidArgument("bad"), ErrCodeBadRequest},
		{"bare sentinel", ErrSubscriberUnavailable, ErrCodeSubscriberUnavailable},
		{"wrapped sentinel", errors.Join(errors.New("ctx"), ErrStreamClosed), ErrCodeStreamClosed},
		{"unknown", errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Code(tt.err))
		})
	}
}
