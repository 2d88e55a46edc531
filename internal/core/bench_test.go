package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	hub, _ := newTestHub(b, WithBufferSize(1024))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	room, err := hub.CreateRoom(ctx, "bench")
	if err != nil {
		b.Fatalf("create room: %v", err)
	}

	streams := make([]*Stream, 0, recipients)
	for i := range recipients {
		s, err := hub.Join(ctx, room.ID, fmt.Sprintf("c%d", i))
		if err != nil {
			b.Fatalf("join: %v", err)
		}
		streams = append(streams, s)
	}

	// Drain every recipient but the first to avoid buffer overflow.
	target := streams[0]
	for _, s := range streams[1:] {
		go func(s *Stream) {
			for _, err := range s.All(ctx) {
				if err != nil {
					return
				}
			}
		}(s)
	}
	if _, err := target.Next(ctx); err != nil { // replay marker
		b.Fatalf("next: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := hub.Send(ctx, room.ID, "sender", "payload"); err != nil {
			b.Fatalf("send: %v", err)
		}
		if _, err := target.Next(ctx); err != nil {
			b.Fatalf("next: %v", err)
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
