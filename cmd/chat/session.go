package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/roomchat/internal/client"
	"github.com/vovakirdan/roomchat/internal/proto"
)

const quitCommand = "/quit"

// session drives the interactive menu over a line-oriented terminal.
type session struct {
	client *client.Client
	author string
	in     *bufio.Scanner
	out    io.Writer

	mu sync.Mutex // serializes writes to out
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *session) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *session) menu(ctx context.Context) error {
	for {
		s.printf("\n=== roomchat (%s) ===\n", s.author)
		s.printf("1. Create room\n2. List rooms\n3. Join room\n4. Room history\n5. Quit\n")

		choice, ok := s.prompt("Choose 1-5: ")
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = s.createRoom(ctx)
		case "2":
			err = s.listRooms(ctx)
		case "3":
			err = s.joinRoom(ctx)
		case "4":
			err = s.history(ctx)
		case "5", "q", "quit":
			s.printf("Bye.\n")
			return nil
		default:
			s.printf("Unknown choice %q.\n", choice)
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.printf("Error: %v\n", err)
		}
	}
}

func (s *session) createRoom(ctx context.Context) error {
	name, ok := s.prompt("Room name: ")
	if !ok || name == "" {
		s.printf("Room name must not be empty.\n")
		return nil
	}
	room, err := s.client.CreateRoom(ctx, name)
	if err != nil {
		return err
	}
	s.printf("Created room %s (%s)\n", room.Name, room.ID)
	return nil
}

func (s *session) listRooms(ctx context.Context) error {
	rooms, err := s.client.ListRooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		s.printf("No rooms yet.\n")
		return nil
	}
	for _, room := range rooms {
		s.printf("- %s (%s)\n", room.Name, room.ID)
	}
	return nil
}

func (s *session) history(ctx context.Context) error {
	roomID, ok := s.prompt("Room id: ")
	if !ok || roomID == "" {
		s.printf("Room id must not be empty.\n")
		return nil
	}
	hist, err := s.client.History(ctx, roomID)
	if err != nil {
		return err
	}
	if len(hist.Messages) == 0 {
		s.printf("No messages in this room.\n")
		return nil
	}
	for _, msg := range hist.Messages {
		s.printMessage(msg)
	}
	return nil
}

// joinRoom streams the room in the background while lines typed by the user
// are sent until quitCommand or end of input.
func (s *session) joinRoom(ctx context.Context) error {
	roomID, ok := s.prompt("Room id: ")
	if !ok || roomID == "" {
		s.printf("Room id must not be empty.\n")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := s.client.Join(ctx, roomID, s.author)
	if err != nil {
		return err
	}
	defer sub.Close()

	sender, err := s.client.Sender(ctx)
	if err != nil {
		return err
	}
	defer sender.Close()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.readLoop(ctx, sub)
	}()

	s.printf("Joined %s. Type messages, %s to leave.\n", roomID, quitCommand)
	for s.in.Scan() {
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if line == quitCommand {
			break
		}
		if _, err := sender.Send(ctx, roomID, s.author, line); err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				s.printf("Not sent: %s\n", apiErr.Msg)
				continue
			}
			return err
		}
	}

	cancel()
	<-readDone
	return nil
}

func (s *session) readLoop(ctx context.Context, sub *client.Subscription) {
	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.printf("Stream closed: %v\n", err)
			}
			return
		}
		switch ev.Name {
		case proto.EventNameReplayDone:
			s.printf("--- live ---\n")
		default:
			if ev.Message != nil {
				s.printMessage(*ev.Message)
			}
		}
	}
}

func (s *session) printMessage(msg proto.EventMessage) {
	ts := time.Unix(msg.TS, 0).Format(time.DateTime)
	s.printf("[%s] %s: %s\n", ts, msg.Author, msg.Content)
}
