package core

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/roomchat/internal/store"
)

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound          = "room_not_found"
	ErrCodeBadRequest            = "bad_request"
	ErrCodeStorage               = "storage_error"
	ErrCodeSubscriberUnavailable = "subscriber_unavailable"
	ErrCodeStreamClosed          = "stream_closed"
	ErrCodeInternal              = "internal_error"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStorage         = errors.New("storage error")
	// ErrSubscriberUnavailable ends a stream whose buffer overflowed.
	// It is never reported to the sender.
	ErrSubscriberUnavailable = errors.New("subscriber unavailable")
	// ErrStreamClosed ends a stream that was closed by its owner or by shutdown.
	ErrStreamClosed = errors.New("stream closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code string, kind error, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: kind}
}

func invalidArgument(msg string) *CoreError {
	return coreError(ErrCodeBadRequest, ErrInvalidArgument, msg)
}

func roomNotFound(roomID string) *CoreError {
	return coreError(ErrCodeRoomNotFound, ErrRoomNotFound, fmt.Sprintf("room %q not found", roomID))
}

// fromStore classifies an error returned by the store. Anything that is not
// a missing room is treated as a durability failure.
func fromStore(roomID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrRoomNotFound) {
		return roomNotFound(roomID)
	}
	return &CoreError{
		Code:    ErrCodeStorage,
		Message: "storage failure",
		Err:     fmt.Errorf("%w: %w", ErrStorage, err),
	}
}

// Code returns the wire error code for err.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeBadRequest
	case errors.Is(err, ErrStorage):
		return ErrCodeStorage
	case errors.Is(err, ErrSubscriberUnavailable):
		return ErrCodeSubscriberUnavailable
	case errors.Is(err, ErrStreamClosed):
		return ErrCodeStreamClosed
	default:
		return ErrCodeInternal
	}
}
