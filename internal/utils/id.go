package utils

import "github.com/google/uuid"

// NewID returns a random identifier for rooms, messages and subscriptions.
// Ids are opaque to clients; only uniqueness matters.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape produced by NewID.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
