package domain

import "github.com/google/uuid"

// NewID returns a time-sortable UUIDv7.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
