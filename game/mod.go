package game

import "errors"

var (
	// ErrInvalidInput is returned when a race cannot start from the given world.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDeserialization is returned when a snapshot is structurally invalid.
	ErrDeserialization = errors.New("deserialization failed")
)

// Strategy computes one cockroach's move for the current tick.
// Implementations must treat the world as read-only.
type Strategy interface {
	Move(self Cockroach, world *World) Move
}
