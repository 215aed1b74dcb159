package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomExpired       = errors.New("room code has expired")
	ErrRoomCodeCollision = errors.New("room code is occupied by another host")
	ErrNotInRoom         = errors.New("client is not in a room")

	// Round errors
	ErrInvalidMove = errors.New("invalid move")
	// ErrWaitingForOpponent is soft: a UI state, not a failure. Moves
	// submitted before the second slot fills are rejected locally with it.
	ErrWaitingForOpponent = errors.New("waiting for opponent")

	// Boundary errors
	ErrStoreUnavailable = errors.New("room store unavailable")
	ErrNotAuthenticated = errors.New("no client identity available")
	ErrSessionNotFound  = errors.New("session not found")
)
