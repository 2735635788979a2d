package game

import "errors"

var (
	// ErrRoomNotFound is returned when no room matches a join code or id.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound is returned when a player row is missing.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrCodeTaken is returned when a generated room code collides with an existing room.
	ErrCodeTaken = errors.New("room code already in use")
	// ErrStaleWrite is returned when a conditional update no longer matches the stored row.
	ErrStaleWrite = errors.New("room changed since it was read")
)
