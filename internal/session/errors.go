package session

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoom          = errors.New("no room joined")
	ErrAlreadyJoined   = errors.New("already in a room")
	ErrNotHost         = errors.New("only the host can do that")
	ErrNotInLobby      = errors.New("game already started")
	ErrNotPlaying      = errors.New("no question in play")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrHintUsed        = errors.New("hint already requested for this question")
	ErrRoundOver       = errors.New("guess-who round is over")
	ErrEmptyQuestion   = errors.New("question text is empty")
	ErrClosed          = errors.New("session closed")
)

// MutationError reports a store write that failed after any retries.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
