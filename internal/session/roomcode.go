package session

import "math/rand/v2"

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// NewRoomCode returns a random six-character uppercase base-36 join code.
func NewRoomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

func randomAvatar(avatars []string) string {
	return avatars[rand.IntN(len(avatars))]
}

func randomGuestNumber() int {
	return rand.IntN(100)
}
