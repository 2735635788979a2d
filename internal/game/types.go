package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status mirrors the client-visible game state machine. The store holds the
// authoritative copy; START only ever exists locally (no room joined yet).
type Status string

const (
	StatusStart    Status = "START"
	StatusLobby    Status = "LOBBY"
	StatusLoading  Status = "LOADING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusStart, StatusLobby, StatusLoading, StatusPlaying, StatusFinished:
		return true
	}
	return false
}

// Difficulty is fixed at room creation.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists every supported difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts any casing; empty input defaults to MEDIUM.
func ParseDifficulty(raw string) (Difficulty, error) {
	if strings.TrimSpace(raw) == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}

// Mode selects between multiple-choice riddles and the chat-based guessing game.
type Mode string

const (
	ModeRiddles  Mode = "RIDDLES"
	ModeGuessWho Mode = "GUESS_WHO"
)

// ParseMode accepts any casing; empty input defaults to RIDDLES.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", ModeRiddles:
		return ModeRiddles, nil
	case ModeGuessWho:
		return ModeGuessWho, nil
	}
	return "", fmt.Errorf("unknown game mode %q", raw)
}

// Role distinguishes the room creator from everyone else.
type Role string

const (
	RoleHost  Role = "HOST"
	RoleGuest Role = "GUEST"
)

// HostAvatar is shown next to the host. It is display only; Role carries authority.
const HostAvatar = "👑"

// Avatars is the fixed set handed out to guests.
var Avatars = []string{"🦁", "🐯", "🦊", "🐨", "🐼", "🐸", "🤖", "👻"}

// OptionCount is the number of candidate answers every riddle carries.
const OptionCount = 4

// Riddle is a multiple-choice question produced by the content provider and
// embedded in Room.Riddles.
type Riddle struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// Validate checks the shape invariants: a question, exactly four options and a
// correct index inside them.
func (r Riddle) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("riddle has empty question")
	}
	if len(r.Options) != OptionCount {
		return fmt.Errorf("riddle has %d options, want %d", len(r.Options), OptionCount)
	}
	if r.CorrectIndex < 0 || r.CorrectIndex >= OptionCount {
		return fmt.Errorf("riddle correct index %d out of range", r.CorrectIndex)
	}
	return nil
}

// CorrectAnswer returns the text of the correct option.
func (r Riddle) CorrectAnswer() string {
	if r.CorrectIndex < 0 || r.CorrectIndex >= len(r.Options) {
		return ""
	}
	return r.Options[r.CorrectIndex]
}

// Room is the shared game session row.
type Room struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	Status          Status     `json:"status"`
	CurrentQuestion int        `json:"current_question"`
	Difficulty      Difficulty `json:"difficulty"`
	Riddles         []Riddle   `json:"riddles,omitempty"`
	Mode            Mode       `json:"game_mode"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasRiddles reports whether the host has already loaded content.
func (r Room) HasRiddles() bool {
	return len(r.Riddles) > 0
}

// CurrentRiddle returns the riddle at CurrentQuestion, if any.
func (r Room) CurrentRiddle() (Riddle, bool) {
	if r.CurrentQuestion < 0 || r.CurrentQuestion >= len(r.Riddles) {
		return Riddle{}, false
	}
	return r.Riddles[r.CurrentQuestion], true
}

// IsLastQuestion reports whether advancing from here finishes the game.
func (r Room) IsLastQuestion() bool {
	return r.CurrentQuestion >= len(r.Riddles)-1
}

// Player belongs to exactly one room for its whole life.
type Player struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Role      Role      `json:"role"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// IsHost reports whether the player may drive game flow.
func (p Player) IsHost() bool {
	return p.Role == RoleHost
}

// NewRoom carries the fields the client chooses at creation time.
type NewRoom struct {
	Code       string
	Difficulty Difficulty
	Mode       Mode
}

// NewPlayer carries the fields the client chooses at join time.
type NewPlayer struct {
	RoomID uuid.UUID
	Name   string
	Avatar string
	Role   Role
}

// RoomPatch is a partial room update. Nil fields are left untouched.
// ExpectQuestion and ExpectStatus turn the write into a conditional update that
// fails with ErrStaleWrite when the stored row no longer matches.
type RoomPatch struct {
	Status          *Status
	CurrentQuestion *int
	Riddles         []Riddle

	ExpectQuestion *int
	ExpectStatus   *Status
}

// Empty reports whether the patch changes nothing.
func (p RoomPatch) Empty() bool {
	return p.Status == nil && p.CurrentQuestion == nil && p.Riddles == nil
}

// PlayerPatch is a partial player update.
type PlayerPatch struct {
	Score *int
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}
