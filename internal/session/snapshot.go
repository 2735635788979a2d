package session

import (
	"slices"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Snapshot is an immutable copy of everything the presentation side renders.
type Snapshot struct {
	State    game.Status   `json:"state"`
	Room     *game.Room    `json:"room,omitempty"`
	Player   *game.Player  `json:"player,omitempty"`
	Players  []game.Player `json:"players"`
	Question *QuestionView `json:"question,omitempty"`
	GuessWho *GuessWhoView `json:"guess_who,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// QuestionView is the current riddle as a player may see it. The correct
// option and explanation are only filled in once the player has answered.
type QuestionView struct {
	Number         int      `json:"number"`
	Total          int      `json:"total"`
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	SelectedAnswer *int     `json:"selected_answer,omitempty"`
	Correct        *bool    `json:"correct,omitempty"`
	CorrectIndex   *int     `json:"correct_index,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
	PointsAwarded  int      `json:"points_awarded"`
	Hint           string   `json:"hint,omitempty"`
	HintUsed       bool     `json:"hint_used"`
	TimeLeft       int      `json:"time_left"`
}

// GuessWhoView is the local guess-who round.
type GuessWhoView struct {
	Transcript    []Turn `json:"transcript"`
	QuestionsUsed int    `json:"questions_used"`
	MaxQuestions  int    `json:"max_questions"`
	Over          bool   `json:"over"`
	Guessed       bool   `json:"guessed"`
	PointsAwarded int    `json:"points_awarded"`
}

// Snapshot returns the current view.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current state machine state.
func (c *Client) State() game.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   c.state,
		Players: slices.Clone(c.players),
		Error:   c.lastErr,
	}
	if snap.Players == nil {
		snap.Players = []game.Player{}
	}
	if c.player != nil {
		p := *c.player
		snap.Player = &p
	}
	if c.room == nil {
		return snap
	}

	room := *c.room
	room.Riddles = nil
	snap.Room = &room

	if c.state != game.StatusPlaying {
		return snap
	}
	switch c.room.Mode {
	case game.ModeGuessWho:
		snap.GuessWho = &GuessWhoView{
			Transcript:    slices.Clone(c.guess.transcript),
			QuestionsUsed: c.guess.used,
			MaxQuestions:  c.scorer.Config().GuessWhoCap,
			Over:          c.guess.over,
			Guessed:       c.guess.guessed,
			PointsAwarded: c.guess.awarded,
		}
		if snap.GuessWho.Transcript == nil {
			snap.GuessWho.Transcript = []Turn{}
		}
	default:
		riddle, ok := c.room.CurrentRiddle()
		if !ok {
			return snap
		}
		view := &QuestionView{
			Number:        c.room.CurrentQuestion + 1,
			Total:         len(c.room.Riddles),
			Question:      riddle.Question,
			Options:       slices.Clone(riddle.Options),
			PointsAwarded: c.awarded,
			Hint:          c.hint,
			HintUsed:      c.hintRequested,
			TimeLeft:      c.timeLeft,
		}
		if c.selected != nil {
			selected, correct, idx := *c.selected, *c.correct, riddle.CorrectIndex
			view.SelectedAnswer = &selected
			view.Correct = &correct
			view.CorrectIndex = &idx
			view.Explanation = riddle.Explanation
		}
		snap.Question = view
	}
	return snap
}
