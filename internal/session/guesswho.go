package session

import (
	"context"
	"strings"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
)

// Speaker of a transcript line.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// Turn is one transcript line. Transcripts are local to this client.
type Turn struct {
	Role Speaker `json:"role"`
	Text string  `json:"text"`
}

// guessWho holds the local state of one guess-who round. gen changes whenever
// the chat handle is dropped so late replies for an old round are ignored.
type guessWho struct {
	gen        uint64
	chat       content.ChatSession
	transcript []Turn
	used       int
	over       bool
	guessed    bool
	awarded    int
}

func (g *guessWho) reset() {
	g.drop()
	g.transcript = nil
	g.used = 0
	g.over = false
	g.guessed = false
	g.awarded = 0
}

func (g *guessWho) drop() {
	g.gen++
	g.chat = nil
}

// Ask sends one question in a guess-who round. The question is appended to the
// transcript right away; the reply is appended when it arrives. A reply with
// the success marker ends the round and awards points that shrink with every
// question used. The failure marker or reaching the cap also ends the round.
func (c *Client) Ask(ctx context.Context, text string) (content.Reply, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.room == nil || c.player == nil {
		c.mu.Unlock()
		return content.Reply{}, ErrNoRoom
	}
	if c.state != game.StatusPlaying || c.room.Mode != game.ModeGuessWho {
		c.mu.Unlock()
		return content.Reply{}, ErrNotPlaying
	}
	limit := c.scorer.Config().GuessWhoCap
	if c.guess.over || c.guess.used >= limit {
		c.guess.over = true
		c.mu.Unlock()
		return content.Reply{}, ErrRoundOver
	}
	if text == "" {
		c.mu.Unlock()
		return content.Reply{}, ErrEmptyQuestion
	}
	c.guess.used++
	c.guess.transcript = append(c.guess.transcript, Turn{Role: SpeakerUser, Text: text})
	gen := c.guess.gen
	chat := c.guess.chat
	c.mu.Unlock()
	c.emit()

	if chat == nil {
		var err error
		chat, err = c.openChat(ctx, gen)
		if err != nil {
			c.log().Warn().Err(err).Msg("failed to open guess-who chat")
			return c.recordReply(gen, content.ChatApology)
		}
	}

	reply, err := chat.Send(ctx, text)
	if err != nil || reply == "" {
		c.log().Warn().Err(err).Msg("guess-who reply failed")
		reply = content.ChatApology
	}
	return c.recordReply(gen, reply)
}

// openChat creates the round's chat handle once; concurrent callers share the
// first one stored.
func (c *Client) openChat(ctx context.Context, gen uint64) (content.ChatSession, error) {
	chat, err := c.content.StartGuessWho(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guess.gen != gen {
		return chat, nil
	}
	if c.guess.chat == nil {
		c.guess.chat = chat
	}
	return c.guess.chat, nil
}

func (c *Client) recordReply(gen uint64, raw string) (content.Reply, error) {
	reply := content.ParseReply(raw)

	c.mu.Lock()
	if c.guess.gen != gen || c.player == nil {
		c.mu.Unlock()
		return reply, nil
	}
	c.guess.transcript = append(c.guess.transcript, Turn{Role: SpeakerModel, Text: reply.Text})

	var (
		points   int
		newScore int
		playerID = c.player.ID
	)
	switch {
	case reply.Guessed && !c.guess.over:
		points = c.scorer.GuessWhoPoints(c.guess.used)
		c.guess.guessed = true
		c.guess.over = true
		c.guess.awarded = points
		newScore, playerID = c.addScoreLocked(points)
	case reply.Over || c.guess.used >= c.scorer.Config().GuessWhoCap:
		c.guess.over = true
	}
	c.mu.Unlock()
	c.emit()

	if points > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
		defer cancel()
		if err := c.persistScore(ctx, playerID, newScore); err != nil {
			return reply, err
		}
	}
	return reply, nil
}
