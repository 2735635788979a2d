package session

import (
	"context"
	"errors"
	"time"
)

// startCountdownLocked replaces any running countdown with a fresh one for the
// current (room, question). Each run carries a generation number; a tick or
// expiry from an older generation is dropped, so a timer left over from a
// previous question can never act on the new one.
func (c *Client) startCountdownLocked() {
	c.stopCountdownLocked()
	c.timerGen++
	ctx, cancel := context.WithCancel(context.Background())
	c.timerCancel = cancel
	c.timeLeft = c.cfg.QuestionSeconds
	go c.runCountdown(ctx, c.timerGen, c.room.CurrentQuestion, c.cfg.QuestionSeconds)
}

func (c *Client) stopCountdownLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	c.timerGen++
}

func (c *Client) runCountdown(ctx context.Context, gen uint64, question, seconds int) {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()

	for left := seconds; left > 0; {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		left--
		if !c.tick(gen, left) {
			return
		}
	}
	c.expire(ctx, gen, question)
}

func (c *Client) tick(gen uint64, left int) bool {
	c.mu.Lock()
	if gen != c.timerGen || c.closed {
		c.mu.Unlock()
		return false
	}
	c.timeLeft = left
	c.mu.Unlock()
	c.emit()
	return true
}

// expire force-submits TimeExpired if the player has not answered, then lets
// the host move the room on.
func (c *Client) expire(ctx context.Context, gen uint64, question int) {
	c.mu.Lock()
	if gen != c.timerGen || c.closed || c.room == nil {
		c.mu.Unlock()
		return
	}
	answered := c.selected != nil
	isHost := c.player != nil && c.player.IsHost()
	c.mu.Unlock()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
	defer cancel()

	if !answered {
		if err := c.submit(opCtx, TimeExpired, &gen); err != nil && !errors.Is(err, ErrAlreadyAnswered) {
			c.log().Debug().Err(err).Msg("expiry submit skipped")
		}
	}
	if isHost && c.cfg.AutoAdvanceOnExpiry {
		if err := c.advanceFrom(opCtx, question); err != nil {
			c.log().Warn().Err(err).Int("question", question).Msg("auto-advance on expiry failed")
		}
	}
}
