// Package session implements the Session Client: one device's view of one
// room. It issues mutations against the room store, listens for change
// notifications, and reduces every remote snapshot into a local state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
	"github.com/gokatarajesh/riddle-party/internal/realtime"
	"github.com/gokatarajesh/riddle-party/internal/session/scoring"
)

// TimeExpired is submitted on the player's behalf when the countdown runs out.
// It matches no option.
const TimeExpired = -1

// Store is the persistent room store.
type Store interface {
	CreateRoom(ctx context.Context, params game.NewRoom) (game.Room, error)
	GetRoomByCode(ctx context.Context, code string) (game.Room, error)
	UpdateRoom(ctx context.Context, id uuid.UUID, patch game.RoomPatch) (game.Room, error)
	CreatePlayer(ctx context.Context, params game.NewPlayer) (game.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, patch game.PlayerPatch) (game.Player, error)
	ListPlayers(ctx context.Context, roomID uuid.UUID) ([]game.Player, error)
}

// Feed delivers change notifications for one room.
type Feed interface {
	SubscribeRoom(ctx context.Context, roomID uuid.UUID, fn func(game.Room)) (realtime.Subscription, error)
	SubscribePlayers(ctx context.Context, roomID uuid.UUID, fn func()) (realtime.Subscription, error)
}

// Config tunes a Client.
type Config struct {
	QuestionSeconds     int
	Scoring             scoring.Config
	ScoreWriteRetries   uint64
	ScoreWriteBackoff   time.Duration
	AutoAdvanceOnExpiry bool
	CodeAttempts        uint64
	RefreshTimeout      time.Duration
	// Tick is the countdown step; one second outside tests.
	Tick time.Duration
	// NewCode generates room codes; NewRoomCode when nil.
	NewCode func() string
}

func (c Config) withDefaults() Config {
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = 20
	}
	if c.ScoreWriteBackoff <= 0 {
		c.ScoreWriteBackoff = 200 * time.Millisecond
	}
	if c.CodeAttempts == 0 {
		c.CodeAttempts = 5
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 10 * time.Second
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.NewCode == nil {
		c.NewCode = NewRoomCode
	}
	return c
}

// CreateOptions are chosen by the host when creating a room.
type CreateOptions struct {
	Name       string
	Difficulty game.Difficulty
	Mode       game.Mode
}

// JoinOptions are chosen by a guest when joining.
type JoinOptions struct {
	Name string
}

// Client is safe for concurrent use. Remote I/O never runs while mu is held.
type Client struct {
	store   Store
	feed    Feed
	content content.Provider
	cfg     Config
	scorer  *scoring.Engine
	base    zerolog.Logger

	// logger is base plus the joined room's fields.
	logger atomic.Pointer[zerolog.Logger]

	mu      sync.Mutex
	state   game.Status
	room    *game.Room
	player  *game.Player
	players []game.Player
	subs    []realtime.Subscription
	closed  bool
	lastErr string

	refreshSeq     uint64
	refreshApplied uint64

	selected      *int
	correct       *bool
	awarded       int
	hint          string
	hintRequested bool
	timeLeft      int
	timerGen      uint64
	timerCancel   context.CancelFunc

	guess guessWho

	notifyMu sync.Mutex
	listener func(Snapshot)
}

// New constructs a Client in START.
func New(store Store, feed Feed, provider content.Provider, cfg Config, logger zerolog.Logger) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		store:   store,
		feed:    feed,
		content: provider,
		cfg:     cfg,
		scorer:  scoring.NewEngine(cfg.Scoring),
		base:    logger.With().Str("component", "session").Logger(),
		state:   game.StatusStart,
	}
	c.logger.Store(&c.base)
	return c
}

func (c *Client) log() *zerolog.Logger {
	return c.logger.Load()
}

// OnChange registers the single listener that receives every snapshot, in
// order. The listener must not call back into the Client synchronously.
func (c *Client) OnChange(fn func(Snapshot)) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Create opens a new room in LOBBY and joins it as host.
func (c *Client) Create(ctx context.Context, opts CreateOptions) (game.Room, game.Player, error) {
	if err := c.ensureStart(); err != nil {
		return game.Room{}, game.Player{}, err
	}
	if opts.Difficulty == "" {
		opts.Difficulty = game.DifficultyMedium
	}
	if opts.Mode == "" {
		opts.Mode = game.ModeRiddles
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "Host"
	}

	var room game.Room
	backoff := retry.WithMaxRetries(c.cfg.CodeAttempts-1, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		code := c.cfg.NewCode()
		created, err := c.store.CreateRoom(ctx, game.NewRoom{Code: code, Difficulty: opts.Difficulty, Mode: opts.Mode})
		if errors.Is(err, game.ErrCodeTaken) {
			c.log().Debug().Str("room_code", code).Msg("room code collision, retrying")
			return retry.RetryableError(err)
		}
		room = created
		return err
	})
	if err != nil {
		return game.Room{}, game.Player{}, c.fail(&MutationError{Op: "create room", Err: err})
	}
	roomsCreated.Inc()

	player, err := c.store.CreatePlayer(ctx, game.NewPlayer{
		RoomID: room.ID,
		Name:   name,
		Avatar: game.HostAvatar,
		Role:   game.RoleHost,
	})
	if err != nil {
		return game.Room{}, game.Player{}, c.fail(&MutationError{Op: "create host player", Err: err})
	}

	if err := c.adopt(ctx, room, player); err != nil {
		return game.Room{}, game.Player{}, err
	}
	return room, player, nil
}

// Join looks up code and joins that room as a guest. An unknown code returns
// game.ErrRoomNotFound and creates nothing.
func (c *Client) Join(ctx context.Context, code string, opts JoinOptions) (game.Room, game.Player, error) {
	if err := c.ensureStart(); err != nil {
		return game.Room{}, game.Player{}, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		joins.WithLabelValues("not_found").Inc()
		return game.Room{}, game.Player{}, c.fail(game.ErrRoomNotFound)
	}

	room, err := c.store.GetRoomByCode(ctx, code)
	if err != nil {
		if errors.Is(err, game.ErrRoomNotFound) {
			joins.WithLabelValues("not_found").Inc()
			return game.Room{}, game.Player{}, c.fail(err)
		}
		joins.WithLabelValues("error").Inc()
		return game.Room{}, game.Player{}, c.fail(fmt.Errorf("look up room %s: %w", code, err))
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = fmt.Sprintf("Player %02d", randomGuestNumber())
	}
	player, err := c.store.CreatePlayer(ctx, game.NewPlayer{
		RoomID: room.ID,
		Name:   name,
		Avatar: randomAvatar(game.Avatars),
		Role:   game.RoleGuest,
	})
	if err != nil {
		joins.WithLabelValues("error").Inc()
		return game.Room{}, game.Player{}, c.fail(&MutationError{Op: "create player", Err: err})
	}

	if err := c.adopt(ctx, room, player); err != nil {
		joins.WithLabelValues("error").Inc()
		return game.Room{}, game.Player{}, err
	}
	joins.WithLabelValues("ok").Inc()
	return room, player, nil
}

func (c *Client) ensureStart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.room != nil {
		return ErrAlreadyJoined
	}
	return nil
}

// adopt subscribes to the room, records it locally and loads the player list.
// Subscriptions come first so no change between the read and the subscribe is lost.
func (c *Client) adopt(ctx context.Context, room game.Room, player game.Player) error {
	roomSub, err := c.feed.SubscribeRoom(ctx, room.ID, c.onRoomChanged)
	if err != nil {
		return c.fail(fmt.Errorf("subscribe to room: %w", err))
	}
	playersSub, err := c.feed.SubscribePlayers(ctx, room.ID, c.onPlayersChanged)
	if err != nil {
		_ = roomSub.Close()
		return c.fail(fmt.Errorf("subscribe to players: %w", err))
	}

	c.mu.Lock()
	if c.closed || c.room != nil {
		c.mu.Unlock()
		_ = roomSub.Close()
		_ = playersSub.Close()
		if c.closed {
			return ErrClosed
		}
		return ErrAlreadyJoined
	}
	scoped := c.base.With().
		Str("room_id", room.ID.String()).
		Str("room_code", room.Code).
		Str("player_id", player.ID.String()).
		Logger()
	c.logger.Store(&scoped)
	c.subs = []realtime.Subscription{roomSub, playersSub}
	c.player = &player
	c.players = []game.Player{player}
	c.lastErr = ""
	c.room = &game.Room{ID: room.ID}
	c.applyRoomLocked(room)
	c.mu.Unlock()

	c.log().Info().Str("role", string(player.Role)).Str("status", string(room.Status)).Msg("joined room")
	c.refreshPlayers(ctx)
	c.emit()
	return nil
}

// onRoomChanged replaces the local room with a remote snapshot.
func (c *Client) onRoomChanged(room game.Room) {
	c.mu.Lock()
	if c.closed || c.room == nil || room.ID != c.room.ID {
		c.mu.Unlock()
		droppedSnapshots.WithLabelValues("foreign").Inc()
		return
	}
	if !c.room.UpdatedAt.IsZero() && room.UpdatedAt.Before(c.room.UpdatedAt) {
		c.mu.Unlock()
		droppedSnapshots.WithLabelValues("stale").Inc()
		return
	}
	applied := c.applyRoomLocked(room)
	c.mu.Unlock()

	if applied {
		c.emit()
	}
}

// applyRoomLocked installs room and runs the side effects of any state or
// question change. It reports false when the snapshot was rejected.
func (c *Client) applyRoomLocked(room game.Room) bool {
	prev := *c.room
	prevState := c.state
	next := deriveState(prevState, room.Status)
	if !canTransition(prevState, next) {
		droppedSnapshots.WithLabelValues("transition").Inc()
		c.log().Warn().
			Str("from", string(prevState)).
			Str("to", string(next)).
			Msg("ignoring snapshot with invalid transition")
		return false
	}

	c.room = &room
	c.state = next

	newQuestion := next == game.StatusPlaying &&
		(prevState != game.StatusPlaying || prev.CurrentQuestion != room.CurrentQuestion)
	switch {
	case newQuestion:
		c.resetQuestionLocked()
		if room.Mode == game.ModeGuessWho {
			if prevState != game.StatusPlaying {
				c.guess.reset()
			}
		} else if _, ok := room.CurrentRiddle(); ok {
			c.startCountdownLocked()
		}
	case next != game.StatusPlaying && prevState == game.StatusPlaying:
		c.stopCountdownLocked()
		c.guess.drop()
	}
	return true
}

func (c *Client) resetQuestionLocked() {
	c.selected = nil
	c.correct = nil
	c.awarded = 0
	c.hint = ""
	c.hintRequested = false
	c.timeLeft = c.cfg.QuestionSeconds
}

// onPlayersChanged refetches the whole player list. Every change event costs
// one list query per watching client.
func (c *Client) onPlayersChanged() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
	defer cancel()
	c.refreshPlayers(ctx)
	c.emit()
}

func (c *Client) refreshPlayers(ctx context.Context) {
	c.mu.Lock()
	if c.room == nil || c.closed {
		c.mu.Unlock()
		return
	}
	roomID := c.room.ID
	c.refreshSeq++
	seq := c.refreshSeq
	c.mu.Unlock()

	players, err := c.store.ListPlayers(ctx, roomID)
	if err != nil {
		c.log().Warn().Err(err).Msg("failed to refresh players")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil || c.room.ID != roomID || seq < c.refreshApplied {
		return
	}
	c.refreshApplied = seq
	c.players = players
	if c.player == nil {
		return
	}
	for i, p := range players {
		if p.ID != c.player.ID {
			continue
		}
		// A refetch that raced our own score write must not roll the total back.
		if p.Score < c.player.Score {
			c.players[i].Score = c.player.Score
		} else {
			c.player.Score = p.Score
		}
	}
	rankPlayers(c.players)
}

// SubmitAnswer records the local player's choice for the current question.
// Only the first submission per question counts; later ones return
// ErrAlreadyAnswered and change nothing.
func (c *Client) SubmitAnswer(ctx context.Context, index int) error {
	return c.submit(ctx, index, nil)
}

// submit with a non-nil gen only lands while that countdown generation is
// still current, so an expiry cannot answer a question that replaced it.
func (c *Client) submit(ctx context.Context, index int, gen *uint64) error {
	c.mu.Lock()
	if c.room == nil || c.player == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if gen != nil && *gen != c.timerGen {
		c.mu.Unlock()
		return nil
	}
	riddle, ok := c.room.CurrentRiddle()
	if c.state != game.StatusPlaying || c.room.Mode != game.ModeRiddles || !ok {
		c.mu.Unlock()
		return ErrNotPlaying
	}
	if c.selected != nil {
		c.mu.Unlock()
		answers.WithLabelValues("duplicate").Inc()
		return ErrAlreadyAnswered
	}

	isCorrect := index == riddle.CorrectIndex
	points := c.scorer.AnswerPoints(isCorrect, c.timeLeft)
	c.selected = &index
	c.correct = &isCorrect
	c.awarded = points
	newScore, playerID := c.addScoreLocked(points)
	c.mu.Unlock()

	switch {
	case index == TimeExpired:
		answers.WithLabelValues("expired").Inc()
	case isCorrect:
		answers.WithLabelValues("correct").Inc()
	default:
		answers.WithLabelValues("wrong").Inc()
	}
	c.emit()

	if points == 0 {
		return nil
	}
	return c.persistScore(ctx, playerID, newScore)
}

func (c *Client) addScoreLocked(points int) (int, uuid.UUID) {
	if points <= 0 {
		return c.player.Score, c.player.ID
	}
	c.player.Score += points
	for i := range c.players {
		if c.players[i].ID == c.player.ID {
			c.players[i].Score = c.player.Score
		}
	}
	rankPlayers(c.players)
	return c.player.Score, c.player.ID
}

// rankPlayers restores score-descending order after a local score patch.
// Ties keep their store order.
func rankPlayers(players []game.Player) {
	slices.SortStableFunc(players, func(a, b game.Player) int {
		return b.Score - a.Score
	})
}

// persistScore writes the local player's total, retrying per config.
func (c *Client) persistScore(ctx context.Context, playerID uuid.UUID, score int) error {
	attempt := 0
	backoff := retry.WithMaxRetries(c.cfg.ScoreWriteRetries, retry.NewConstant(c.cfg.ScoreWriteBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		_, err := c.store.UpdatePlayer(ctx, playerID, game.PlayerPatch{Score: game.Ptr(score)})
		if err == nil || errors.Is(err, game.ErrPlayerNotFound) {
			return err
		}
		c.log().Warn().Err(err).Int("attempt", attempt).Int("score", score).Msg("score write failed")
		return retry.RetryableError(err)
	})
	if err != nil {
		scoreWriteFailures.Inc()
		return c.fail(&MutationError{Op: "update score", Err: err})
	}
	return nil
}

// AdvanceQuestion moves the room to the next question, or to FINISHED from
// the last one. Host only.
func (c *Client) AdvanceQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.room == nil || c.player == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if !c.player.IsHost() {
		c.mu.Unlock()
		return ErrNotHost
	}
	if c.state != game.StatusPlaying {
		c.mu.Unlock()
		return ErrNotPlaying
	}
	expected := c.room.CurrentQuestion
	c.mu.Unlock()

	return c.advanceFrom(ctx, expected)
}

// advanceFrom is a conditional write: it only lands while the stored room is
// still PLAYING at question expected.
func (c *Client) advanceFrom(ctx context.Context, expected int) error {
	c.mu.Lock()
	if c.room == nil || c.state != game.StatusPlaying || c.room.CurrentQuestion != expected {
		c.mu.Unlock()
		return nil
	}
	roomID := c.room.ID
	patch := game.RoomPatch{
		ExpectQuestion: game.Ptr(expected),
		ExpectStatus:   game.Ptr(game.StatusPlaying),
	}
	if c.room.Mode == game.ModeGuessWho || c.room.IsLastQuestion() {
		patch.Status = game.Ptr(game.StatusFinished)
	} else {
		patch.CurrentQuestion = game.Ptr(expected + 1)
	}
	c.mu.Unlock()

	updated, err := c.store.UpdateRoom(ctx, roomID, patch)
	if errors.Is(err, game.ErrStaleWrite) {
		staleAdvances.Inc()
		c.log().Info().Int("expected_question", expected).Msg("room already advanced by another writer")
		return nil
	}
	if err != nil {
		return c.fail(&MutationError{Op: "advance question", Err: err})
	}
	c.onRoomChanged(updated)
	return nil
}

// RequestHint asks the content provider for a hint on the current riddle,
// at most once per question.
func (c *Client) RequestHint(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return "", ErrNoRoom
	}
	riddle, ok := c.room.CurrentRiddle()
	if c.state != game.StatusPlaying || c.room.Mode != game.ModeRiddles || !ok {
		c.mu.Unlock()
		return "", ErrNotPlaying
	}
	if c.hintRequested {
		c.mu.Unlock()
		return "", ErrHintUsed
	}
	c.hintRequested = true
	roomID, question := c.room.ID, c.room.CurrentQuestion
	c.mu.Unlock()

	hint, err := c.content.GenerateHint(ctx, riddle.Question, riddle.CorrectAnswer())
	if err != nil || hint == "" {
		c.log().Warn().Err(err).Msg("hint unavailable")
		hint = content.HintApology
	}

	c.mu.Lock()
	current := c.room != nil && c.room.ID == roomID && c.room.CurrentQuestion == question && c.state == game.StatusPlaying
	if current {
		c.hint = hint
	}
	c.mu.Unlock()

	if current {
		c.emit()
	}
	return hint, nil
}

// StartGame loads content and moves the room from LOBBY to PLAYING. Host only.
// If content cannot be loaded or the write fails the client returns to LOBBY.
func (c *Client) StartGame(ctx context.Context) error {
	c.mu.Lock()
	if c.room == nil || c.player == nil {
		c.mu.Unlock()
		return ErrNoRoom
	}
	if !c.player.IsHost() {
		c.mu.Unlock()
		return ErrNotHost
	}
	if c.state != game.StatusLobby {
		c.mu.Unlock()
		return ErrNotInLobby
	}
	c.state = game.StatusLoading
	roomID, difficulty, mode := c.room.ID, c.room.Difficulty, c.room.Mode
	c.mu.Unlock()
	c.emit()

	patch := game.RoomPatch{
		Status:       game.Ptr(game.StatusPlaying),
		ExpectStatus: game.Ptr(game.StatusLobby),
	}
	if mode == game.ModeRiddles {
		riddles, err := c.content.GenerateRiddles(ctx, difficulty)
		if err == nil {
			err = content.ValidateRiddles(riddles)
		}
		if err != nil {
			c.log().Warn().Err(err).Msg("content fetch failed, back to lobby")
			c.backToLobby()
			return fmt.Errorf("load riddles: %w", err)
		}
		patch.Riddles = riddles
		patch.CurrentQuestion = game.Ptr(0)
	}

	updated, err := c.store.UpdateRoom(ctx, roomID, patch)
	if err != nil {
		c.backToLobby()
		return c.fail(&MutationError{Op: "start game", Err: err})
	}
	c.log().Info().Str("mode", string(mode)).Int("riddles", len(updated.Riddles)).Msg("game started")
	c.onRoomChanged(updated)
	return nil
}

func (c *Client) backToLobby() {
	c.mu.Lock()
	if c.state == game.StatusLoading {
		c.state = game.StatusLobby
	}
	c.mu.Unlock()
	c.emit()
}

// Leave unsubscribes from the current room and returns the client to START.
func (c *Client) Leave() error {
	c.mu.Lock()
	subs := c.teardownLocked()
	c.mu.Unlock()

	err := closeAll(subs)
	c.emit()
	return err
}

// Close releases every resource. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.teardownLocked()
	c.mu.Unlock()
	return closeAll(subs)
}

func (c *Client) teardownLocked() []realtime.Subscription {
	subs := c.subs
	c.subs = nil
	c.stopCountdownLocked()
	c.guess.drop()
	c.logger.Store(&c.base)
	c.room = nil
	c.player = nil
	c.players = nil
	c.state = game.StatusStart
	c.resetQuestionLocked()
	return subs
}

func closeAll(subs []realtime.Subscription) error {
	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fail records err for the next snapshot and returns it.
func (c *Client) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.emit()
	return err
}

func (c *Client) emit() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	fn := c.listener
	var snap Snapshot
	if fn != nil {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}
