package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
	"github.com/gokatarajesh/riddle-party/internal/realtime"
)

const testPrefix = "test"

// fakeStore is an in-memory room store that publishes change events the way
// the database trigger and relay do, after its own lock is released.
type fakeStore struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]game.Room
	players map[uuid.UUID]game.Player
	order   []uuid.UUID
	clock   time.Time
	pub     *realtime.Publisher

	failRoomUpdate  error
	failScoreWrites int
	scoreAttempts   int
}

func newFakeStore(bus realtime.Bus) *fakeStore {
	return &fakeStore{
		rooms:   map[uuid.UUID]game.Room{},
		players: map[uuid.UUID]game.Player{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		pub:     realtime.NewPublisher(bus, testPrefix),
	}
}

func (s *fakeStore) tickLocked() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *fakeStore) CreateRoom(ctx context.Context, params game.NewRoom) (game.Room, error) {
	s.mu.Lock()
	for _, r := range s.rooms {
		if r.Code == params.Code {
			s.mu.Unlock()
			return game.Room{}, game.ErrCodeTaken
		}
	}
	now := s.tickLocked()
	room := game.Room{
		ID:         uuid.New(),
		Code:       params.Code,
		Status:     game.StatusLobby,
		Difficulty: params.Difficulty,
		Mode:       params.Mode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.rooms[room.ID] = room
	s.mu.Unlock()

	_ = s.pub.Room(ctx, room)
	return room, nil
}

func (s *fakeStore) GetRoomByCode(_ context.Context, code string) (game.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Code == code {
			return r, nil
		}
	}
	return game.Room{}, game.ErrRoomNotFound
}

func (s *fakeStore) UpdateRoom(ctx context.Context, id uuid.UUID, patch game.RoomPatch) (game.Room, error) {
	s.mu.Lock()
	if s.failRoomUpdate != nil {
		err := s.failRoomUpdate
		s.mu.Unlock()
		return game.Room{}, err
	}
	room, ok := s.rooms[id]
	if !ok {
		s.mu.Unlock()
		return game.Room{}, game.ErrRoomNotFound
	}
	if (patch.ExpectQuestion != nil && *patch.ExpectQuestion != room.CurrentQuestion) ||
		(patch.ExpectStatus != nil && *patch.ExpectStatus != room.Status) {
		s.mu.Unlock()
		return game.Room{}, game.ErrStaleWrite
	}
	if patch.Status != nil {
		room.Status = *patch.Status
	}
	if patch.CurrentQuestion != nil {
		room.CurrentQuestion = *patch.CurrentQuestion
	}
	if patch.Riddles != nil {
		room.Riddles = patch.Riddles
	}
	room.UpdatedAt = s.tickLocked()
	s.rooms[id] = room
	s.mu.Unlock()

	_ = s.pub.Room(ctx, room)
	return room, nil
}

// setRoomSilently changes the stored row without publishing, as if the
// notification were still in flight.
func (s *fakeStore) setRoomSilently(room game.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.UpdatedAt = s.tickLocked()
	s.rooms[room.ID] = room
}

func (s *fakeStore) room(id uuid.UUID) game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *fakeStore) CreatePlayer(ctx context.Context, params game.NewPlayer) (game.Player, error) {
	s.mu.Lock()
	if _, ok := s.rooms[params.RoomID]; !ok {
		s.mu.Unlock()
		return game.Player{}, game.ErrRoomNotFound
	}
	player := game.Player{
		ID:        uuid.New(),
		RoomID:    params.RoomID,
		Name:      params.Name,
		Avatar:    params.Avatar,
		Role:      params.Role,
		CreatedAt: s.tickLocked(),
	}
	s.players[player.ID] = player
	s.order = append(s.order, player.ID)
	s.mu.Unlock()

	_ = s.pub.Players(ctx, realtime.PlayersEvent{RoomID: player.RoomID, PlayerID: player.ID, Op: "INSERT"})
	return player, nil
}

func (s *fakeStore) UpdatePlayer(ctx context.Context, id uuid.UUID, patch game.PlayerPatch) (game.Player, error) {
	s.mu.Lock()
	s.scoreAttempts++
	if s.failScoreWrites > 0 {
		s.failScoreWrites--
		s.mu.Unlock()
		return game.Player{}, errors.New("connection reset")
	}
	player, ok := s.players[id]
	if !ok {
		s.mu.Unlock()
		return game.Player{}, game.ErrPlayerNotFound
	}
	if patch.Score != nil && *patch.Score > player.Score {
		player.Score = *patch.Score
	}
	s.players[id] = player
	s.mu.Unlock()

	_ = s.pub.Players(ctx, realtime.PlayersEvent{RoomID: player.RoomID, PlayerID: player.ID, Op: "UPDATE"})
	return player, nil
}

func (s *fakeStore) ListPlayers(_ context.Context, roomID uuid.UUID) ([]game.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]game.Player, 0)
	for _, id := range s.order {
		if p := s.players[id]; p.RoomID == roomID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *fakeStore) playerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *fakeStore) score(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[id].Score
}

type fakeProvider struct {
	mu         sync.Mutex
	riddles    []game.Riddle
	riddlesErr error
	hint       string
	hintErr    error
	hintCalls  int
	replies    []string
	chatErr    error
	chats      int
}

func (p *fakeProvider) GenerateRiddles(context.Context, game.Difficulty) ([]game.Riddle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.riddles, p.riddlesErr
}

func (p *fakeProvider) GenerateHint(context.Context, string, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hintCalls++
	return p.hint, p.hintErr
}

func (p *fakeProvider) StartGuessWho(context.Context) (content.ChatSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chatErr != nil {
		return nil, p.chatErr
	}
	p.chats++
	return &scriptedChat{provider: p}, nil
}

type scriptedChat struct {
	provider *fakeProvider
}

func (c *scriptedChat) Send(context.Context, string) (string, error) {
	c.provider.mu.Lock()
	defer c.provider.mu.Unlock()
	if len(c.provider.replies) == 0 {
		return "⚪ I don't know.", nil
	}
	reply := c.provider.replies[0]
	c.provider.replies = c.provider.replies[1:]
	return reply, nil
}

func riddleSet(correct ...int) []game.Riddle {
	out := make([]game.Riddle, len(correct))
	for i, idx := range correct {
		out[i] = game.Riddle{
			Question:     "riddle",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: idx,
			Explanation:  "because",
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		QuestionSeconds:   10,
		ScoreWriteRetries: 1,
		ScoreWriteBackoff: time.Millisecond,
		Tick:              time.Hour,
	}
}

type harness struct {
	bus      *realtime.MemoryBus
	store    *fakeStore
	provider *fakeProvider
}

func newHarness() *harness {
	bus := realtime.NewMemoryBus()
	return &harness{
		bus:      bus,
		store:    newFakeStore(bus),
		provider: &fakeProvider{riddles: riddleSet(2, 0, 1), hint: "think harder"},
	}
}

func (h *harness) client(t *testing.T, cfg Config) *Client {
	t.Helper()
	c := New(h.store, realtime.NewFeed(h.bus, testPrefix, zerolog.Nop()), h.provider, cfg, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}
