package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
	"github.com/gokatarajesh/riddle-party/internal/session"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{line: "", want: command{kind: cmdNone}},
		{line: "start", want: command{kind: cmdStart}},
		{line: "  NEXT ", want: command{kind: cmdNext}},
		{line: "h", want: command{kind: cmdHint}},
		{line: "2", want: command{kind: cmdAnswer, index: 1}},
		{line: "ask is it an animal?", want: command{kind: cmdAsk, text: "is it an animal?"}},
		{line: "q", want: command{kind: cmdQuit}},
		{line: "0", wantErr: true},
		{line: "ask", wantErr: true},
		{line: "dance", wantErr: true},
		{line: "2 3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterSkipsCountdownTicks(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{out: &buf}

	q := &session.QuestionView{Number: 1, Total: 3, Question: "What has keys?", Options: []string{"Piano", "Door"}, TimeLeft: 20}
	p.render(session.Snapshot{State: game.StatusPlaying, Question: q})
	first := buf.String()

	tick := *q
	tick.TimeLeft = 19
	p.render(session.Snapshot{State: game.StatusPlaying, Question: &tick})

	assert.Equal(t, first, buf.String())
	assert.Contains(t, first, "Question 1/3")
	assert.Contains(t, first, "1) Piano")
}

func TestWriteSnapshotRevealsAnswer(t *testing.T) {
	var buf bytes.Buffer
	selected, correct, idx := 1, false, 0
	writeSnapshot(&buf, session.Snapshot{
		State: game.StatusPlaying,
		Question: &session.QuestionView{
			Options:        []string{"Piano", "Door"},
			SelectedAnswer: &selected,
			Correct:        &correct,
			CorrectIndex:   &idx,
			Explanation:    "Pianos have keys.",
		},
	})
	assert.Contains(t, buf.String(), "The answer was 1) Piano")
	assert.Contains(t, buf.String(), "Pianos have keys.")
}

type scriptSession struct {
	created session.CreateOptions
	joined  string
	calls   []string
	left    bool
}

func (s *scriptSession) OnChange(func(session.Snapshot)) {}

func (s *scriptSession) Create(_ context.Context, opts session.CreateOptions) (game.Room, game.Player, error) {
	s.created = opts
	return game.Room{ID: uuid.New(), Code: "ABC123"}, game.Player{}, nil
}

func (s *scriptSession) Join(_ context.Context, code string, _ session.JoinOptions) (game.Room, game.Player, error) {
	s.joined = code
	return game.Room{}, game.Player{}, nil
}

func (s *scriptSession) StartGame(context.Context) error {
	s.calls = append(s.calls, "start")
	return nil
}

func (s *scriptSession) SubmitAnswer(_ context.Context, index int) error {
	s.calls = append(s.calls, "answer:"+string(rune('0'+index)))
	return nil
}

func (s *scriptSession) AdvanceQuestion(context.Context) error {
	s.calls = append(s.calls, "next")
	return session.ErrNotHost
}

func (s *scriptSession) RequestHint(context.Context) (string, error) {
	s.calls = append(s.calls, "hint")
	return "look closer", nil
}

func (s *scriptSession) Ask(_ context.Context, text string) (content.Reply, error) {
	s.calls = append(s.calls, "ask:"+text)
	return content.Reply{Text: "🟢 Yes."}, nil
}

func (s *scriptSession) Leave() error {
	s.left = true
	return nil
}

func (s *scriptSession) Snapshot() session.Snapshot { return session.Snapshot{} }

func TestRunHostScript(t *testing.T) {
	sess := &scriptSession{}
	var out bytes.Buffer
	cfg := &Config{name: "Ada", difficulty: "hard", mode: "riddles"}
	in := strings.NewReader("start\n3\nhint\nnext\nask is it big?\nquit\nstart\n")

	require.NoError(t, run(context.Background(), sess, cfg, "", in, &out))

	assert.Equal(t, game.DifficultyHard, sess.created.Difficulty)
	assert.Equal(t, game.ModeRiddles, sess.created.Mode)
	assert.Equal(t, []string{"start", "answer:2", "hint", "next", "ask:is it big?"}, sess.calls)
	assert.True(t, sess.left)
	assert.Contains(t, out.String(), "Room ABC123 created")
	assert.Contains(t, out.String(), "Hint: look closer")
	assert.Contains(t, out.String(), "! "+session.ErrNotHost.Error())
}

func TestRunJoinLeavesOnEOF(t *testing.T) {
	sess := &scriptSession{}
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), sess, &Config{name: "Bo"}, "XYZ789", strings.NewReader(""), &out))
	assert.Equal(t, "XYZ789", sess.joined)
	assert.True(t, sess.left)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{name: "Ada", difficulty: "easy", mode: "guess_who"}).validate())
	assert.Error(t, (&Config{name: " "}).validate())
	assert.Error(t, (&Config{name: "Ada", difficulty: "extreme"}).validate())
	assert.Error(t, (&Config{name: "Ada", mode: "trivia"}).validate())
}
