package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/app"
	"github.com/gokatarajesh/riddle-party/internal/config"
	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
	"github.com/gokatarajesh/riddle-party/internal/logging"
	"github.com/gokatarajesh/riddle-party/internal/session"
)

// Play connects to the shared room store and runs one interactive session.
// An empty code creates a new room.
func Play(ctx context.Context, cfg *Config, code string, in io.Reader, out io.Writer) error {
	appCfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	logger := zerolog.Nop()
	if cfg.verbose {
		logger = logging.New("riddle-cli", appCfg.Env).Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	core, err := app.NewCore(ctx, appCfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.relay {
		relay := core.NewRelay()
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("relay stopped")
			}
		}()
	}

	sess := core.NewSession()
	defer sess.Close()

	return run(ctx, sess, cfg, code, in, out)
}

// Session is the part of the Session Client the terminal drives.
type Session interface {
	OnChange(fn func(session.Snapshot))
	Create(ctx context.Context, opts session.CreateOptions) (game.Room, game.Player, error)
	Join(ctx context.Context, code string, opts session.JoinOptions) (game.Room, game.Player, error)
	StartGame(ctx context.Context) error
	SubmitAnswer(ctx context.Context, index int) error
	AdvanceQuestion(ctx context.Context) error
	RequestHint(ctx context.Context) (string, error)
	Ask(ctx context.Context, text string) (content.Reply, error)
	Leave() error
	Snapshot() session.Snapshot
}

func run(ctx context.Context, sess Session, cfg *Config, code string, in io.Reader, out io.Writer) error {
	p := &printer{out: out}
	sess.OnChange(p.render)

	if code == "" {
		difficulty, _ := game.ParseDifficulty(cfg.difficulty)
		mode, _ := game.ParseMode(cfg.mode)
		room, _, err := sess.Create(ctx, session.CreateOptions{Name: cfg.name, Difficulty: difficulty, Mode: mode})
		if err != nil {
			return err
		}
		p.printf("Room %s created. Share the code, then type 'start'.\n", room.Code)
	} else {
		if _, _, err := sess.Join(ctx, code, session.JoinOptions{Name: cfg.name}); err != nil {
			return err
		}
		p.printf("Joined room %s. Waiting for the host.\n", code)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, err := parseLine(scanner.Text())
		if err != nil {
			p.printf("%v\n", err)
			continue
		}
		if cmd.kind == cmdQuit {
			return sess.Leave()
		}
		if err := dispatch(ctx, sess, cmd, p); err != nil {
			p.printf("! %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return sess.Leave()
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdStart
	cmdAnswer
	cmdNext
	cmdHint
	cmdAsk
	cmdPlayers
	cmdQuit
)

type command struct {
	kind  commandKind
	index int
	text  string
}

var errUnknownCommand = errors.New("commands: start, 1-4, next, hint, ask <question>, players, quit")

// parseLine turns one line of input into a command. Answers are 1-based on
// screen and 0-based on the wire.
func parseLine(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case "start":
		return command{kind: cmdStart}, nil
	case "next", "n":
		return command{kind: cmdNext}, nil
	case "hint", "h":
		return command{kind: cmdHint}, nil
	case "players", "p":
		return command{kind: cmdPlayers}, nil
	case "quit", "q", "leave":
		return command{kind: cmdQuit}, nil
	case "ask", "?":
		text := strings.TrimSpace(rest)
		if text == "" {
			return command{}, errors.New("usage: ask <question>")
		}
		return command{kind: cmdAsk, text: text}, nil
	}
	if n, err := strconv.Atoi(word); err == nil && rest == "" {
		if n < 1 {
			return command{}, fmt.Errorf("answer %d is out of range", n)
		}
		return command{kind: cmdAnswer, index: n - 1}, nil
	}
	return command{}, errUnknownCommand
}

func dispatch(ctx context.Context, sess Session, cmd command, p *printer) error {
	switch cmd.kind {
	case cmdStart:
		return sess.StartGame(ctx)
	case cmdAnswer:
		return sess.SubmitAnswer(ctx, cmd.index)
	case cmdNext:
		return sess.AdvanceQuestion(ctx)
	case cmdHint:
		hint, err := sess.RequestHint(ctx)
		if err != nil {
			return err
		}
		p.printf("Hint: %s\n", hint)
	case cmdAsk:
		reply, err := sess.Ask(ctx, cmd.text)
		if err != nil {
			return err
		}
		p.printf("Host: %s\n", reply.Text)
		if reply.Guessed {
			if gw := sess.Snapshot().GuessWho; gw != nil {
				p.printf("You got it! Points: %d\n", gw.PointsAwarded)
			}
		} else if reply.Over {
			p.printf("Out of questions.\n")
		}
	case cmdPlayers:
		p.players(sess.Snapshot().Players)
	}
	return nil
}

// printer renders snapshots, skipping ones that only moved the countdown.
type printer struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) render(snap session.Snapshot) {
	key := renderKey(snap)
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.last {
		return
	}
	p.last = key
	writeSnapshot(p.out, snap)
}

func (p *printer) players(players []game.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	writePlayers(p.out, players)
}

func renderKey(snap session.Snapshot) string {
	key := string(snap.State) + "|" + snap.Error
	if q := snap.Question; q != nil {
		key += fmt.Sprintf("|q%d|%v", q.Number, q.SelectedAnswer != nil)
	}
	return key
}

func writeSnapshot(w io.Writer, snap session.Snapshot) {
	if snap.Error != "" {
		fmt.Fprintf(w, "! %s\n", snap.Error)
	}
	switch snap.State {
	case game.StatusLoading:
		fmt.Fprintln(w, "Preparing riddles...")
	case game.StatusPlaying:
		if q := snap.Question; q != nil {
			if q.SelectedAnswer == nil {
				fmt.Fprintf(w, "\nQuestion %d/%d (%ds): %s\n", q.Number, q.Total, q.TimeLeft, q.Question)
				for i, opt := range q.Options {
					fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
				}
				return
			}
			if *q.Correct {
				fmt.Fprintf(w, "Correct! +%d\n", q.PointsAwarded)
			} else {
				fmt.Fprintf(w, "Wrong. The answer was %d) %s\n", *q.CorrectIndex+1, q.Options[*q.CorrectIndex])
			}
			if q.Explanation != "" {
				fmt.Fprintln(w, q.Explanation)
			}
		}
		if snap.GuessWho != nil && len(snap.GuessWho.Transcript) == 0 {
			fmt.Fprintf(w, "\nGuess who I am! You have %d questions. Use 'ask <question>'.\n", snap.GuessWho.MaxQuestions)
		}
	case game.StatusFinished:
		fmt.Fprintln(w, "\nGame over!")
		writePlayers(w, snap.Players)
	}
}

func writePlayers(w io.Writer, players []game.Player) {
	for i, pl := range players {
		fmt.Fprintf(w, "%2d. %s %s  %d\n", i+1, pl.Avatar, pl.Name, pl.Score)
	}
}
