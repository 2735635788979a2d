// Package gateway exposes Session Clients to browsers. Every WebSocket
// connection owns one session and receives each of its snapshots as a
// "state" message.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/riddle-party/internal/content"
	"github.com/gokatarajesh/riddle-party/internal/game"
	"github.com/gokatarajesh/riddle-party/internal/session"
	httperrors "github.com/gokatarajesh/riddle-party/pkg/http/errors"
	ws "github.com/gokatarajesh/riddle-party/pkg/http/ws"
)

// Session is the slice of *session.Client the gateway drives.
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
	Close() error
	Snapshot() session.Snapshot
}

// SessionFactory builds a fresh session for a new connection.
type SessionFactory func() Session

// Handler manages WebSocket connections and routes game messages to sessions.
type Handler struct {
	hub        *ws.Hub
	newSession SessionFactory
	upgrader   websocket.Upgrader
	logger     zerolog.Logger

	// active counts Serve calls whose session is not yet closed.
	active sync.WaitGroup
}

// NewHandler creates a game WebSocket handler. Upgrades are accepted from
// allowedOrigins only; an empty list accepts any origin.
func NewHandler(hub *ws.Hub, newSession SessionFactory, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		newSession: newSession,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With().Str("component", "gateway").Logger(),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(set) == 0 || origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleWebSocket upgrades the request and serves one session until the
// browser disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.Serve(ws.NewConnection(conn, h.logger))
}

// Serve runs the read loop for an established connection.
func (h *Handler) Serve(wsConn *ws.Connection) {
	h.active.Add(1)
	defer h.active.Done()

	h.hub.RegisterConnection(wsConn)
	go wsConn.WritePump()

	ctx, cancel := context.WithCancel(context.Background())
	sess := h.newSession()
	sess.OnChange(h.forwardSnapshots(wsConn))
	h.send(wsConn, ws.TypeState, "", sess.Snapshot())

	wsConn.ReadPump(func(msg ws.Message) error {
		wsMessages.WithLabelValues(msg.Type).Inc()
		return h.handleMessage(ctx, wsConn, sess, msg)
	})

	cancel()
	if err := sess.Close(); err != nil {
		h.logger.Warn().Err(err).Msg("session close failed")
	}
	h.hub.UnregisterConnection(wsConn.ID())
}

// Wait blocks until every served connection has closed its session, or ctx
// ends. Call it after the hub's connections are closed.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forwardSnapshots streams every snapshot to the browser and keeps the hub's
// room membership in step with the session.
func (h *Handler) forwardSnapshots(conn *ws.Connection) func(session.Snapshot) {
	var current uuid.UUID
	return func(snap session.Snapshot) {
		switch {
		case snap.Room != nil && snap.Room.ID != current:
			current = snap.Room.ID
			h.hub.JoinRoom(current, conn.ID())
		case snap.Room == nil && current != uuid.Nil:
			h.hub.LeaveRoom(current, conn.ID())
			current = uuid.Nil
		}
		h.send(conn, ws.TypeState, "", snap)
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, conn *ws.Connection, sess Session, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeCreateRoom:
		var req ws.CreateRoomPayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid create_room payload")
		}
		opts, err := createOptions(req)
		if err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidRequest, err.Error())
		}
		_, _, err = sess.Create(ctx, opts)
		return h.reply(conn, msg.RequestID, err)

	case ws.TypeJoinRoom:
		var req ws.JoinRoomPayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid join_room payload")
		}
		_, _, err := sess.Join(ctx, req.RoomCode, session.JoinOptions{Name: req.Name})
		return h.reply(conn, msg.RequestID, err)

	case ws.TypeStartGame:
		return h.reply(conn, msg.RequestID, sess.StartGame(ctx))

	case ws.TypeSubmitAnswer:
		var req ws.SubmitAnswerPayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
		}
		return h.reply(conn, msg.RequestID, sess.SubmitAnswer(ctx, req.AnswerIndex))

	case ws.TypeNextQuestion:
		return h.reply(conn, msg.RequestID, sess.AdvanceQuestion(ctx))

	case ws.TypeRequestHint:
		hint, err := sess.RequestHint(ctx)
		if err != nil {
			return h.reply(conn, msg.RequestID, err)
		}
		return h.send(conn, ws.TypeHint, msg.RequestID, ws.HintPayload{Hint: hint})

	case ws.TypeGuessWhoAsk:
		var req ws.GuessWhoAskPayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid guess_who_ask payload")
		}
		reply, err := sess.Ask(ctx, req.Text)
		if err != nil {
			return h.reply(conn, msg.RequestID, err)
		}
		return h.send(conn, ws.TypeGuessWhoReply, msg.RequestID, ws.GuessWhoReplyPayload{
			Text:    reply.Text,
			Guessed: reply.Guessed,
			Over:    reply.Over,
			Refused: reply.Refused,
		})

	case ws.TypeLeaveRoom:
		return h.reply(conn, msg.RequestID, sess.Leave())

	case ws.TypePing:
		return h.send(conn, ws.TypePong, msg.RequestID, nil)

	default:
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func createOptions(req ws.CreateRoomPayload) (session.CreateOptions, error) {
	difficulty, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		return session.CreateOptions{}, err
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		return session.CreateOptions{}, err
	}
	return session.CreateOptions{Name: req.Name, Difficulty: difficulty, Mode: mode}, nil
}

// reply reports err to the browser. Successful operations need no reply; the
// resulting snapshot is already on its way.
func (h *Handler) reply(conn *ws.Connection, requestID string, err error) error {
	if err == nil {
		return nil
	}
	code := errorCode(err)
	if code == httperrors.ErrCodeInternalError || code == httperrors.ErrCodeMutationFailed {
		h.logger.Warn().Err(err).Str("code", code).Msg("session operation failed")
	}
	return h.sendError(conn, requestID, code, err.Error())
}

func errorCode(err error) string {
	var mutErr *session.MutationError
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return httperrors.ErrCodeRoomNotFound
	case errors.Is(err, session.ErrNoRoom):
		return httperrors.ErrCodeNoRoom
	case errors.Is(err, session.ErrAlreadyJoined):
		return httperrors.ErrCodeAlreadyJoined
	case errors.Is(err, session.ErrNotHost):
		return httperrors.ErrCodeNotHost
	case errors.Is(err, session.ErrNotInLobby):
		return httperrors.ErrCodeNotInLobby
	case errors.Is(err, session.ErrNotPlaying):
		return httperrors.ErrCodeNotPlaying
	case errors.Is(err, session.ErrAlreadyAnswered):
		return httperrors.ErrCodeAlreadyAnswered
	case errors.Is(err, session.ErrHintUsed):
		return httperrors.ErrCodeHintUsed
	case errors.Is(err, session.ErrRoundOver):
		return httperrors.ErrCodeRoundOver
	case errors.Is(err, session.ErrEmptyQuestion):
		return httperrors.ErrCodeEmptyQuestion
	case errors.As(err, &mutErr):
		return httperrors.ErrCodeMutationFailed
	case errors.Is(err, content.ErrEmptyResponse):
		return httperrors.ErrCodeContentFailed
	default:
		var provErr *content.ProviderError
		if errors.As(err, &provErr) {
			return httperrors.ErrCodeContentFailed
		}
		return httperrors.ErrCodeInternalError
	}
}

func (h *Handler) send(conn *ws.Connection, msgType, requestID string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	msg.RequestID = requestID
	return conn.Send(msg)
}

func (h *Handler) sendError(conn *ws.Connection, requestID, code, message string) error {
	return h.send(conn, ws.TypeError, requestID, ws.ErrorPayload{
		Code:    code,
		Message: message,
	})
}
