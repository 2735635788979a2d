package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/gokatarajesh/riddle-party/internal/game"
	httperrors "github.com/gokatarajesh/riddle-party/pkg/http/errors"
)

const qrSize = 320

// RoomReader is the read side of the room store.
type RoomReader interface {
	GetRoomByCode(ctx context.Context, code string) (game.Room, error)
	ListPlayers(ctx context.Context, roomID uuid.UUID) ([]game.Player, error)
}

// ConnectionCounter reports live viewers of a room.
type ConnectionCounter interface {
	RoomConnections(roomID uuid.UUID) int
}

// RoomSummary is the public view of a room used by join screens.
type RoomSummary struct {
	Code            string          `json:"code"`
	Status          game.Status     `json:"status"`
	Mode            game.Mode       `json:"game_mode"`
	Difficulty      game.Difficulty `json:"difficulty"`
	CurrentQuestion int             `json:"current_question"`
	TotalQuestions  int             `json:"total_questions"`
	Players         int             `json:"players"`
	Connected       int             `json:"connected"`
	JoinURL         string          `json:"join_url"`
}

// LeaderboardEntry is one ranked row of a room's final results.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Role     game.Role `json:"role"`
	Score    int       `json:"score"`
}

// RoomHandler serves read-only room endpoints.
type RoomHandler struct {
	rooms       RoomReader
	connections ConnectionCounter
	baseURL     string
	logger      zerolog.Logger
}

// NewRoomHandler constructs the room HTTP handler. publicBaseURL is the
// address printed in join links and QR codes.
func NewRoomHandler(rooms RoomReader, connections ConnectionCounter, publicBaseURL string, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:       rooms,
		connections: connections,
		baseURL:     strings.TrimSuffix(publicBaseURL, "/"),
		logger:      logger.With().Str("component", "rooms_http").Logger(),
	}
}

// Routes registers the room endpoints.
//
//	GET /v1/rooms/:code
//	GET /v1/rooms/:code/leaderboard?limit=10
//	GET /v1/rooms/:code/qr
func (h *RoomHandler) Routes() http.Handler {
	router := httprouter.New()
	router.GET("/v1/rooms/:code", h.HandleGet)
	router.GET("/v1/rooms/:code/leaderboard", h.HandleLeaderboard)
	router.GET("/v1/rooms/:code/qr", h.HandleQR)
	return router
}

// JoinURL is the link a guest opens to join code.
func (h *RoomHandler) JoinURL(code string) string {
	return h.baseURL + "/?room=" + url.QueryEscape(code)
}

// HandleGet responds with a room summary.
func (h *RoomHandler) HandleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, ok := h.lookup(w, r, ps, "summary")
	if !ok {
		return
	}
	players, err := h.rooms.ListPlayers(r.Context(), room.ID)
	if err != nil {
		roomLookups.WithLabelValues("summary", "error").Inc()
		h.logger.Error().Err(err).Str("room_code", room.Code).Msg("player list failed")
		httperrors.RespondInternalError(w, "Failed to load players")
		return
	}

	summary := RoomSummary{
		Code:            room.Code,
		Status:          room.Status,
		Mode:            room.Mode,
		Difficulty:      room.Difficulty,
		CurrentQuestion: room.CurrentQuestion,
		TotalQuestions:  len(room.Riddles),
		Players:         len(players),
		JoinURL:         h.JoinURL(room.Code),
	}
	if h.connections != nil {
		summary.Connected = h.connections.RoomConnections(room.ID)
	}
	roomLookups.WithLabelValues("summary", "ok").Inc()
	httperrors.RespondJSON(w, http.StatusOK, summary)
}

// HandleLeaderboard responds with players ranked by score.
func (h *RoomHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, ok := h.lookup(w, r, ps, "leaderboard")
	if !ok {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	players, err := h.rooms.ListPlayers(r.Context(), room.ID)
	if err != nil {
		roomLookups.WithLabelValues("leaderboard", "error").Inc()
		h.logger.Error().Err(err).Str("room_code", room.Code).Msg("leaderboard fetch failed")
		httperrors.RespondInternalError(w, "Failed to fetch leaderboard")
		return
	}

	roomLookups.WithLabelValues("leaderboard", "ok").Inc()
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{
		"room_code":   room.Code,
		"status":      room.Status,
		"top":         rankPlayers(players, limit),
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// rankPlayers numbers players in the order the store returned them, which is
// score descending then join order.
func rankPlayers(players []game.Player, limit int) []LeaderboardEntry {
	if len(players) > limit {
		players = players[:limit]
	}
	entries := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Role:     p.Role,
			Score:    p.Score,
		}
	}
	return entries
}

// HandleQR renders the join link as a PNG QR code.
func (h *RoomHandler) HandleQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, ok := h.lookup(w, r, ps, "qr")
	if !ok {
		return
	}
	png, err := qrcode.Encode(h.JoinURL(room.Code), qrcode.Medium, qrSize)
	if err != nil {
		roomLookups.WithLabelValues("qr", "error").Inc()
		h.logger.Error().Err(err).Msg("qr generation failed")
		httperrors.RespondInternalError(w, "QR generation failed")
		return
	}
	roomLookups.WithLabelValues("qr", "ok").Inc()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(png)
}

func (h *RoomHandler) lookup(w http.ResponseWriter, r *http.Request, ps httprouter.Params, endpoint string) (game.Room, bool) {
	code := strings.ToUpper(strings.TrimSpace(ps.ByName("code")))
	if code == "" {
		roomLookups.WithLabelValues(endpoint, "bad_request").Inc()
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRoomCode, "Room code required")
		return game.Room{}, false
	}
	room, err := h.rooms.GetRoomByCode(r.Context(), code)
	if errors.Is(err, game.ErrRoomNotFound) {
		roomLookups.WithLabelValues(endpoint, "not_found").Inc()
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "Room not found")
		return game.Room{}, false
	}
	if err != nil {
		roomLookups.WithLabelValues(endpoint, "error").Inc()
		h.logger.Error().Err(err).Str("room_code", code).Msg("room lookup failed")
		httperrors.RespondInternalError(w, "Failed to load room")
		return game.Room{}, false
	}
	return room, true
}
