package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeStartGame    = "start_game"
	TypeSubmitAnswer = "submit_answer"
	TypeNextQuestion = "next_question"
	TypeRequestHint  = "request_hint"
	TypeGuessWhoAsk  = "guess_who_ask"
	TypeLeaveRoom    = "leave_room"

	// Server -> Client
	TypeState          = "state"
	TypeHint           = "hint"
	TypeGuessWhoReply  = "guess_who_reply"
	TypeServerShutdown = "server_shutdown"
	TypeError          = "error"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type CreateRoomPayload struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty,omitempty"` // EASY, MEDIUM or HARD (default: MEDIUM)
	Mode       string `json:"game_mode,omitempty"`  // RIDDLES or GUESS_WHO (default: RIDDLES)
}

type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

type SubmitAnswerPayload struct {
	AnswerIndex int `json:"answer_index"`
}

type GuessWhoAskPayload struct {
	Text string `json:"text"`
}

// Server Messages (outgoing)

type HintPayload struct {
	Hint string `json:"hint"`
}

type GuessWhoReplyPayload struct {
	Text    string `json:"text"`
	Guessed bool   `json:"guessed"`
	Over    bool   `json:"over"`
	Refused bool   `json:"refused"`
}

type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
