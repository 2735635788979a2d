package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeInvalidRoomCode = "invalid_room_code"
	ErrCodeInvalidPayload  = "invalid_payload"

	// Resource errors
	ErrCodeNotFound     = "not_found"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeConflict     = "conflict"

	// Session errors
	ErrCodeNoRoom          = "no_room"
	ErrCodeAlreadyJoined   = "already_joined"
	ErrCodeNotHost         = "not_host"
	ErrCodeNotInLobby      = "not_in_lobby"
	ErrCodeNotPlaying      = "not_playing"
	ErrCodeAlreadyAnswered = "already_answered"
	ErrCodeHintUsed        = "hint_used"
	ErrCodeRoundOver       = "round_over"
	ErrCodeEmptyQuestion   = "empty_question"
	ErrCodeContentFailed   = "content_failed"
	ErrCodeMutationFailed  = "mutation_failed"

	// WebSocket errors
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError        = "internal_error"
	ErrCodeServiceUnavailable   = "service_unavailable"
	ErrCodeConfigurationMissing = "configuration_missing"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
)
