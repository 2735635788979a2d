package session

import "github.com/gokatarajesh/riddle-party/internal/game"

// transitions lists every allowed move of the local state machine. Staying in
// the same state is always allowed.
var transitions = map[game.Status][]game.Status{
	game.StatusStart:    {game.StatusLobby, game.StatusLoading, game.StatusPlaying, game.StatusFinished},
	game.StatusLobby:    {game.StatusLoading, game.StatusPlaying},
	game.StatusLoading:  {game.StatusLobby, game.StatusPlaying},
	game.StatusPlaying:  {game.StatusFinished},
	game.StatusFinished: {},
}

func canTransition(from, to game.Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// deriveState maps a remote room status onto the local machine. LOADING only
// exists on the host while it fetches content, so a LOBBY echo must not undo it.
func deriveState(local, remote game.Status) game.Status {
	if !remote.Valid() || remote == game.StatusStart {
		remote = game.StatusLobby
	}
	if local == game.StatusLoading && remote == game.StatusLobby {
		return game.StatusLoading
	}
	return remote
}
