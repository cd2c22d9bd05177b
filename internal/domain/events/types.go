package events

import (
	"encoding/json"

	"github.com/milyonersgroup/catchthespy/internal/domain/models"
	"github.com/milyonersgroup/catchthespy/internal/session"
)

// Message is the envelope for everything that crosses the WebSocket.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client -> server event types.
const (
	TypeJoin        = "join"
	TypeLeave       = "leave"
	TypeSetReady    = "set_ready"
	TypeStartGame   = "start_game"
	TypeRevealDone  = "reveal_done"
	TypeSubmitGuess = "submit_guess"
)

// Server -> client event types.
const (
	TypeRoom       = "room"
	TypeRoomClosed = "room_closed"
	TypeError      = "error"
)

// JoinEvent subscribes the connection to a room, adding the player to
// it first when they are not a member yet.
type JoinEvent struct {
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

// SetReadyEvent toggles the sender's own ready vote.
type SetReadyEvent struct {
	IsReady bool `json:"is_ready"`
}

// SubmitGuessEvent records the round outcome.
type SubmitGuessEvent struct {
	SpyWon bool `json:"spy_won"`
}

// RoomEvent pushes the full shared document plus the view derived for
// this connection's player.
type RoomEvent struct {
	Room *models.Room `json:"room"`
	View session.View `json:"view"`
}

// ErrorEvent surfaces a failed command. The room state is untouched;
// the user re-triggers the action if they still want it.
type ErrorEvent struct {
	Message string `json:"message"`
}
