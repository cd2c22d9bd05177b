package constant

// Shared slog attribute keys.
const (
	Error    = "error"
	PlayerID = "player_id"
	RoomCode = "room_code"
	Phase    = "phase"
)
